package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/api"
	"kgeyst.com/medsupport/pkg/medsupport/httpapi"
)

const (
	configKeyListenAddress = "listenAddress"
	defaultListenAddress   = ":8000"
	shutdownTimeout        = 30 * time.Second
)

func main() {
	err := mainImpl()
	if err != nil {
		panic(err)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "config.yaml", "path to the config file (optional)")
	flag.Parse()
	config, err := common.LoadConfigOrEmpty(*configPath)
	if err != nil {
		return err
	}
	medsupport, err := api.NewAPI(config)
	if err != nil {
		return err
	}
	defer func() {
		_ = medsupport.Close()
	}()
	logger := medsupport.Logger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if config.GetBoolOrDefault(api.ConfigKeyPreloadModel, false) {
		// not fatal: requests retry the load
		_ = medsupport.LoadModel(ctx)
	}
	address := config.GetStringOrDefault(configKeyListenAddress, defaultListenAddress)
	if port := os.Getenv("PORT"); port != "" {
		address = ":" + port
	}
	server := &http.Server{
		Addr:              address,
		Handler:           medsupport.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	common.Logf(logger, "Server starting on %s", address)
	common.Logf(logger, "Endpoints:")
	for _, route := range httpapi.Routes() {
		common.Logf(logger, "  %s", route)
	}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()
	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	common.Logf(logger, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
