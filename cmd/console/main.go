package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/api"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/web"
)

const help = `Type a clinical note or a question to analyze it.
A line with an image URL (or :image <path> [prompt]) describes the image.
  :simplify <text|URL>        explain a report (or a web page with one) in plain English
  :note <URL|path> [prompt]   transcribe a photo of a clinical note or prescription
  :lab <URL|path> [prompt]    explain a photo of a lab report
  :help                       show this text`

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
	console := newConsole(medsupport, web.NewURLFinder(), web.NewPageContentExtractor())
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()
	fmt.Println(help)
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		response, err := console.respond(context.Background(), line)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Println(response)
	}
	return nil
}
