package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"

	"kgeyst.com/medsupport/pkg/common"
	"kgeyst.com/medsupport/pkg/medsupport/api"
	"kgeyst.com/medsupport/pkg/medsupport/evaluation"
	"kgeyst.com/medsupport/pkg/medsupport/evaluation/judge"
	"kgeyst.com/medsupport/pkg/medsupport/infrastructure/filesystem"
)

type options struct {
	configPath   string
	datasetsPath string
	baseDir      string
	outDir       string
	auditPath    string
	auditLimit   int
	suites       []string
}

func main() {
	err := mainImpl()
	if err != nil {
		panic(err)
	}
}

func mainImpl() error {
	var opts options
	var suites string
	flag.StringVar(&opts.configPath, "config", "config.yaml", "path to the config file (optional)")
	flag.StringVar(&opts.datasetsPath, "datasets", "", "YAML file with evaluation suites (the built-in suites by default)")
	flag.StringVar(&opts.baseDir, "base-dir", ".", "directory the example image paths are relative to")
	flag.StringVar(&opts.outDir, "out", "experiments", "directory for the experiment reports")
	flag.StringVar(&opts.auditPath, "audit", "", "grade the latest traces from this trace log instead of running the suites")
	flag.IntVar(&opts.auditLimit, "limit", 5, "how many traces -audit grades")
	flag.StringVar(&suites, "suites", "", "comma-separated names of the suites to run (all by default)")
	flag.Parse()
	if suites != "" {
		opts.suites = strings.Split(suites, ",")
	}
	config, err := common.LoadConfigOrEmpty(opts.configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	judgeModel, err := judge.NewJudgeFromConfig(ctx, config)
	if err != nil {
		return err
	}
	if judgeModel != nil {
		defer func() {
			_ = judgeModel.Close()
		}()
	}
	if opts.auditPath != "" {
		return audit(ctx, opts, judgeModel, common.NewLoggerFromConfig(config, api.ConfigKeyLogPath))
	}
	medsupport, err := api.NewAPI(config)
	if err != nil {
		return err
	}
	defer func() {
		_ = medsupport.Close()
	}()
	return runSuites(ctx, opts, medsupport, judgeModel, medsupport.Logger())
}

func runSuites(ctx context.Context, opts options, service evaluation.Service, judgeModel judge.Judge, logger common.Logger) error {
	var suites []*evaluation.Suite
	var err error
	if opts.datasetsPath != "" {
		suites, err = evaluation.LoadSuites(opts.datasetsPath)
	} else {
		suites, err = evaluation.DefaultSuites()
	}
	if err != nil {
		return err
	}
	var evaluationJudge evaluation.Judge
	if judgeModel != nil {
		evaluationJudge = judgeModel
	} else {
		common.Logf(logger, "No judge API key configured: judged metrics are skipped.")
	}
	evaluators := append(evaluation.HeuristicEvaluators(), evaluation.JudgeEvaluators(evaluationJudge)...)
	runner := evaluation.NewRunner(service, evaluators, opts.baseDir, logger)
	for _, suite := range suites {
		if len(opts.suites) > 0 && !common.IsStringInSlice(suite.Name, opts.suites) {
			continue
		}
		experiment, err := runner.RunSuite(ctx, suite)
		if err != nil {
			return err
		}
		if experiment == nil {
			continue
		}
		path, err := evaluation.WriteReport(opts.outDir, experiment)
		if err != nil {
			return err
		}
		common.Logf(logger, "Report saved to %s", path)
	}
	return nil
}

func audit(ctx context.Context, opts options, judgeModel judge.Judge, logger common.Logger) error {
	traces, err := filesystem.OpenTraceRepositoryForReading(opts.auditPath).FindLatest(opts.auditLimit)
	if err != nil {
		return err
	}
	var evaluationJudge evaluation.Judge
	if judgeModel != nil {
		evaluationJudge = judgeModel
	}
	_, err = evaluation.Audit(ctx, traces, evaluationJudge, logger)
	return err
}
