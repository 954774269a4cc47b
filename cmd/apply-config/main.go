package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/cloud-it/template-app-configurator/internal/application"
	"github.com/cloud-it/template-app-configurator/internal/config"
	"github.com/cloud-it/template-app-configurator/internal/logging"
	"github.com/cloud-it/template-app-configurator/internal/storage"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitSetup  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	kingpinApp := kingpin.New("apply-config", "Apply the project configuration to a cloned Template App checkout")
	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)

	root := kingpinApp.Flag("root", "Project root (default: nearest ancestor with app/ and terraform/, else the current directory)").String()
	configFile := kingpinApp.Flag("config", "Path to YAML or TOML project configuration file").String()
	envFile := kingpinApp.Flag("env-file", "Path to dotenv file (default: <root>/.env when present)").String()
	dryRun := kingpinApp.Flag("dry-run", "Report what would change without writing files").Bool()
	logLevel := kingpinApp.Flag("log-level", "Log level").Default("info").Enum("debug", "info", "warn", "error")
	logFormat := kingpinApp.Flag("log-format", "Log encoding").Default("console").Enum("console", "json")

	if _, err := kingpinApp.Parse(args); err != nil {
		fmt.Fprintf(stderr, "apply-config: %v\n", err)
		return exitSetup
	}

	logger, err := logging.New(logging.Options{Level: *logLevel, Format: *logFormat})
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitSetup
	}
	defer func() {
		_ = logger.Sync()
	}()

	projectRoot := *root
	if projectRoot == "" {
		projectRoot, err = application.ResolveProjectRoot(".")
		if err != nil {
			logger.Warn("project root not found, using current directory", zap.Error(err))
			projectRoot = "."
		}
	}

	sources := &config.Sources{ConfigFile: *configFile, EnvFile: *envFile, EnvFileRequired: *envFile != ""}
	if sources.EnvFile == "" {
		sources.EnvFile = filepath.Join(projectRoot, ".env")
	}

	cfg, err := config.Load(sources)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return exitSetup
	}

	app, err := application.New(cfg, storage.NewDirFileSystem(projectRoot), logger, application.WithDryRun(*dryRun))
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return exitSetup
	}

	if _, err := app.Run(stdout); err != nil {
		logger.Error("configuration applied with failures", zap.Error(err))
		return exitFailed
	}
	return exitOK
}
