package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/ftmgmt/internal/computed"
	"github.com/vvka-141/ftmgmt/internal/config"
	"github.com/vvka-141/ftmgmt/internal/files/filesystem"
	"github.com/vvka-141/ftmgmt/internal/logging"
	"github.com/vvka-141/ftmgmt/internal/params"
	"github.com/vvka-141/ftmgmt/internal/policy"
	"github.com/vvka-141/ftmgmt/pkg/ftmgmt"
)

// ConfigEnvVar names the environment variable consulted when --config is absent.
const ConfigEnvVar = "FTMGMT_CONFIG"

// app bundles what every command needs once flags are parsed.
type app struct {
	cfg      *config.Store
	logger   ftmgmt.Logger
	fs       filesystem.Provider
	registry *computed.Registry
	sync     func()
}

// newApp loads the configuration document, applies params files and --param
// overrides (CLI > files > document) and builds the logger.
func newApp(cmd *cobra.Command) (*app, error) {
	_ = godotenv.Load()

	logger, syncFn, err := newLogger(getVerboseFlag(cmd), globalFlags.logJSON)
	if err != nil {
		return nil, err
	}

	fs := filesystem.NewOSFileSystem()
	cfg, err := loadConfig(fs, configPath(), globalFlags.paramsFiles, globalFlags.params)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, fs: fs, registry: computed.Default(), sync: syncFn}, nil
}

func configPath() string {
	if globalFlags.config != "" {
		return globalFlags.config
	}
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return p
	}
	return config.DefaultFileName
}

func newLogger(verbose, asJSON bool) (ftmgmt.Logger, func(), error) {
	if !asJSON {
		return logging.NewConsoleLogger(verbose), func() {}, nil
	}
	zl, err := logging.NewZapLogger(verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JSON logger: %w", err)
	}
	return zl, func() { _ = zl.Sync() }, nil
}

// loadConfig reads the document at path and layers the overrides on top.
func loadConfig(fs filesystem.Provider, path string, paramsFiles, cliParams []string) (*config.Store, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, ftmgmt.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %w: %s\n  Hint: pass --config or set $%s", ftmgmt.ErrInvalidConfig, config.ErrConfigNotFound, path, ConfigEnvVar)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	fileParams, err := params.LoadFiles(fs.ReadFile, paramsFiles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ftmgmt.ErrInvalidConfig, err)
	}
	cliValues, err := params.ParseKeyValuePairs(cliParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ftmgmt.ErrInvalidConfig, err)
	}
	if err := cfg.ApplyOverrides(params.Merge(fileParams, cliValues)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// policy parses and validates filetype_metadata.
func (a *app) policy() (*policy.Model, error) {
	model, err := policy.FromStore(a.cfg)
	if err != nil {
		return nil, err
	}
	result := policy.Validate(model, a.registry)
	if err := result.Err(); err != nil {
		return nil, err
	}
	for _, w := range result.Warnings {
		a.logger.Info("WARN: %s", w)
	}
	return model, nil
}

func (a *app) close() {
	if a.sync != nil {
		a.sync()
	}
}
