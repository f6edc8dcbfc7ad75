package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/shelfmark/internal/catalog"
	"github.com/mesh-intelligence/shelfmark/internal/engine"
	"github.com/mesh-intelligence/shelfmark/internal/paths"
	"github.com/mesh-intelligence/shelfmark/internal/store"
	"github.com/mesh-intelligence/shelfmark/pkg/sqlite"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend           = "backend"
	cfgKeyDataDir           = "data_dir"
	cfgKeyUser              = "user"
	cfgKeySyncStrategy      = "sync.strategy"
	cfgKeySyncBatchSize     = "sync.batch_size"
	cfgKeySyncBatchInterval = "sync.batch_interval"
	cfgKeyCatalogBaseURL    = "catalog.base_url"
	cfgKeyCatalogMaxResults = "catalog.max_results"
	cfgKeyCatalogRate       = "catalog.requests_per_second"

	defaultUser = "local"
)

// envBindings lists the config keys that may also come from the environment.
// data_dir is resolved by the paths package, which has its own precedence.
var envBindings = map[string]string{
	cfgKeyUser:              "SHELF_USER",
	cfgKeyCatalogBaseURL:    "SHELF_CATALOG_BASE_URL",
	cfgKeyCatalogMaxResults: "SHELF_CATALOG_MAX_RESULTS",
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# shelf configuration

# Storage backend
backend: sqlite

# Library owner; every table is scoped to this user.
user: local

# Data directory (optional; overridable by --data-dir or SHELF_DATA_DIR)
# data_dir:

# When the backend writes its JSONL files: immediate, on_close or batch.
sync:
  strategy: immediate
  # batch_size: 10
  # batch_interval: 5

# Google Books search
catalog:
  max_results: 10
  requests_per_second: 2
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyUser, defaultUser)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyCatalogBaseURL, catalog.DefaultBaseURL)
	v.SetDefault(cfgKeyCatalogMaxResults, catalog.DefaultMaxResults)
	v.SetDefault(cfgKeyCatalogRate, catalog.DefaultRequestsPerSecond)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// newLogger builds the production zap logger. Only warnings reach stderr
// unless verbose is set.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

// setup validates global flags, loads configuration and builds the logger.
// It runs before every command except version.
func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Name() == "version" {
		return nil
	}
	switch a.output {
	case outputText, outputJSON, outputYAML:
	default:
		return usageError{fmt.Errorf("unknown output format %q", a.output)}
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = configDir
	a.v, err = loadConfig(configDir)
	if err != nil {
		return err
	}
	a.log, err = newLogger(a.verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	if a.user == "" {
		a.user = strings.TrimSpace(a.v.GetString(cfgKeyUser))
	}
	a.prompt = newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	a.log.Debug("config loaded", zap.String("config_dir", configDir), zap.String("user", a.user))
	return nil
}

// backendConfig assembles the Cupboard configuration from flags and config.
func (a *app) backendConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend: a.v.GetString(cfgKeyBackend),
		DataDir: dataDir,
		SQLiteConfig: &types.SQLiteConfig{
			SyncStrategy:  a.v.GetString(cfgKeySyncStrategy),
			BatchSize:     a.v.GetInt(cfgKeySyncBatchSize),
			BatchInterval: a.v.GetInt(cfgKeySyncBatchInterval),
		},
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openLibrary attaches the backend and loads the user's snapshot into a new
// engine. The caller's command owns it until close.
func (a *app) openLibrary(ctx context.Context) (*engine.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	cfg, err := a.backendConfig()
	if err != nil {
		return nil, err
	}
	cupboard, err := sqlite.Open(cfg)
	if err != nil {
		return nil, err
	}
	a.cupboard = cupboard

	a.store, err = store.New(cupboard, a.user, a.log)
	if err != nil {
		return nil, err
	}
	confirm := engine.ConfirmFunc(a.prompt.confirm)
	if a.yes {
		confirm = engine.AlwaysConfirm
	}
	a.engine, err = engine.New(engine.Options{
		Store:   a.store,
		Shelves: a.store,
		Confirm: confirm,
		Logger:  a.log,
	})
	if err != nil {
		return nil, err
	}
	if err := a.engine.Refresh(ctx); err != nil {
		return nil, err
	}
	return a.engine, nil
}

// catalogClient builds a Google Books client from the catalog config keys.
func (a *app) catalogClient() *catalog.Client {
	return catalog.NewClient(catalog.Config{
		BaseURL:           a.v.GetString(cfgKeyCatalogBaseURL),
		MaxResults:        a.v.GetInt(cfgKeyCatalogMaxResults),
		RequestsPerSecond: a.v.GetFloat64(cfgKeyCatalogRate),
	}, nil, a.log)
}

// close detaches the backend and flushes the logger.
func (a *app) close() error {
	var err error
	if a.cupboard != nil {
		err = a.cupboard.Detach()
		a.cupboard = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}
