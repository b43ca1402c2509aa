// Config loading for the coffer CLI.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyDataDir      = "data_dir"
	cfgKeyLogLevel     = "log_level"
	cfgKeyGeminiAPIKey = "gemini.api_key"
	cfgKeyGeminiModel  = "gemini.model"

	defaultLogLevel = "warn"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# coffer configuration

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# debug, info, warn, or error
log_level: warn

# Document scanning
gemini:
  # api_key: (or set COFFER_GEMINI_API_KEY / GOOGLE_API_KEY)
  # model: gemini-2.5-flash
`

// settings is the resolved configuration for one invocation.
type settings struct {
	ConfigDir    string
	DataDir      string
	LogLevel     string
	GeminiAPIKey string
	GeminiModel  string
}

// configFile is the structure init writes when a data directory is given
// explicitly.
type configFile struct {
	DataDir  string       `yaml:"data_dir,omitempty"`
	LogLevel string       `yaml:"log_level"`
	Gemini   geminiConfig `yaml:"gemini,omitempty"`
}

type geminiConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
}

// loadSettings reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run. A missing config.yaml is
// not an error.
func loadSettings(configDir string) (settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return settings{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	// Only these keys read the environment; data_dir keeps config.yaml ahead
	// of COFFER_DATA_DIR.
	_ = v.BindEnv(cfgKeyLogLevel, "COFFER_LOG_LEVEL")
	_ = v.BindEnv(cfgKeyGeminiAPIKey, "COFFER_GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv(cfgKeyGeminiModel, "COFFER_GEMINI_MODEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	return settings{
		DataDir:      v.GetString(cfgKeyDataDir),
		LogLevel:     v.GetString(cfgKeyLogLevel),
		GeminiAPIKey: v.GetString(cfgKeyGeminiAPIKey),
		GeminiModel:  v.GetString(cfgKeyGeminiModel),
	}, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// pinDataDir records dataDir in config.yaml unless the file already names
// one. Other keys are preserved.
func pinDataDir(configDir, dataDir string) error {
	path := filepath.Join(configDir, configFileExt)
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}

	cfg := configFile{LogLevel: defaultLogLevel}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	if cfg.DataDir != "" {
		return nil
	}
	cfg.DataDir = dataDir

	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
