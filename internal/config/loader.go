package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SEARCHAGENT_MODEL_NAME.
const EnvPrefix = "SEARCHAGENT"

// Load reads configuration from an optional file, a .env file and the
// environment, in increasing priority. An empty path searches for
// searchagent.yaml in . and ./configs and tolerates its absence.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := bindEnvAliases(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("searchagent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config: %w", err)
			}
		}
	}

	applyDurationAliases(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", "ollama")
	v.SetDefault("model.base_url", "http://localhost:11434")
	v.SetDefault("model.name", "mistral")
	v.SetDefault("model.codec_addr", "localhost:50051")
	v.SetDefault("model.timeout", 60*time.Second)
	v.SetDefault("model.stream_timeout", 5*time.Minute)

	v.SetDefault("search.enabled", true)
	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.endpoint", "https://duckduckgo.com/html/")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.min_interval", time.Second)
	v.SetDefault("search.redis_addr", "")
	v.SetDefault("search.redis_key", "searchagent:ratelimit:search")

	v.SetDefault("extract.timeout", 15*time.Second)
	v.SetDefault("extract.max_chars", 32000)
	v.SetDefault("extract.include_links", true)

	v.SetDefault("retrieval.selector_attempts", 2)
	v.SetDefault("retrieval.max_stale_selections", 3)
	v.SetDefault("retrieval.keep_search_context", true)

	v.SetDefault("chat.system_prompt", DefaultSystemPrompt)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.addr", "")
}

// #region env-aliases

// envAliases are accepted in addition to SEARCHAGENT_<KEY>, which wins
// when both are set.
var envAliases = map[string][]string{
	"search.enabled":     {"SEARCH_ENABLED", "WEB_SEARCH_ENABLED"},
	"search.provider":    {"WEB_SEARCH_PROVIDER"},
	"search.max_results": {"WEB_SEARCH_MAX_RESULTS"},
}

// durationAliases carry bare numbers in the given unit. Values below min
// are ignored.
var durationAliases = []struct {
	key  string
	env  string
	unit time.Duration
	min  int
}{
	{"search.timeout", "WEB_SEARCH_TIMEOUT", time.Second, 1},
	{"search.min_interval", "WEB_SEARCH_MIN_INTERVAL_MS", time.Millisecond, 0},
}

func bindEnvAliases(v *viper.Viper) error {
	for key, aliases := range envAliases {
		names := append([]string{envName(key)}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

func applyDurationAliases(v *viper.Viper) {
	for _, a := range durationAliases {
		if _, ok := os.LookupEnv(envName(a.key)); ok {
			continue
		}
		raw, ok := os.LookupEnv(a.env)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < a.min {
			continue
		}
		v.Set(a.key, time.Duration(n)*a.unit)
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// #endregion env-aliases

// applyDefaults fills zero values a config file may have blanked.
func applyDefaults(cfg *Config) {
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = "ollama"
	}
	if cfg.Model.Name == "" {
		cfg.Model.Name = "mistral"
	}
	if cfg.Search.Provider == "" {
		cfg.Search.Provider = "duckduckgo"
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 10
	}
	if cfg.Extract.MaxChars <= 0 {
		cfg.Extract.MaxChars = 32000
	}
	if cfg.Retrieval.SelectorAttempts <= 0 {
		cfg.Retrieval.SelectorAttempts = 2
	}
	if cfg.Retrieval.MaxStaleSelections <= 0 {
		cfg.Retrieval.MaxStaleSelections = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validate(cfg *Config) error {
	switch cfg.Model.Provider {
	case "ollama":
		if cfg.Model.BaseURL == "" {
			return errors.New("model.base_url is required for the ollama provider")
		}
	case "codec":
		if cfg.Model.CodecAddr == "" {
			return errors.New("model.codec_addr is required for the codec provider")
		}
	default:
		return fmt.Errorf("unknown model.provider %q", cfg.Model.Provider)
	}

	switch cfg.Search.Provider {
	case "duckduckgo":
		if cfg.Search.Endpoint == "" {
			return errors.New("search.endpoint is required for the duckduckgo provider")
		}
	case "codec":
		if cfg.Model.CodecAddr == "" {
			return errors.New("model.codec_addr is required for the codec search provider")
		}
	default:
		return fmt.Errorf("unknown search.provider %q", cfg.Search.Provider)
	}

	if cfg.Search.MaxResults > 10 {
		return fmt.Errorf("search.max_results %d exceeds 10", cfg.Search.MaxResults)
	}
	if cfg.Model.Timeout <= 0 || cfg.Search.Timeout <= 0 || cfg.Extract.Timeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", cfg.Logging.Format)
	}
	return nil
}

// loadEnvFile loads the first .env found in the working directory or the
// project root. A missing file is not an error.
func loadEnvFile() {
	paths := []string{".env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory to the nearest go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
