package di

import (
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sectrean/dicore/internal/errors"
)

// Config holds the settings of a [Container].
// They are fixed when the Container is created.
type Config struct {
	// MaxCacheSize is the maximum number of cached Singleton services.
	// Zero means no limit.
	MaxCacheSize int `yaml:"max_cache_size"`

	// CacheTTLSeconds is how long a Singleton stays cached after it was created.
	// Zero means cached services never expire.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// EnableServiceCache enables the size limit and expiry of the service cache.
	// When false, Singletons are kept until the Container is cleared.
	EnableServiceCache bool `yaml:"enable_service_cache"`

	// EnableTracking enables the performance monitor.
	EnableTracking bool `yaml:"enable_tracking"`

	// Environment is the initial environment.
	Environment string `yaml:"environment"`
}

// DefaultConfig returns the Config used when [WithConfig] is not given.
func DefaultConfig() Config {
	return Config{
		MaxCacheSize:       1000,
		CacheTTLSeconds:    3600,
		EnableServiceCache: true,
		EnableTracking:     true,
		Environment:        DefaultEnvironment,
	}
}

// Validate checks the Config for invalid values.
func (cfg Config) Validate() error {
	var errs errors.MultiError
	if cfg.MaxCacheSize < 0 {
		errs = errs.Append(errors.Errorf("max cache size must not be negative, got %d", cfg.MaxCacheSize))
	}
	if cfg.CacheTTLSeconds < 0 {
		errs = errs.Append(errors.Errorf("cache ttl must not be negative, got %d", cfg.CacheTTLSeconds))
	}

	return errs.Wrap("invalid config")
}

// Environment variables read by [LoadConfig].
const (
	EnvEnvironment        = "DI_ENVIRONMENT"
	EnvMaxCacheSize       = "DI_MAX_CACHE_SIZE"
	EnvCacheTTLSeconds    = "DI_CACHE_TTL_SECONDS"
	EnvEnableServiceCache = "DI_ENABLE_SERVICE_CACHE"
	EnvEnableTracking     = "DI_ENABLE_TRACKING"
)

// LoadConfig loads a Config.
//
// Values start from [DefaultConfig]. If path is not empty, the YAML file at path is
// applied on top. Then the DI_* environment variables override individual values.
// Variables set in the process environment take precedence over the same variables
// in envFiles, which are read in dotenv format. Missing env files are skipped.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "di.LoadConfig")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "di.LoadConfig %s", path)
		}
	}

	vars, err := readEnvFiles(envFiles)
	if err != nil {
		return Config{}, errors.Wrap(err, "di.LoadConfig")
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	var errs errors.MultiError
	if v, ok := lookup(EnvEnvironment); ok {
		cfg.Environment = v
	}
	if v, ok := lookup(EnvMaxCacheSize); ok {
		errs = errs.Append(parseEnv(EnvMaxCacheSize, v, strconv.Atoi, &cfg.MaxCacheSize))
	}
	if v, ok := lookup(EnvCacheTTLSeconds); ok {
		errs = errs.Append(parseEnv(EnvCacheTTLSeconds, v, strconv.Atoi, &cfg.CacheTTLSeconds))
	}
	if v, ok := lookup(EnvEnableServiceCache); ok {
		errs = errs.Append(parseEnv(EnvEnableServiceCache, v, strconv.ParseBool, &cfg.EnableServiceCache))
	}
	if v, ok := lookup(EnvEnableTracking); ok {
		errs = errs.Append(parseEnv(EnvEnableTracking, v, strconv.ParseBool, &cfg.EnableTracking))
	}
	if err := errs.Wrap("di.LoadConfig"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", f)
		}

		// Earlier files win, like godotenv.Load
		for k, v := range m {
			if _, exists := vars[k]; !exists {
				vars[k] = v
			}
		}
	}

	return vars, nil
}

func parseEnv[T any](key, val string, parse func(string) (T, error), dst *T) error {
	v, err := parse(val)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	*dst = v
	return nil
}
