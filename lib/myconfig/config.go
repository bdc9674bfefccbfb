package myconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   int           `mapstructure:"PORT"`
	GoogleCloudProject     string        `mapstructure:"GOOGLE_CLOUD_PROJECT"`
	RedisAddr              string        `mapstructure:"REDIS_ADDR"`
	PublicHostname         string        `mapstructure:"PUBLIC_HOSTNAME"`
	SessionTTL             time.Duration `mapstructure:"SESSION_TTL"`
	BackendBaseURL         string        `mapstructure:"BACKEND_BASE_URL"`
	PostalCodeBaseURL      string        `mapstructure:"POSTAL_CODE_BASE_URL"`
	NotificationBaseURL    string        `mapstructure:"NOTIFICATION_BASE_URL"`
	HTTPTimeout            time.Duration `mapstructure:"HTTP_TIMEOUT"`
	HandshakeRedirectDelay time.Duration `mapstructure:"HANDSHAKE_REDIRECT_DELAY"`
	HandshakeRetryBackoff  time.Duration `mapstructure:"HANDSHAKE_RETRY_BACKOFF"`
	HandshakeMaxRetries    int           `mapstructure:"HANDSHAKE_MAX_RETRIES"`
}

// Load reads the environment and, when CONFIG_FILE points to one, a config file underneath it.
func Load(v *viper.Viper) (Config, error) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("GOOGLE_CLOUD_PROJECT", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("PUBLIC_HOSTNAME", "http://localhost:8080")
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:8081/api")
	v.SetDefault("POSTAL_CODE_BASE_URL", "https://viacep.com.br/ws")
	v.SetDefault("NOTIFICATION_BASE_URL", "http://localhost:8082")
	v.SetDefault("HTTP_TIMEOUT", 5*time.Second)
	v.SetDefault("HANDSHAKE_REDIRECT_DELAY", 2*time.Second)
	v.SetDefault("HANDSHAKE_RETRY_BACKOFF", time.Second)
	v.SetDefault("HANDSHAKE_MAX_RETRIES", 3)
	v.SetDefault("CONFIG_FILE", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configFile := v.GetString("CONFIG_FILE")
	if configFile != "" {
		v.SetConfigFile(configFile)
		err := v.ReadInConfig()
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %s", configFile, err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %s", err)
	}

	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.HandshakeMaxRetries < 0 {
		return Config{}, fmt.Errorf("HANDSHAKE_MAX_RETRIES must not be negative, got %d", cfg.HandshakeMaxRetries)
	}

	return cfg, nil
}
