// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the service reads from the environment.
// cmd/server loads a .env file first; all keys can also come from the OS
// environment directly.
type Config struct {
	Genesys  GenesysConfig
	Partner  PartnerConfig
	DB       DBConfig
	Pipeline PipelineConfig

	// AMQPURL enables RabbitMQ fact publishing when non-empty.
	AMQPURL  string
	Timezone string
	HTTPPort int
	Verbose  bool
}

type GenesysConfig struct {
	ClientID     string
	ClientSecret string
	// Region is the cloud domain, e.g. "mec1.pure.cloud". Login and API
	// hosts are derived as login.<region> and api.<region>.
	Region     string
	CampaignID string
}

type PartnerConfig struct {
	TokenURL  string
	ClientID  string
	Username  string
	Password  string
	GrantType string
	APIURL    string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type PipelineConfig struct {
	PageSize        int
	Lookback        time.Duration
	SyncInterval    time.Duration
	CatalogInterval time.Duration
	SettleDelay     time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	RetentionDays   int
	// PurgeAt is the local time of day ("15:04") the retention purge runs.
	PurgeAt string
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

func Load() (*Config, error) {
	c := &Config{
		Genesys: GenesysConfig{
			ClientID:     os.Getenv("GENESYS_CLIENT_ID"),
			ClientSecret: os.Getenv("GENESYS_CLIENT_SECRET"),
			Region:       getenv("GENESYS_REGION", "mec1.pure.cloud"),
			CampaignID:   os.Getenv("GENESYS_CAMPAIGN_ID"),
		},
		Partner: PartnerConfig{
			TokenURL:  os.Getenv("PARTNER_TOKEN_URL"),
			ClientID:  os.Getenv("PARTNER_CLIENT_ID"),
			Username:  os.Getenv("PARTNER_USERNAME"),
			Password:  os.Getenv("PARTNER_PASSWORD"),
			GrantType: getenv("PARTNER_GRANT_TYPE", "password"),
			APIURL:    os.Getenv("PARTNER_API_URL"),
		},
		DB: DBConfig{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		Pipeline: PipelineConfig{
			PageSize:        getint("SYNC_PAGE_SIZE", 100),
			Lookback:        getdur("SYNC_LOOKBACK", 24*time.Hour),
			SyncInterval:    getdur("SYNC_INTERVAL", 10*time.Minute),
			CatalogInterval: getdur("CATALOG_REFRESH_INTERVAL", time.Hour),
			SettleDelay:     getdur("SETTLE_DELAY", 30*time.Second),
			RetryAttempts:   getint("RETRY_ATTEMPTS", 3),
			RetryDelay:      getdur("RETRY_DELAY", 5*time.Second),
			RetentionDays:   getint("RETENTION_DAYS", 30),
			PurgeAt:         getenv("PURGE_AT", "03:00"),
		},
		AMQPURL:  os.Getenv("AMQP_URL"),
		Timezone: getenv("TIMEZONE", "Asia/Dubai"),
		HTTPPort: getint("HTTP_PORT", 8080),
		Verbose:  getbool("VERBOSE", false),
	}

	var missing []string
	for _, kv := range []struct{ key, val string }{
		{"GENESYS_CLIENT_ID", c.Genesys.ClientID},
		{"GENESYS_CLIENT_SECRET", c.Genesys.ClientSecret},
		{"GENESYS_CAMPAIGN_ID", c.Genesys.CampaignID},
		{"DB_USER", c.DB.User},
		{"DB_NAME", c.DB.Name},
	} {
		if kv.val == "" {
			missing = append(missing, kv.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if _, err := time.Parse("15:04", c.Pipeline.PurgeAt); err != nil {
		return nil, fmt.Errorf("invalid PURGE_AT %q: expected HH:MM", c.Pipeline.PurgeAt)
	}
	return c, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getdur(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getbool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
