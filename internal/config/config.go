package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"partforge/internal/catalog"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL    string
	DatabaseDriver string // mysql, postgres
	AutoMigrate    bool
	Environment    string

	Interval       time.Duration
	BackoffCeiling time.Duration

	Region     string
	Currency   string
	Categories []catalog.Entry

	RetailerSlug string
	RetailerName string

	Provider     string // http, file
	ProviderURL  string
	ProviderFile string
	ProviderRPS  float64
	HTTPTimeout  time.Duration

	StatusAddr string
}

// Error reports a missing or invalid setting. It is fatal at startup.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Load reads configuration from the environment. Call godotenv.Load first
// if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "mysql")),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", true),
		Environment:    getEnv("ENVIRONMENT", "production"),

		Region:   strings.ToLower(getEnv("PCPP_REGION", "us")),
		Currency: strings.ToUpper(getEnv("PCPP_CURRENCY", "USD")),

		RetailerSlug: getEnv("RETAILER_SLUG", "pcpartpicker"),
		RetailerName: getEnv("RETAILER_NAME", "PCPartPicker"),

		Provider:     strings.ToLower(getEnv("PCPP_PROVIDER", "http")),
		ProviderURL:  getEnv("PCPP_PROVIDER_URL", ""),
		ProviderFile: getEnv("PCPP_PROVIDER_FILE", ""),

		StatusAddr: getEnv("STATUS_ADDR", ""),
	}

	var err error
	if cfg.Interval, err = getEnvSeconds("PCPP_INTERVAL_SEC", 900); err != nil {
		return nil, err
	}
	if cfg.BackoffCeiling, err = getEnvSeconds("PCPP_BACKOFF_SEC", 60); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvSeconds("PCPP_HTTP_TIMEOUT_SEC", 30); err != nil {
		return nil, err
	}
	if cfg.ProviderRPS, err = getEnvFloat("PCPP_PROVIDER_RPS", 1); err != nil {
		return nil, err
	}

	cfg.Categories, err = loadCategories(getEnv("PCPP_CATEGORIES", ""), getEnv("PCPP_CATEGORIES_FILE", ""))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the worker cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return &Error{Key: "DATABASE_URL", Reason: "not set"}
	}
	switch c.DatabaseDriver {
	case "mysql", "postgres":
	default:
		return &Error{Key: "DATABASE_DRIVER", Reason: fmt.Sprintf("unsupported driver %q", c.DatabaseDriver)}
	}
	if c.Interval <= 0 {
		return &Error{Key: "PCPP_INTERVAL_SEC", Reason: "must be positive"}
	}
	if c.BackoffCeiling <= 0 {
		return &Error{Key: "PCPP_BACKOFF_SEC", Reason: "must be positive"}
	}
	if len(c.Categories) == 0 {
		return &Error{Key: "PCPP_CATEGORIES", Reason: "no categories configured"}
	}
	switch c.Provider {
	case "http":
		if c.ProviderURL == "" {
			return &Error{Key: "PCPP_PROVIDER_URL", Reason: "required for the http provider"}
		}
	case "file":
		if c.ProviderFile == "" {
			return &Error{Key: "PCPP_PROVIDER_FILE", Reason: "required for the file provider"}
		}
	default:
		return &Error{Key: "PCPP_PROVIDER", Reason: fmt.Sprintf("unsupported provider %q", c.Provider)}
	}
	return nil
}

// CategoryIDs returns the configured categories in ingest order.
func (c *Config) CategoryIDs() []catalog.Category {
	ids := make([]catalog.Category, 0, len(c.Categories))
	for _, e := range c.Categories {
		ids = append(ids, e.Category)
	}
	return ids
}

type categoryFile struct {
	Categories []struct {
		ID          string `yaml:"id"`
		ExternalKey string `yaml:"external_key"`
		URL         string `yaml:"url"`
	} `yaml:"categories"`
}

// loadCategories builds the ingest list. The selection and order come from
// PCPP_CATEGORIES, else from the file, else catalog.All. The file may
// override the upstream key and page URL per category.
func loadCategories(list, file string) ([]catalog.Entry, error) {
	overrides := make(map[catalog.Category]catalog.Entry)
	var fileOrder []catalog.Category

	if file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, &Error{Key: "PCPP_CATEGORIES_FILE", Reason: err.Error()}
		}
		var cf categoryFile
		if err := yaml.Unmarshal(raw, &cf); err != nil {
			return nil, &Error{Key: "PCPP_CATEGORIES_FILE", Reason: err.Error()}
		}
		for _, fc := range cf.Categories {
			c, err := catalog.Parse(fc.ID)
			if err != nil {
				return nil, &Error{Key: "PCPP_CATEGORIES_FILE", Reason: err.Error()}
			}
			e := catalog.DefaultEntry(c)
			if fc.ExternalKey != "" {
				e.ExternalKey = fc.ExternalKey
			}
			if fc.URL != "" {
				e.PageURL = fc.URL
			}
			if _, dup := overrides[c]; !dup {
				fileOrder = append(fileOrder, c)
			}
			overrides[c] = e
		}
	}

	order := catalog.All
	if list != "" {
		parsed, err := catalog.ParseList(list)
		if err != nil {
			return nil, &Error{Key: "PCPP_CATEGORIES", Reason: err.Error()}
		}
		order = parsed
	} else if len(fileOrder) > 0 {
		order = fileOrder
	}

	entries := make([]catalog.Entry, 0, len(order))
	for _, c := range order {
		if e, ok := overrides[c]; ok {
			entries = append(entries, e)
			continue
		}
		entries = append(entries, catalog.DefaultEntry(c))
	}
	return entries, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(getEnv(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvSeconds(key string, defaultValue int) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return time.Duration(defaultValue) * time.Second, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &Error{Key: key, Reason: fmt.Sprintf("invalid integer %q", v)}
	}
	return time.Duration(n) * time.Second, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &Error{Key: key, Reason: fmt.Sprintf("invalid number %q", v)}
	}
	return f, nil
}
