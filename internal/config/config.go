package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Choice is one value of a weighted categorical set.
type Choice struct {
	Value  string
	Weight float64
}

// Config holds the pipeline constants. It is built once at startup and passed
// by value into every stage.
type Config struct {
	DataDir   string
	DBPath    string
	SQLDir    string
	ReportDir string

	Seed             int64
	NumUsers         int
	NumProducts      int
	NumOrders        int
	MaxItemsPerOrder int
	// ReferenceTime anchors every "within the past N years" draw so that a
	// given seed always produces the same files.
	ReferenceTime time.Time

	PaymentMethods  []string
	Categories      []string
	LoyaltyTiers    []Choice
	OrderStatuses   []Choice
	PaymentStatuses []Choice

	LogLevel  string
	LogFormat string

	APIAddr          string
	TemporalHostPort string
	TaskQueue        string
}

const (
	defaultReferenceTime = "2025-12-31T00:00:00Z"
	envPrefix            = "ECOM"
)

// Default returns the fixed constants used when nothing overrides them.
func Default() Config {
	ref, _ := time.Parse(time.RFC3339, defaultReferenceTime)
	return Config{
		DataDir:          "data",
		DBPath:           filepath.Join("db", "ecom.db"),
		SQLDir:           "sql",
		ReportDir:        "reports",
		Seed:             42,
		NumUsers:         200,
		NumProducts:      80,
		NumOrders:        600,
		MaxItemsPerOrder: 5,
		ReferenceTime:    ref,
		PaymentMethods:   []string{"card", "upi", "cod", "net_banking"},
		Categories:       []string{"electronics", "fashion", "home", "beauty", "sports", "books"},
		LoyaltyTiers: []Choice{
			{Value: "bronze", Weight: 0.4},
			{Value: "silver", Weight: 0.3},
			{Value: "gold", Weight: 0.2},
			{Value: "platinum", Weight: 0.1},
		},
		OrderStatuses: []Choice{
			{Value: "pending", Weight: 0.2},
			{Value: "shipped", Weight: 0.4},
			{Value: "delivered", Weight: 0.35},
			{Value: "cancelled", Weight: 0.05},
		},
		PaymentStatuses: []Choice{
			{Value: "initiated", Weight: 0.1},
			{Value: "completed", Weight: 0.75},
			{Value: "failed", Weight: 0.1},
			{Value: "refunded", Weight: 0.05},
		},
		LogLevel:         "info",
		LogFormat:        "json",
		APIAddr:          ":8090",
		TemporalHostPort: "localhost:7233",
		TaskQueue:        "ecom-pipeline",
	}
}

// Load reads an optional .env file, an optional pipeline.yaml and ECOM_*
// environment variables on top of Default.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	v := viper.New()
	v.SetConfigName("pipeline")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("sql_dir", cfg.SQLDir)
	v.SetDefault("report_dir", cfg.ReportDir)
	v.SetDefault("seed", cfg.Seed)
	v.SetDefault("num_users", cfg.NumUsers)
	v.SetDefault("num_products", cfg.NumProducts)
	v.SetDefault("num_orders", cfg.NumOrders)
	v.SetDefault("max_items_per_order", cfg.MaxItemsPerOrder)
	v.SetDefault("reference_time", defaultReferenceTime)
	v.SetDefault("payment_methods", cfg.PaymentMethods)
	v.SetDefault("categories", cfg.Categories)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("api_addr", cfg.APIAddr)
	v.SetDefault("temporal_host_port", cfg.TemporalHostPort)
	v.SetDefault("task_queue", cfg.TaskQueue)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read pipeline config: %w", err)
		}
	}

	ref, err := time.Parse(time.RFC3339, v.GetString("reference_time"))
	if err != nil {
		return Config{}, fmt.Errorf("parse reference_time: %w", err)
	}

	cfg.DataDir = v.GetString("data_dir")
	cfg.DBPath = v.GetString("db_path")
	cfg.SQLDir = v.GetString("sql_dir")
	cfg.ReportDir = v.GetString("report_dir")
	cfg.Seed = v.GetInt64("seed")
	cfg.NumUsers = v.GetInt("num_users")
	cfg.NumProducts = v.GetInt("num_products")
	cfg.NumOrders = v.GetInt("num_orders")
	cfg.MaxItemsPerOrder = v.GetInt("max_items_per_order")
	cfg.ReferenceTime = ref.UTC()
	cfg.PaymentMethods = v.GetStringSlice("payment_methods")
	cfg.Categories = v.GetStringSlice("categories")
	cfg.LogLevel = v.GetString("log_level")
	cfg.LogFormat = v.GetString("log_format")
	cfg.APIAddr = v.GetString("api_addr")
	cfg.TemporalHostPort = v.GetString("temporal_host_port")
	cfg.TaskQueue = v.GetString("task_queue")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the generators cannot honour.
func (c Config) Validate() error {
	var errs []error
	if c.NumUsers < 0 || c.NumProducts < 0 || c.NumOrders < 0 {
		errs = append(errs, errors.New("entity counts must not be negative"))
	}
	if c.NumOrders > 0 && c.NumUsers == 0 {
		errs = append(errs, errors.New("orders require at least one user"))
	}
	if c.NumOrders > 0 && c.NumProducts == 0 {
		errs = append(errs, errors.New("orders require at least one product"))
	}
	if c.MaxItemsPerOrder < 1 {
		errs = append(errs, errors.New("max_items_per_order must be at least 1"))
	}
	if len(c.PaymentMethods) == 0 {
		errs = append(errs, errors.New("payment_methods cannot be empty"))
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("categories cannot be empty"))
	}
	if c.ReferenceTime.IsZero() {
		errs = append(errs, errors.New("reference_time is required"))
	}
	if !hasValue(c.OrderStatuses, "cancelled") {
		errs = append(errs, errors.New("order statuses must include cancelled"))
	}
	if !hasValue(c.PaymentStatuses, "refunded") {
		errs = append(errs, errors.New("payment statuses must include refunded"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func hasValue(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}
