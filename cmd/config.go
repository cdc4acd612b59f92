package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

type Config struct {
	HTTPPort    string
	Environment string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	StorageBackend string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSslMode      string

	LeaseBackend string
	RedisAddr    string
	RedisDB      int
	LeaseTTL     time.Duration
	LeaseWait    time.Duration

	OracleURL        string
	OracleAPIKey     string
	OracleProfile    string
	OracleTimeout    time.Duration
	FallbackSpeedKmh float64

	DepotLat         float64
	DepotLon         float64
	ShiftStart       time.Duration
	ServiceTime      time.Duration
	MaxStopsPerRoute int
	MultiRoutePerDay bool
	TwoOptEnabled    bool
	ZoneCellDegrees  float64

	CashToleranceMinor int64

	RateLimitRPS   float64
	RateLimitBurst int

	LeaseSweepSchedule       string
	DiscrepancyAuditSchedule string
}

// DSN is the PostgreSQL connection string for gorm.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) Validate() error {
	var problems []error
	switch c.StorageBackend {
	case BackendPostgres, BackendMemory:
	default:
		problems = append(problems, fmt.Errorf("STORAGE_BACKEND must be %s or %s, got %q", BackendPostgres, BackendMemory, c.StorageBackend))
	}
	switch c.LeaseBackend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		problems = append(problems, fmt.Errorf("LEASE_BACKEND must be %s, %s or %s, got %q", BackendPostgres, BackendRedis, BackendMemory, c.LeaseBackend))
	}
	if c.LeaseBackend == BackendPostgres && c.StorageBackend != BackendPostgres {
		problems = append(problems, errors.New("LEASE_BACKEND=postgres needs STORAGE_BACKEND=postgres"))
	}
	if c.LeaseTTL <= 0 {
		problems = append(problems, errors.New("LEASE_TTL must be positive"))
	}
	if c.MaxStopsPerRoute < 0 {
		problems = append(problems, errors.New("MAX_STOPS_PER_ROUTE cannot be negative"))
	}
	if c.CashToleranceMinor < 0 {
		problems = append(problems, errors.New("CASH_TOLERANCE_MINOR cannot be negative"))
	}
	return errors.Join(problems...)
}

// LoadConfig reads .env from the working directory when present and lets real
// environment variables override it.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := Config{
		HTTPPort:    v.GetString("HTTP_PORT"),
		Environment: v.GetString("ENVIRONMENT"),

		LogLevel:      v.GetString("LOG_LEVEL"),
		LogFile:       v.GetString("LOG_FILE"),
		LogMaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		LogMaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		LogMaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),

		StorageBackend: strings.ToLower(v.GetString("STORAGE_BACKEND")),
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetString("DB_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBSslMode:      v.GetString("DB_SSLMODE"),

		LeaseBackend: strings.ToLower(v.GetString("LEASE_BACKEND")),
		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisDB:      v.GetInt("REDIS_DB"),
		LeaseTTL:     v.GetDuration("LEASE_TTL"),
		LeaseWait:    v.GetDuration("LEASE_WAIT"),

		OracleURL:        v.GetString("ORACLE_URL"),
		OracleAPIKey:     v.GetString("ORACLE_API_KEY"),
		OracleProfile:    v.GetString("ORACLE_PROFILE"),
		OracleTimeout:    v.GetDuration("ORACLE_TIMEOUT"),
		FallbackSpeedKmh: v.GetFloat64("FALLBACK_SPEED_KMH"),

		DepotLat:         v.GetFloat64("DEPOT_LAT"),
		DepotLon:         v.GetFloat64("DEPOT_LON"),
		ShiftStart:       v.GetDuration("SHIFT_START"),
		ServiceTime:      v.GetDuration("SERVICE_TIME"),
		MaxStopsPerRoute: v.GetInt("MAX_STOPS_PER_ROUTE"),
		MultiRoutePerDay: v.GetBool("MULTI_ROUTE_PER_DAY"),
		TwoOptEnabled:    v.GetBool("TWO_OPT_ENABLED"),
		ZoneCellDegrees:  v.GetFloat64("ZONE_CELL_DEGREES"),

		CashToleranceMinor: v.GetInt64("CASH_TOLERANCE_MINOR"),

		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),

		LeaseSweepSchedule:       v.GetString("LEASE_SWEEP_SCHEDULE"),
		DiscrepancyAuditSchedule: v.GetString("DISCREPANCY_AUDIT_SCHEDULE"),
	}

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	v.SetDefault("STORAGE_BACKEND", BackendPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "dispatch")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("LEASE_BACKEND", BackendPostgres)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("LEASE_TTL", "2m")
	v.SetDefault("LEASE_WAIT", "10s")

	v.SetDefault("ORACLE_TIMEOUT", "5s")
	v.SetDefault("FALLBACK_SPEED_KMH", 30)

	v.SetDefault("SHIFT_START", "8h")
	v.SetDefault("SERVICE_TIME", "5m")
	v.SetDefault("MAX_STOPS_PER_ROUTE", 25)
	v.SetDefault("MULTI_ROUTE_PER_DAY", false)
	v.SetDefault("TWO_OPT_ENABLED", false)
	v.SetDefault("ZONE_CELL_DEGREES", 0.05)

	v.SetDefault("CASH_TOLERANCE_MINOR", 100)

	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	v.SetDefault("LEASE_SWEEP_SCHEDULE", "@every 1m")
	v.SetDefault("DISCREPANCY_AUDIT_SCHEDULE", "15 0 * * *")
}
