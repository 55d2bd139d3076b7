package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Storage and geo index backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type Config struct {
	HTTPPort string
	LogLevel slog.Level

	Store      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	Geo            string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	KafkaHost             string
	KafkaOrderStatusTopic string

	LeaseDuration         time.Duration
	MaxAssignmentAttempts int
	AssignmentRadiusKm    float64
	RadiusGrowthKm        float64
	MaxRadiusKm           float64
	LocationMaxAge        time.Duration
	RetryIdleAfter        time.Duration
	BatchSize             int

	LeaseSweepSchedule   string
	PendingRetrySchedule string
	ReconcileSchedule    string
	JobTimeout           time.Duration
}

// LoadConfig reads configuration in order: .env (if present), environment,
// then command-line flags in args.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn(".env not loaded", "error", err)
	}

	policy := commands.DefaultPolicy()
	schedules := jobs.DefaultSchedules()
	env := &environment{}

	cfg := Config{
		HTTPPort: env.string("HTTP_PORT", "8080"),
		LogLevel: env.level("LOG_LEVEL", slog.LevelInfo),

		Store:      env.string("STORE", BackendPostgres),
		DBHost:     env.string("DB_HOST", "localhost"),
		DBPort:     env.string("DB_PORT", "5432"),
		DBUser:     env.string("DB_USER", "postgres"),
		DBPassword: env.string("DB_PASSWORD", ""),
		DBName:     env.string("DB_NAME", "dispatch"),
		DBSslMode:  env.string("DB_SSLMODE", "disable"),

		Geo:            env.string("GEO", BackendRedis),
		RedisAddr:      env.string("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  env.string("REDIS_PASSWORD", ""),
		RedisDB:        env.int("REDIS_DB", 0),
		RedisKeyPrefix: env.string("REDIS_KEY_PREFIX", "dispatch:"),

		KafkaHost:             env.string("KAFKA_HOST", ""),
		KafkaOrderStatusTopic: env.string("KAFKA_ORDER_STATUS_TOPIC", "order.assignment.status"),

		LeaseDuration:         env.duration("LEASE_DURATION", policy.LeaseDuration),
		MaxAssignmentAttempts: env.int("MAX_ASSIGNMENT_ATTEMPTS", policy.DefaultMaxAttempts),
		AssignmentRadiusKm:    env.float("ASSIGNMENT_RADIUS_KM", policy.DefaultRadiusKm),
		RadiusGrowthKm:        env.float("RADIUS_GROWTH_KM", policy.RadiusGrowthKm),
		MaxRadiusKm:           env.float("MAX_RADIUS_KM", policy.MaxRadiusKm),
		LocationMaxAge:        env.duration("LOCATION_MAX_AGE", policy.LocationMaxAge),
		RetryIdleAfter:        env.duration("RETRY_IDLE_AFTER", policy.RetryIdleAfter),
		BatchSize:             env.int("BATCH_SIZE", policy.BatchSize),

		LeaseSweepSchedule:   env.string("LEASE_SWEEP_SCHEDULE", schedules.LeaseSweep),
		PendingRetrySchedule: env.string("PENDING_RETRY_SCHEDULE", schedules.PendingRetry),
		ReconcileSchedule:    env.string("RECONCILE_SCHEDULE", schedules.Reconcile),
		JobTimeout:           env.duration("JOB_TIMEOUT", schedules.RunTimeout),
	}
	if env.err != nil {
		return Config{}, env.err
	}

	flags := pflag.NewFlagSet("dispatch", pflag.ContinueOnError)
	flags.StringVarP(&cfg.HTTPPort, "port", "p", cfg.HTTPPort, "HTTP port to listen on")
	flags.StringVar(&cfg.Store, "store", cfg.Store, "assignment store backend: postgres or memory")
	flags.StringVar(&cfg.Geo, "geo", cfg.Geo, "geo index backend: redis or memory")
	flags.StringVar(&cfg.KafkaHost, "kafka", cfg.KafkaHost, "comma-separated Kafka brokers; empty logs events instead")
	flags.DurationVar(&cfg.LeaseDuration, "lease", cfg.LeaseDuration, "acceptance window of a reserved partner")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names, the port and the engine policy.
func (c Config) Validate() error {
	var errList []error
	if port, err := strconv.Atoi(c.HTTPPort); err != nil || port <= 0 || port > 65535 {
		errList = append(errList, errs.NewValueIsInvalidError("HTTP_PORT"))
	}
	if c.Store != BackendPostgres && c.Store != BackendMemory {
		errList = append(errList, errs.NewValueIsInvalidError("STORE"))
	}
	if c.Geo != BackendRedis && c.Geo != BackendMemory {
		errList = append(errList, errs.NewValueIsInvalidError("GEO"))
	}
	if c.KafkaHost != "" && c.KafkaOrderStatusTopic == "" {
		errList = append(errList, errs.NewValueIsRequiredErrorWithCause("KAFKA_ORDER_STATUS_TOPIC",
			fmt.Errorf("KAFKA_HOST is set to %q", c.KafkaHost)))
	}
	errList = append(errList, c.Policy().Validate())
	return errors.Join(errList...)
}

// Policy returns the engine policy described by the configuration.
func (c Config) Policy() commands.Policy {
	policy := commands.DefaultPolicy()
	policy.LeaseDuration = c.LeaseDuration
	policy.DefaultMaxAttempts = c.MaxAssignmentAttempts
	policy.DefaultRadiusKm = c.AssignmentRadiusKm
	policy.RadiusGrowthKm = c.RadiusGrowthKm
	policy.MaxRadiusKm = c.MaxRadiusKm
	policy.LocationMaxAge = c.LocationMaxAge
	policy.RetryIdleAfter = c.RetryIdleAfter
	policy.BatchSize = c.BatchSize
	return policy
}

// Schedules returns the background job schedules.
func (c Config) Schedules() jobs.Schedules {
	return jobs.Schedules{
		LeaseSweep:   c.LeaseSweepSchedule,
		PendingRetry: c.PendingRetrySchedule,
		Reconcile:    c.ReconcileSchedule,
		RunTimeout:   c.JobTimeout,
	}
}

// DSN returns the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// KafkaBrokers splits KafkaHost into broker addresses.
func (c Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaHost, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// environment reads typed variables and keeps every parse error.
type environment struct {
	err error
}

func (e *environment) string(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *environment) int(key string, def int) int {
	raw := e.string(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

func (e *environment) float(key string, def float64) float64 {
	raw := e.string(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

func (e *environment) duration(key string, def time.Duration) time.Duration {
	raw := e.string(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return v
}

func (e *environment) level(key string, def slog.Level) slog.Level {
	raw := e.string(key, "")
	if raw == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(raw)); err != nil {
		e.fail(key, err)
		return def
	}
	return l
}

func (e *environment) fail(key string, err error) {
	e.err = errors.Join(e.err, errs.NewValueIsInvalidErrorWithCause(key, err))
}
