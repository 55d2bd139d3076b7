package cmd_test

import (
	"log/slog"
	"testing"
	"time"

	"dispatch/cmd"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"HTTP_PORT", "LOG_LEVEL", "STORE", "GEO", "DB_HOST", "KAFKA_HOST", "KAFKA_ORDER_STATUS_TOPIC",
	"LEASE_DURATION", "MAX_ASSIGNMENT_ATTEMPTS", "ASSIGNMENT_RADIUS_KM", "RADIUS_GROWTH_KM",
	"MAX_RADIUS_KM", "LOCATION_MAX_AGE", "RETRY_IDLE_AFTER", "BATCH_SIZE",
	"LEASE_SWEEP_SCHEDULE", "PENDING_RETRY_SCHEDULE", "RECONCILE_SCHEDULE", "JOB_TIMEOUT", "REDIS_DB",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := cmd.LoadConfig(nil)

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, cmd.BackendPostgres, cfg.Store)
	assert.Equal(t, cmd.BackendRedis, cfg.Geo)
	assert.Empty(t, cfg.KafkaBrokers())

	policy := cfg.Policy()
	assert.Equal(t, 30*time.Second, policy.LeaseDuration)
	assert.Equal(t, 3, policy.DefaultMaxAttempts)
	assert.InDelta(t, 5.0, policy.DefaultRadiusKm, 0)
	assert.True(t, policy.ExcludeRejected)

	schedules := cfg.Schedules()
	assert.Equal(t, "*/2 * * * * *", schedules.LeaseSweep)
	assert.Equal(t, "0 * * * * *", schedules.Reconcile)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE", "memory")
	t.Setenv("KAFKA_HOST", "kafka-1:9092, kafka-2:9092")
	t.Setenv("LEASE_DURATION", "45s")
	t.Setenv("MAX_ASSIGNMENT_ATTEMPTS", "5")
	t.Setenv("RADIUS_GROWTH_KM", "2.5")
	t.Setenv("LEASE_SWEEP_SCHEDULE", "* * * * * *")

	cfg, err := cmd.LoadConfig(nil)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, cmd.BackendMemory, cfg.Store)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers())
	assert.Equal(t, 45*time.Second, cfg.Policy().LeaseDuration)
	assert.Equal(t, 5, cfg.Policy().DefaultMaxAttempts)
	assert.InDelta(t, 2.5, cfg.Policy().RadiusGrowthKm, 0)
	assert.Equal(t, "* * * * * *", cfg.Schedules().LeaseSweep)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := cmd.LoadConfig([]string{"-p", "7070", "--store", "memory", "--geo", "memory", "--lease", "1m"})

	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.Equal(t, cmd.BackendMemory, cfg.Store)
	assert.Equal(t, cmd.BackendMemory, cfg.Geo)
	assert.Equal(t, time.Minute, cfg.LeaseDuration)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "unparsable duration", env: map[string]string{"LEASE_DURATION": "soon"}},
		{name: "unparsable int", env: map[string]string{"BATCH_SIZE": "many"}},
		{name: "unknown store", env: map[string]string{"STORE": "mongo"}},
		{name: "port out of range", env: map[string]string{"HTTP_PORT": "70000"}},
		{name: "zero attempts", env: map[string]string{"MAX_ASSIGNMENT_ATTEMPTS": "0"}},
		{name: "unknown flag", args: []string{"--nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := cmd.LoadConfig(tt.args)

			require.Error(t, err)
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	cfg, err := cmd.LoadConfig(nil)
	require.NoError(t, err)

	cfg.Store = "mongo"
	cfg.Geo = "s2"
	cfg.BatchSize = 0
	err = cfg.Validate()

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.Contains(t, err.Error(), "STORE")
	assert.Contains(t, err.Error(), "GEO")
	assert.Contains(t, err.Error(), "batchSize")
}

func TestConfig_KafkaHostRequiresTopic(t *testing.T) {
	clearEnv(t)
	cfg, err := cmd.LoadConfig(nil)
	require.NoError(t, err)

	cfg.KafkaHost = "kafka:9092"
	cfg.KafkaOrderStatusTopic = ""
	err = cfg.Validate()

	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	var required *errs.ValueIsRequiredError
	require.ErrorAs(t, err, &required)
	assert.Equal(t, "KAFKA_ORDER_STATUS_TOPIC", required.ParamName)
	require.Error(t, required.Cause)
	assert.Contains(t, required.Cause.Error(), "kafka:9092")
}

func TestConfig_DSN(t *testing.T) {
	cfg := cmd.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "dispatch", DBSslMode: "disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=dispatch sslmode=disable", cfg.DSN())
}
