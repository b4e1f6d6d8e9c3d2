package db

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-backend/internal/shared/telemetry"
)

// useMockDriver routes openDB to a sqlmock connection registered under dsn.
func useMockDriver(t *testing.T, dsn string, monitorPings bool) sqlmock.Sqlmock {
	t.Helper()
	conn, mock, err := sqlmock.NewWithDSN(dsn, sqlmock.MonitorPingsOption(monitorPings))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	prev := openDB
	openDB = func(_, dsn string) (*sql.DB, error) {
		return sql.Open("sqlmock", dsn)
	}
	t.Cleanup(func() { openDB = prev })
	return mock
}

func resetSingleton(t *testing.T) {
	t.Helper()
	singletonMu.Lock()
	singletonDB = nil
	singletonInFly = false
	singletonMu.Unlock()
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", DefaultServerOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestConnectAppliesPoolOptionsAndLogs(t *testing.T) {
	useMockDriver(t, "connect-ok", false)
	var buf bytes.Buffer
	defer telemetry.SetOutput(&buf)()

	conn, err := Connect(context.Background(), "connect-ok", Options{MaxOpenConns: 3, MaxIdleConns: 1})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, 3, conn.Stats().MaxOpenConnections)
	assert.Contains(t, buf.String(), `"msg":"db.init"`)
	assert.Contains(t, buf.String(), `"max_open":3`)
}

func TestConnectFailsWhenPingFails(t *testing.T) {
	mock := useMockDriver(t, "connect-down", true)
	mock.ExpectPing().WillReturnError(errors.New("refused"))

	_, err := Connect(context.Background(), "connect-down", DefaultMigrateOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}

func TestOptionsFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Options
		warn bool
	}{
		{
			name: "defaults kept",
			want: DefaultServerOptions(),
		},
		{
			name: "all overrides",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":     "7",
				"DB_MAX_IDLE_CONNS":     "3",
				"DB_CONN_MAX_LIFETIME":  "20m",
				"DB_CONN_MAX_IDLE_TIME": "45s",
				"DB_PING_TIMEOUT":       "1s",
			},
			want: Options{
				MaxOpenConns:    7,
				MaxIdleConns:    3,
				ConnMaxLifetime: 20 * time.Minute,
				ConnMaxIdleTime: 45 * time.Second,
				PingTimeout:     time.Second,
			},
		},
		{
			name: "malformed values ignored",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS": "lots",
				"DB_PING_TIMEOUT":   "soon",
			},
			want: DefaultServerOptions(),
			warn: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME", "DB_PING_TIMEOUT"} {
				t.Setenv(key, tc.env[key])
			}
			var buf bytes.Buffer
			restore := telemetry.SetOutput(&buf)
			got := OptionsFromEnv(DefaultServerOptions())
			restore()

			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.warn, strings.Contains(buf.String(), "db.env.invalid"))
		})
	}
}

func TestLambdaRuntimeDetection(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	assert.False(t, IsLambdaRuntime())
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "notes-worker")
	assert.True(t, IsLambdaRuntime())
}

func TestGetSingletonReusesConnection(t *testing.T) {
	useMockDriver(t, "singleton-reuse", false)
	resetSingleton(t)
	t.Cleanup(func() { resetSingleton(t) })

	first, err := GetSingleton(context.Background(), "singleton-reuse", DefaultLambdaOptions())
	require.NoError(t, err)
	second, err := GetSingleton(context.Background(), "singleton-reuse", DefaultLambdaOptions())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	useMockDriver(t, "singleton-retry", false)
	resetSingleton(t)
	t.Cleanup(func() { resetSingleton(t) })

	var calls atomic.Int32
	mocked := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if calls.Add(1) == 1 {
			return nil, driver.ErrBadConn
		}
		return mocked(name, dsn)
	}

	_, err := GetSingleton(context.Background(), "singleton-retry", DefaultLambdaOptions())
	require.Error(t, err)

	conn, err := GetSingleton(context.Background(), "singleton-retry", DefaultLambdaOptions())
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.EqualValues(t, 2, calls.Load())
}
