package config

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"whatsapp-notifier/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestConnectDBSQLite(t *testing.T) {
	db, err := ConnectDB(&Config{DBDriver: DriverSQLite, DBName: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.NoError(t, sqlDB.Ping())

	assert.Equal(t, time.UTC, db.NowFunc().Location())
}

func TestConnectDBUnknownDriver(t *testing.T) {
	_, err := ConnectDB(&Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestConnectDBLogsQueryErrorsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	db, err := ConnectDB(&Config{DBDriver: DriverSQLite, DBName: ":memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)

	failed := logs.FilterMessage("Database query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "gorm", failed[0].ContextMap()["component"])
	assert.Contains(t, failed[0].ContextMap()["sql"], "missing_table")
}

func TestGormLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }
	l := newGormLogger(gormlogger.Warn)

	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	l.Trace(ctx, time.Now(), query, nil)
	l.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	l.Info(ctx, "ignored %d", 1)
	l.Warn(ctx, "pool %s", "busy")
	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), query, errors.New("boom"))
	l.LogMode(gormlogger.Info).Trace(ctx, time.Now(), query, nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "Slow database query", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])

	assert.Equal(t, "pool busy", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)

	assert.Equal(t, "Database query", entries[2].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
}

func TestPerformanceLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PerformanceLogger())
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/slow", func(c *gin.Context) {
		time.Sleep(slowRequestThreshold + 20*time.Millisecond)
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fast", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))

	served := logs.FilterMessage("Request served").All()
	require.Len(t, served, 1)
	assert.Equal(t, "/fast", served[0].ContextMap()["path"])

	slow := logs.FilterMessage("Slow request").All()
	require.Len(t, slow, 1)
	assert.Equal(t, zapcore.WarnLevel, slow[0].Level)
	assert.Equal(t, "/slow", slow[0].ContextMap()["path"])
}
