package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newTestDBMetrics(t *testing.T, cfg DBMetricsConfig) (*DBMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewDBMetrics(provider.Meter("db.client"), cfg, zap.NewNop())
	require.NoError(t, err)
	return m, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func int64Sum(m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return -1
	}
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	m, reader := newTestDBMetrics(t, DBMetricsConfig{SlowQueryThreshold: 50 * time.Millisecond})
	ctx := context.Background()

	m.RecordQuery(ctx, "update", "register_sequences", time.Millisecond)
	m.RecordQuery(ctx, "UPDATE", "register_sequences", 100*time.Millisecond)
	m.RecordQuery(ctx, "", "", 100*time.Millisecond)

	metrics := collectMetrics(t, reader)
	assert.Equal(t, int64(2), int64Sum(metrics["db_query_total"], AttrDBOperation.String("UPDATE")))
	assert.Equal(t, int64(1), int64Sum(metrics["db_query_total"], AttrDBOperation.String("UNKNOWN")))
	assert.Equal(t, int64(1), int64Sum(metrics["db_slow_query_total"], AttrDBTable.String("register_sequences")))
	assert.Equal(t, int64(1), int64Sum(metrics["db_slow_query_total"], AttrDBTable.String("unknown")))
}

func TestDBMetrics_PoolStats(t *testing.T) {
	m, reader := newTestDBMetrics(t, DBMetricsConfig{PoolStatsInterval: time.Hour})

	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	sqlDB.SetMaxOpenConns(12)

	m.StartPoolStatsCollection(context.Background(), sqlDB)
	defer m.Stop()

	require.Eventually(t, func() bool {
		g, ok := collectMetrics(t, reader)["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
		return ok && len(g.DataPoints) == 1 && g.DataPoints[0].Value == 12
	}, time.Second, 10*time.Millisecond)
}

func TestDBMetrics_StopIdempotent(t *testing.T) {
	m, _ := newTestDBMetrics(t, DefaultDBMetricsConfig())
	m.StartPoolStatsCollection(context.Background(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Stop()
		}()
	}
	wg.Wait()
}

func TestDBMetricsPlugin_RecordsStatements(t *testing.T) {
	m, reader := newTestDBMetrics(t, DefaultDBMetricsConfig())
	db := setupTestDB(t)

	plugin := NewDBMetricsPlugin(m)
	assert.Equal(t, "db_metrics", plugin.Name())
	require.NoError(t, db.Use(plugin))

	require.NoError(t, db.Create(&counterRow{Code: "01"}).Error)
	var rows []counterRow
	require.NoError(t, db.Find(&rows).Error)
	require.NoError(t, db.Exec("UPDATE counter_rows SET value = value + 1").Error)

	metrics := collectMetrics(t, reader)
	assert.Equal(t, int64(1), int64Sum(metrics["db_query_total"], AttrDBOperation.String("INSERT")))
	assert.Equal(t, int64(1), int64Sum(metrics["db_query_total"], AttrDBOperation.String("SELECT")))
	assert.Equal(t, int64(1), int64Sum(metrics["db_query_total"], AttrDBOperation.String("UPDATE")))
}

func TestDetectOperationType(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM registers":                          "SELECT",
		"  insert into register_sequences values (1)":      "INSERT",
		"UPDATE register_sequences SET value = value + 1":  "UPDATE",
		"delete from classification_overrides":             "DELETE",
		"WITH x AS (SELECT 1) SELECT * FROM x":             "OTHER",
		"":                                                 "OTHER",
	}
	for sql, want := range tests {
		assert.Equal(t, want, detectOperationType(sql), sql)
	}
}

func TestRegisterDBMetrics_DisabledProvider(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	m, err := RegisterDBMetrics(setupTestDB(t), mp, DefaultDBMetricsConfig(), zap.NewNop())
	assert.NoError(t, err)
	assert.Nil(t, m)
}
