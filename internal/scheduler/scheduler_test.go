package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/pg-manager-backend/internal/common/config"
	"github.com/dumeirei/pg-manager-backend/internal/common/database"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
	billingService "github.com/dumeirei/pg-manager-backend/internal/service/billing"
)

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler()
	var runs, failures int32

	s.AddTask("counter", time.Hour, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	s.AddTask("failing", time.Hour, func(ctx context.Context) error {
		atomic.AddInt32(&failures, 1)
		return errors.New("boom")
	})
	s.AddTask("panicking", time.Hour, func(ctx context.Context) error {
		panic("unexpected")
	})
	require.Len(t, s.Tasks(), 3)

	s.Start()
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1 && atomic.LoadInt32(&failures) == 1
	}, time.Second, 10*time.Millisecond)
	s.Stop()
}

func TestScheduler_Ticks(t *testing.T) {
	s := NewScheduler()
	var runs int32
	s.AddTask("fast", 10*time.Millisecond, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func newTestJobs(t *testing.T) (*Jobs, *prometheus.Registry) {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.NewGormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	svc := billingService.NewBillingService(
		db,
		repository.NewBillRepository(db),
		repository.NewTenantRepository(db),
		nil,
		config.PaymentConfig{},
		config.BillingConfig{},
		m,
	)
	return NewJobs(svc, m), reg
}

func TestJobs_RecordRuns(t *testing.T) {
	jobs, reg := newTestJobs(t)
	ctx := context.Background()

	generated, err := jobs.GenerateBills(ctx)
	require.NoError(t, err)
	assert.Zero(t, generated.Generated)

	overdue, err := jobs.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, overdue.Marked)

	reminders, err := jobs.SendReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, reminders.Sent)

	count, err := testutil.GatherAndCount(reg, "test_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestJobs_Register(t *testing.T) {
	jobs, _ := newTestJobs(t)
	s := NewScheduler()
	jobs.Register(s, time.Minute)

	names := make([]string, 0, len(s.Tasks()))
	for _, task := range s.Tasks() {
		names = append(names, task.Name)
		assert.Equal(t, time.Minute, task.Interval)
	}
	assert.Equal(t, []string{
		billingService.JobGenerateBills,
		billingService.JobMarkOverdue,
		billingService.JobSendReminders,
	}, names)
}
