package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	billingService "github.com/dumeirei/pg-manager-backend/internal/service/billing"
)

// Jobs 账单相关后台任务，供 cron 接口与进程内调度共用
type Jobs struct {
	billing *billingService.BillingService
	metrics *metrics.Metrics
}

// NewJobs 创建任务集合
func NewJobs(billingSvc *billingService.BillingService, m *metrics.Metrics) *Jobs {
	return &Jobs{billing: billingSvc, metrics: m}
}

// GenerateBills 生成当月账单
func (j *Jobs) GenerateBills(ctx context.Context) (*billingService.GenerateResult, error) {
	return track(ctx, j.metrics, billingService.JobGenerateBills, j.billing.GenerateMonthlyBills)
}

// MarkOverdue 标记逾期账单
func (j *Jobs) MarkOverdue(ctx context.Context) (*billingService.OverdueResult, error) {
	return track(ctx, j.metrics, billingService.JobMarkOverdue, j.billing.MarkOverdue)
}

// SendReminders 发送到期提醒
func (j *Jobs) SendReminders(ctx context.Context) (*billingService.ReminderResult, error) {
	return track(ctx, j.metrics, billingService.JobSendReminders, j.billing.SendReminders)
}

// Register 按同一间隔注册全部任务
func (j *Jobs) Register(s *Scheduler, interval time.Duration) {
	s.AddTask(billingService.JobGenerateBills, interval, func(ctx context.Context) error {
		_, err := j.GenerateBills(ctx)
		return err
	})
	s.AddTask(billingService.JobMarkOverdue, interval, func(ctx context.Context) error {
		_, err := j.MarkOverdue(ctx)
		return err
	})
	s.AddTask(billingService.JobSendReminders, interval, func(ctx context.Context) error {
		_, err := j.SendReminders(ctx)
		return err
	})
}

func track[T any](ctx context.Context, m *metrics.Metrics, job string, fn func(context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := fn(ctx)
	elapsed := time.Since(start)
	m.RecordJobRun(job, err != nil, elapsed)

	if err != nil {
		logger.Error("Job failed", logger.Job(job), logger.Latency(elapsed), zap.Error(err))
	} else {
		logger.Info("Job completed", logger.Job(job), logger.Latency(elapsed))
	}
	return result, err
}
