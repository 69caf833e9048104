package billing

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/common/tracing"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/service/notification"
)

// 任务名
const (
	JobGenerateBills = "generate_bills"
	JobMarkOverdue   = "mark_overdue"
	JobSendReminders = "send_reminders"
)

// GenerateResult 月度账单生成结果
type GenerateResult struct {
	BillingMonth string   `json:"billing_month"`
	Processed    int      `json:"processed"`
	Generated    int      `json:"generated"`
	Skipped      int      `json:"skipped"`
	BillIDs      []int64  `json:"bill_ids"`
	Errors       []string `json:"errors"`
}

// OverdueResult 逾期标记结果
type OverdueResult struct {
	Checked int      `json:"checked"`
	Marked  int      `json:"marked"`
	BillIDs []int64  `json:"bill_ids"`
	Errors  []string `json:"errors"`
}

// ReminderResult 到期提醒结果
type ReminderResult struct {
	Checked   int                      `json:"checked"`
	Sent      int                      `json:"sent"`
	Reminders []*notification.Reminder `json:"reminders"`
	Errors    []string                 `json:"errors"`
}

// GenerateMonthlyBills 为每个在住且有床位的租客生成当月房租账单
// 同一租客同一月份只会存在一张账单，重复执行计为跳过
func (s *BillingService) GenerateMonthlyBills(ctx context.Context) (*GenerateResult, error) {
	ctx, span := tracing.StartSpan(ctx, "billing.GenerateMonthlyBills", tracing.WithJob(JobGenerateBills))
	defer span.End()

	now := s.now()
	month := utils.FirstDayOfMonth(now)
	dueDate := utils.AddDays(month, s.dueDays)
	result := &GenerateResult{
		BillingMonth: utils.FormatMonth(month),
		BillIDs:      make([]int64, 0),
		Errors:       make([]string, 0),
	}

	tenants, err := s.tenantRepo.ListActiveWithBed(ctx)
	if err != nil {
		tracing.SetError(span, err)
		return nil, wrapDBError(err)
	}

	for _, tenant := range tenants {
		result.Processed++

		if tenant.Bed == nil || tenant.Bed.Room == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("tenant %d: bed or room not found", tenant.ID))
			continue
		}
		rent := tenant.Bed.Room.MonthlyRent
		propertyID := tenant.Bed.Room.PropertyID

		exists, err := s.billRepo.ExistsForMonth(ctx, tenant.ID, month)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("tenant %d: %v", tenant.ID, err))
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		sentAt := now
		bill := &models.Bill{
			BillNo:       utils.GenerateNo("BILL"),
			TenantID:     tenant.ID,
			PropertyID:   &propertyID,
			BillingMonth: month,
			DueDate:      dueDate,
			Status:       models.BillStatusSent,
			TotalAmount:  rent,
			SentAt:       &sentAt,
			LineItems: []models.BillLineItem{{
				Type:        models.LineItemTypeRent,
				Description: "Monthly rent " + month.Format("Jan 2006"),
				Amount:      rent,
			}},
		}
		if err := s.billRepo.Create(ctx, nil, bill); err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("tenant %d: %v", tenant.ID, err))
			continue
		}

		result.Generated++
		result.BillIDs = append(result.BillIDs, bill.ID)
	}

	s.metrics.RecordJobItems(JobGenerateBills, "generated", result.Generated)
	s.metrics.RecordJobItems(JobGenerateBills, "skipped", result.Skipped)
	s.metrics.RecordJobItems(JobGenerateBills, "failed", len(result.Errors))
	logger.Info("Monthly bills generated",
		logger.Job(JobGenerateBills),
		zap.String("billing_month", result.BillingMonth),
		zap.Int("processed", result.Processed),
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// MarkOverdue 将已过到期日的 SENT/PARTIAL 账单标记为 OVERDUE
func (s *BillingService) MarkOverdue(ctx context.Context) (*OverdueResult, error) {
	ctx, span := tracing.StartSpan(ctx, "billing.MarkOverdue", tracing.WithJob(JobMarkOverdue))
	defer span.End()

	today := utils.DateOnly(s.now())
	result := &OverdueResult{
		BillIDs: make([]int64, 0),
		Errors:  make([]string, 0),
	}

	bills, err := s.billRepo.ListOverdueCandidates(ctx, today)
	if err != nil {
		tracing.SetError(span, err)
		return nil, wrapDBError(err)
	}

	for _, bill := range bills {
		result.Checked++
		updated, err := s.billRepo.MarkOverdue(ctx, bill.ID, today)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("bill %s: %v", bill.BillNo, err))
			continue
		}
		if updated {
			result.Marked++
			result.BillIDs = append(result.BillIDs, bill.ID)
		}
	}

	s.metrics.RecordJobItems(JobMarkOverdue, "marked", result.Marked)
	s.metrics.RecordJobItems(JobMarkOverdue, "failed", len(result.Errors))
	logger.Info("Overdue bills marked",
		logger.Job(JobMarkOverdue),
		zap.Int("checked", result.Checked),
		zap.Int("marked", result.Marked),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// SendReminders 对未来 reminder_days 天内到期的未结账单发送提醒
func (s *BillingService) SendReminders(ctx context.Context) (*ReminderResult, error) {
	ctx, span := tracing.StartSpan(ctx, "billing.SendReminders", tracing.WithJob(JobSendReminders))
	defer span.End()

	now := s.now()
	today := utils.DateOnly(now)
	result := &ReminderResult{
		Reminders: make([]*notification.Reminder, 0),
		Errors:    make([]string, 0),
	}

	bills, err := s.billRepo.ListDueBetween(ctx, today, utils.AddDays(today, s.reminderDays))
	if err != nil {
		tracing.SetError(span, err)
		return nil, wrapDBError(err)
	}

	for _, bill := range bills {
		result.Checked++

		reminder := s.buildReminder(bill, now)
		if err := s.notifier.SendReminder(ctx, reminder); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("bill %s: %v", bill.BillNo, err))
			continue
		}
		result.Sent++
		result.Reminders = append(result.Reminders, reminder)
	}

	s.metrics.RecordJobItems(JobSendReminders, "sent", result.Sent)
	s.metrics.RecordJobItems(JobSendReminders, "failed", len(result.Errors))
	logger.Info("Bill reminders sent",
		logger.Job(JobSendReminders),
		zap.String("channel", s.notifier.Channel()),
		zap.Int("checked", result.Checked),
		zap.Int("sent", result.Sent),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *BillingService) buildReminder(bill *models.Bill, now time.Time) *notification.Reminder {
	r := &notification.Reminder{
		BillID:       bill.ID,
		BillNo:       bill.BillNo,
		TenantID:     bill.TenantID,
		Balance:      bill.Balance(),
		DueDate:      bill.DueDate.UTC(),
		DaysUntilDue: utils.DaysUntil(bill.DueDate, now),
	}
	if bill.Tenant != nil && bill.Tenant.User != nil {
		r.TenantName = bill.Tenant.User.Name
		r.Phone = utils.SafeString(bill.Tenant.User.Phone)
	}
	return r
}
