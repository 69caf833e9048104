// Package billing 提供账单、收款与账单定时任务
package billing

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/config"
	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	"github.com/dumeirei/pg-manager-backend/internal/common/qrcode"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
	"github.com/dumeirei/pg-manager-backend/internal/service/notification"
)

const (
	defaultDueDays      = 5
	defaultReminderDays = 3
)

// BillingService 账单服务
type BillingService struct {
	db           *gorm.DB
	billRepo     *repository.BillRepository
	tenantRepo   *repository.TenantRepository
	notifier     notification.Notifier
	metrics      *metrics.Metrics
	qr           *qrcode.Generator
	payment      config.PaymentConfig
	dueDays      int
	reminderDays int
	now          func() time.Time
}

// NewBillingService 创建账单服务
func NewBillingService(
	db *gorm.DB,
	billRepo *repository.BillRepository,
	tenantRepo *repository.TenantRepository,
	notifier notification.Notifier,
	paymentCfg config.PaymentConfig,
	billingCfg config.BillingConfig,
	m *metrics.Metrics,
) *BillingService {
	if notifier == nil {
		notifier = notification.NewLogNotifier()
	}
	dueDays := billingCfg.DueDays
	if dueDays <= 0 {
		dueDays = defaultDueDays
	}
	reminderDays := billingCfg.ReminderDays
	if reminderDays <= 0 {
		reminderDays = defaultReminderDays
	}
	return &BillingService{
		db:           db,
		billRepo:     billRepo,
		tenantRepo:   tenantRepo,
		notifier:     notifier,
		metrics:      m,
		qr:           qrcode.NewGenerator(qrcode.WithSize(320)),
		payment:      paymentCfg,
		dueDays:      dueDays,
		reminderDays: reminderDays,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// LineItemRequest 账单明细
type LineItemRequest struct {
	Type        string          `json:"type" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateBillRequest 手工创建账单请求
type CreateBillRequest struct {
	TenantID     int64  `json:"tenant_id" binding:"required"`
	BillingMonth string `json:"billing_month" binding:"required"` // 2006-01
	// DueDate 2006-01-02，为空时取账期首日 + due_days
	DueDate   string            `json:"due_date"`
	LineItems []LineItemRequest `json:"line_items" binding:"required,min=1,dive"`
	Notes     string            `json:"notes"`
	Send      bool              `json:"send"`
}

// UpdateBillRequest 修改账单请求
type UpdateBillRequest struct {
	DueDate *string `json:"due_date"`
	// LineItems 非 nil 时整体替换明细
	LineItems []LineItemRequest `json:"line_items" binding:"omitempty,dive"`
	Notes     *string           `json:"notes"`
}

// UpdateBillStatusRequest 修改账单状态请求
type UpdateBillStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RecordPaymentRequest 登记收款请求
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"required"`
	Reference string          `json:"reference" binding:"max=100"`
	PaidAt    *time.Time      `json:"paid_at"`
}

// GetBill 获取账单详情
func (s *BillingService) GetBill(ctx context.Context, id int64) (*models.Bill, error) {
	bill, err := s.billRepo.GetByIDWithRelations(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBillNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return bill, nil
}

// GetTenantBill 获取租客本人的账单
func (s *BillingService) GetTenantBill(ctx context.Context, tenantID, billID int64) (*models.Bill, error) {
	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.TenantID != tenantID {
		return nil, errors.ErrBillNotFound
	}
	return bill, nil
}

// ListBills 获取账单列表
func (s *BillingService) ListBills(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Bill, int64, error) {
	bills, total, err := s.billRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return bills, total, nil
}

// CreateBill 手工创建账单
func (s *BillingService) CreateBill(ctx context.Context, req *CreateBillRequest) (*models.Bill, error) {
	month, err := utils.ParseMonth(req.BillingMonth)
	if err != nil {
		return nil, errors.ErrInvalidParams.WithMessage("Billing month must be in YYYY-MM format")
	}
	dueDate := utils.AddDays(month, s.dueDays)
	if req.DueDate != "" {
		if dueDate, err = parseDate(req.DueDate); err != nil {
			return nil, err
		}
	}
	items, total, err := buildLineItems(req.LineItems)
	if err != nil {
		return nil, err
	}

	tenant, err := s.tenantRepo.GetByIDWithRelations(ctx, req.TenantID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTenantNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	bill := &models.Bill{
		BillNo:       utils.GenerateNo("BILL"),
		TenantID:     req.TenantID,
		BillingMonth: month,
		DueDate:      dueDate,
		Status:       models.BillStatusDraft,
		TotalAmount:  total,
		PaidAmount:   decimal.Zero,
		Notes:        strings.TrimSpace(req.Notes),
		LineItems:    items,
	}
	if tenant.Bed != nil && tenant.Bed.Room != nil {
		propertyID := tenant.Bed.Room.PropertyID
		bill.PropertyID = &propertyID
	}
	if req.Send {
		now := s.now()
		bill.Status = models.BillStatusSent
		bill.SentAt = &now
	}

	if err := s.billRepo.Create(ctx, nil, bill); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrBillExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("Bill created", logger.BillID(bill.ID), logger.BillNo(bill.BillNo), logger.TenantID(bill.TenantID))
	return s.GetBill(ctx, bill.ID)
}

// UpdateBill 修改账单明细、到期日或备注
func (s *BillingService) UpdateBill(ctx context.Context, id int64, req *UpdateBillRequest) (*models.Bill, error) {
	updates := make(map[string]interface{})
	if req.DueDate != nil {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		updates["due_date"] = dueDate
	}
	if req.Notes != nil {
		updates["notes"] = strings.TrimSpace(*req.Notes)
	}

	var items []models.BillLineItem
	var total decimal.Decimal
	if req.LineItems != nil {
		var err error
		if items, total, err = buildLineItems(req.LineItems); err != nil {
			return nil, err
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.lockBill(ctx, tx, id)
		if err != nil {
			return err
		}
		if bill.IsClosed() {
			return errors.ErrBillStatusError
		}

		if items != nil {
			if total.LessThan(bill.PaidAmount) {
				return errors.ErrBillTotalBelowPaid
			}
			if err := tx.Where("bill_id = ?", bill.ID).Delete(&models.BillLineItem{}).Error; err != nil {
				return err
			}
			for i := range items {
				items[i].BillID = bill.ID
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
			updates["total_amount"] = total
			if bill.PaidAmount.IsPositive() && total.Equal(bill.PaidAmount) {
				updates["status"] = models.BillStatusPaid
				updates["paid_at"] = s.now()
			}
		}

		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return s.GetBill(ctx, id)
}

// SendBill 发送草稿账单
func (s *BillingService) SendBill(ctx context.Context, id int64) (*models.Bill, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.lockBill(ctx, tx, id)
		if err != nil {
			return err
		}
		if bill.Status != models.BillStatusDraft {
			return errors.ErrBillStatusError.WithMessage("Only draft bills can be sent")
		}
		return tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(map[string]interface{}{
			"status":  models.BillStatusSent,
			"sent_at": s.now(),
		}).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return s.GetBill(ctx, id)
}

// UpdateBillStatus 修改账单状态
// PAID 要求余额为 0，CANCELLED 要求未收过款
func (s *BillingService) UpdateBillStatus(ctx context.Context, id int64, req *UpdateBillStatusRequest) (*models.Bill, error) {
	if !models.IsValidBillStatus(req.Status) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid bill status")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.lockBill(ctx, tx, id)
		if err != nil {
			return err
		}
		if bill.Status == req.Status {
			return nil
		}
		if bill.IsClosed() {
			return errors.ErrBillStatusError
		}

		updates := map[string]interface{}{"status": req.Status}
		switch req.Status {
		case models.BillStatusPaid:
			if !bill.Balance().IsZero() {
				return errors.ErrBillBalanceNotZero
			}
			updates["paid_at"] = s.now()
		case models.BillStatusCancelled:
			if bill.PaidAmount.IsPositive() {
				return errors.ErrBillHasPayments
			}
		case models.BillStatusPartial:
			if !bill.PaidAmount.IsPositive() || !bill.Balance().IsPositive() {
				return errors.ErrBillStatusError
			}
		case models.BillStatusDraft:
			if bill.PaidAmount.IsPositive() {
				return errors.ErrBillStatusError
			}
			updates["sent_at"] = nil
		case models.BillStatusSent:
			if bill.SentAt == nil {
				updates["sent_at"] = s.now()
			}
		}
		return tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	logger.Info("Bill status updated", logger.BillID(id), zap.String("status", req.Status))
	return s.GetBill(ctx, id)
}

// RecordPayment 登记收款，余额为 0 时账单变为 PAID，否则为 PARTIAL
func (s *BillingService) RecordPayment(ctx context.Context, billID, adminID int64, req *RecordPaymentRequest) (*models.Bill, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if !models.HasCentPrecision(req.Amount) {
		return nil, errors.ErrAmountPrecision
	}
	if !models.IsValidPaymentMethod(req.Method) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid payment method")
	}
	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}

	var status string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bill, err := s.lockBill(ctx, tx, billID)
		if err != nil {
			return err
		}
		if bill.IsClosed() {
			return errors.ErrBillStatusError
		}
		if req.Amount.GreaterThan(bill.Balance()) {
			return errors.ErrPaymentExceedsBalance
		}

		payment := &models.Payment{
			BillID:     bill.ID,
			TenantID:   bill.TenantID,
			Amount:     req.Amount,
			Method:     req.Method,
			Reference:  strings.TrimSpace(req.Reference),
			PaidAt:     paidAt,
			RecordedBy: adminID,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		newPaid := bill.PaidAmount.Add(req.Amount)
		updates := map[string]interface{}{"paid_amount": newPaid}
		if bill.TotalAmount.Sub(newPaid).IsZero() {
			status = models.BillStatusPaid
			updates["paid_at"] = paidAt
		} else {
			status = models.BillStatusPartial
		}
		updates["status"] = status
		return tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	s.metrics.RecordPayment(req.Method)
	logger.Info("Payment recorded",
		logger.BillID(billID),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("method", req.Method),
		zap.String("status", status),
	)
	return s.GetBill(ctx, billID)
}

// DeleteBill 删除草稿或已取消账单
func (s *BillingService) DeleteBill(ctx context.Context, id int64) error {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrBillNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if bill.Status != models.BillStatusDraft && bill.Status != models.BillStatusCancelled {
		return errors.ErrBillStatusError.WithMessage("Only draft or cancelled bills can be deleted")
	}
	if err := s.billRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *BillingService) lockBill(ctx context.Context, tx *gorm.DB, id int64) (*models.Bill, error) {
	bill, err := s.billRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBillNotFound
		}
		return nil, err
	}
	return bill, nil
}

func buildLineItems(reqs []LineItemRequest) ([]models.BillLineItem, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, errors.ErrInvalidParams.WithMessage("At least one line item is required")
	}
	total := decimal.Zero
	items := make([]models.BillLineItem, 0, len(reqs))
	for _, r := range reqs {
		if !models.IsValidLineItemType(r.Type) {
			return nil, decimal.Zero, errors.ErrInvalidParams.WithMessage("Invalid line item type: " + r.Type)
		}
		if !r.Amount.IsPositive() {
			return nil, decimal.Zero, errors.ErrInvalidAmount
		}
		if !models.HasCentPrecision(r.Amount) {
			return nil, decimal.Zero, errors.ErrAmountPrecision
		}
		total = total.Add(r.Amount)
		items = append(items, models.BillLineItem{
			Type:        r.Type,
			Description: strings.TrimSpace(r.Description),
			Amount:      r.Amount,
		})
	}
	return items, total, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.ErrInvalidParams.WithMessage("Date must be in YYYY-MM-DD format")
	}
	return t.UTC(), nil
}

func wrapDBError(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.ErrDatabaseError.WithError(err)
}
