// Package deposit 提供押金扣款与退款服务
package deposit

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// DepositService 押金服务
type DepositService struct {
	db          *gorm.DB
	depositRepo *repository.DepositRepository
	now         func() time.Time
}

// NewDepositService 创建押金服务
func NewDepositService(db *gorm.DB, depositRepo *repository.DepositRepository) *DepositService {
	return &DepositService{
		db:          db,
		depositRepo: depositRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// UpdateAmountRequest 修改押金金额请求
type UpdateAmountRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// DeductionRequest 押金扣款请求
type DeductionRequest struct {
	Reason string          `json:"reason" binding:"required,max=255"`
	Amount decimal.Decimal `json:"amount"`
}

// RefundRequest 押金退款请求
type RefundRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"required"`
	Reference string          `json:"reference" binding:"max=100"`
	// RefundedAt 为空时取当前时间
	RefundedAt *time.Time `json:"refunded_at"`
}

// RefundStatus 根据累计退款计算押金状态
// 累计退款达到（已付 - 扣款）为 refunded，介于 0 与该值之间为 partially_refunded，否则 held
func RefundStatus(amountPaid, deductionsTotal, amountRefunded decimal.Decimal) string {
	threshold := amountPaid.Sub(deductionsTotal)
	switch {
	case amountRefunded.GreaterThanOrEqual(threshold):
		return models.DepositStatusRefunded
	case amountRefunded.IsPositive():
		return models.DepositStatusPartiallyRefunded
	default:
		return models.DepositStatusHeld
	}
}

// GetDeposit 获取租客押金（包含扣款与退款明细）
func (s *DepositService) GetDeposit(ctx context.Context, tenantID int64) (*models.SecurityDeposit, error) {
	deposit, err := s.depositRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrDepositNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return deposit, nil
}

// ListDeposits 获取押金列表
func (s *DepositService) ListDeposits(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.SecurityDeposit, int64, error) {
	list, total, err := s.depositRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// UpdateAmount 修改已收押金，发生退款后不可修改
func (s *DepositService) UpdateAmount(ctx context.Context, tenantID int64, req *UpdateAmountRequest) (*models.SecurityDeposit, error) {
	if req.AmountPaid.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("Deposit amount cannot be negative")
	}
	if !models.HasCentPrecision(req.AmountPaid) {
		return nil, errors.ErrAmountPrecision
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deposit, err := s.lockDeposit(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if !deposit.AmountRefunded.IsZero() {
			return errors.ErrDepositLocked
		}
		if req.AmountPaid.LessThan(deposit.DeductionsTotal) {
			return errors.ErrDeductionExceedsDeposit
		}
		return tx.Model(&models.SecurityDeposit{}).Where("id = ?", deposit.ID).
			Updates(map[string]interface{}{"amount_paid": req.AmountPaid}).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return s.GetDeposit(ctx, tenantID)
}

// AddDeduction 添加扣款，扣款与已退金额之和不得超过已收押金
func (s *DepositService) AddDeduction(ctx context.Context, tenantID, adminID int64, req *DeductionRequest) (*models.SecurityDeposit, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, errors.ErrInvalidParams.WithMessage("Deduction reason is required")
	}
	if !req.Amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if !models.HasCentPrecision(req.Amount) {
		return nil, errors.ErrAmountPrecision
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deposit, err := s.lockDeposit(ctx, tx, tenantID)
		if err != nil {
			return err
		}

		newDeductions := deposit.DeductionsTotal.Add(req.Amount)
		if newDeductions.Add(deposit.AmountRefunded).GreaterThan(deposit.AmountPaid) {
			return errors.ErrDeductionExceedsDeposit
		}

		deduction := &models.DepositDeduction{
			DepositID: deposit.ID,
			Reason:    reason,
			Amount:    req.Amount,
			CreatedBy: adminID,
		}
		if err := tx.Create(deduction).Error; err != nil {
			return err
		}
		fields := map[string]interface{}{"deductions_total": newDeductions}
		// 已有退款时扣款会缩小可退基数，需要重新计算状态
		if deposit.AmountRefunded.IsPositive() {
			fields["status"] = RefundStatus(deposit.AmountPaid, newDeductions, deposit.AmountRefunded)
		}
		return tx.Model(&models.SecurityDeposit{}).Where("id = ?", deposit.ID).
			Updates(fields).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	logger.Info("Deposit deduction added", logger.TenantID(tenantID), zap.String("amount", req.Amount.StringFixed(2)))
	return s.GetDeposit(ctx, tenantID)
}

// Refund 记录押金退款并重新计算状态
func (s *DepositService) Refund(ctx context.Context, tenantID, adminID int64, req *RefundRequest) (*models.SecurityDeposit, error) {
	if !req.Amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}
	if !models.HasCentPrecision(req.Amount) {
		return nil, errors.ErrAmountPrecision
	}
	if !models.IsValidPaymentMethod(req.Method) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid refund method")
	}
	refundedAt := s.now()
	if req.RefundedAt != nil {
		refundedAt = req.RefundedAt.UTC()
	}

	var status string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deposit, err := s.lockDeposit(ctx, tx, tenantID)
		if err != nil {
			return err
		}

		newRefunded := deposit.AmountRefunded.Add(req.Amount)
		if newRefunded.GreaterThan(deposit.Refundable()) {
			return errors.ErrRefundExceedsBalance
		}
		status = RefundStatus(deposit.AmountPaid, deposit.DeductionsTotal, newRefunded)

		refund := &models.DepositRefund{
			DepositID:  deposit.ID,
			Amount:     req.Amount,
			Method:     req.Method,
			Reference:  strings.TrimSpace(req.Reference),
			RefundedAt: refundedAt,
			CreatedBy:  adminID,
		}
		if err := tx.Create(refund).Error; err != nil {
			return err
		}
		return tx.Model(&models.SecurityDeposit{}).Where("id = ?", deposit.ID).
			Updates(map[string]interface{}{
				"amount_refunded": newRefunded,
				"status":          status,
			}).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	logger.Info("Deposit refunded",
		logger.TenantID(tenantID),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("status", status),
	)
	return s.GetDeposit(ctx, tenantID)
}

func (s *DepositService) lockDeposit(ctx context.Context, tx *gorm.DB, tenantID int64) (*models.SecurityDeposit, error) {
	deposit, err := s.depositRepo.GetForUpdateByTenant(ctx, tx, tenantID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrDepositNotFound
		}
		return nil, err
	}
	return deposit, nil
}

func wrapDBError(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.ErrDatabaseError.WithError(err)
}
