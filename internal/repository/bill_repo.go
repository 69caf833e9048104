package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// BillRepository 账单仓储
type BillRepository struct {
	db *gorm.DB
}

// NewBillRepository 创建账单仓储
func NewBillRepository(db *gorm.DB) *BillRepository {
	return &BillRepository{db: db}
}

// Create 创建账单（连同明细）
func (r *BillRepository) Create(ctx context.Context, tx *gorm.DB, bill *models.Bill) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(bill).Error
}

// GetByID 根据 ID 获取账单
func (r *BillRepository) GetByID(ctx context.Context, id int64) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).First(&bill, id).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// GetByIDWithRelations 获取账单（包含明细、收款、租客）
func (r *BillRepository) GetByIDWithRelations(ctx context.Context, id int64) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Preload("Tenant").
		Preload("Tenant.User").
		Preload("Tenant.Bed").
		Preload("Tenant.Bed.Room").
		Preload("Tenant.Bed.Room.Property").
		First(&bill, id).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// GetForUpdate 获取账单（加锁）
func (r *BillRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Bill, error) {
	var bill models.Bill
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&bill, id).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// ExistsForMonth 检查租客当月账单是否已存在
func (r *BillRepository) ExistsForMonth(ctx context.Context, tenantID int64, month time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bill{}).
		Where("tenant_id = ? AND billing_month = ?", tenantID, month).
		Count(&count).Error
	return count > 0, err
}

// List 获取账单列表
func (r *BillRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Bill, int64, error) {
	var bills []*models.Bill
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Bill{})

	if tenantID, ok := filters["tenant_id"].(int64); ok && tenantID > 0 {
		query = query.Where("bills.tenant_id = ?", tenantID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("bills.status = ?", status)
	}
	if month, ok := filters["billing_month"].(time.Time); ok {
		query = query.Where("bills.billing_month = ?", month)
	}
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Where("bills.property_id = ?", propertyID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Tenant").Preload("Tenant.User").
		Order("bills.billing_month DESC, bills.id DESC").Offset(offset).Limit(limit).
		Find(&bills).Error; err != nil {
		return nil, 0, err
	}

	return bills, total, nil
}

// ListByMonth 获取某月全部账单（导出用）
func (r *BillRepository) ListByMonth(ctx context.Context, month time.Time) ([]*models.Bill, error) {
	var bills []*models.Bill
	err := r.db.WithContext(ctx).
		Where("billing_month = ?", month).
		Preload("LineItems").
		Preload("Property").
		Preload("Tenant").
		Preload("Tenant.User").
		Preload("Tenant.Bed").
		Preload("Tenant.Bed.Room").
		Preload("Tenant.Bed.Room.Property").
		Order("id ASC").
		Find(&bills).Error
	return bills, err
}

// ListOverdueCandidates 获取已过期但未标记逾期的账单
func (r *BillRepository) ListOverdueCandidates(ctx context.Context, today time.Time) ([]*models.Bill, error) {
	var bills []*models.Bill
	err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date < ?", []string{models.BillStatusSent, models.BillStatusPartial}, today).
		Order("id ASC").
		Find(&bills).Error
	return bills, err
}

// MarkOverdue 仅当账单仍处于待付状态时标记逾期，返回是否更新
func (r *BillRepository) MarkOverdue(ctx context.Context, id int64, today time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Bill{}).
		Where("id = ? AND status IN ? AND due_date < ?", id, []string{models.BillStatusSent, models.BillStatusPartial}, today).
		Updates(map[string]interface{}{"status": models.BillStatusOverdue})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListDueBetween 获取到期日在区间内且需提醒的账单
func (r *BillRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*models.Bill, error) {
	var bills []*models.Bill
	err := r.db.WithContext(ctx).
		Where("status IN ? AND due_date >= ? AND due_date <= ?",
			[]string{models.BillStatusSent, models.BillStatusPartial, models.BillStatusDraft}, from, to).
		Preload("Tenant").
		Preload("Tenant.User").
		Order("due_date ASC, id ASC").
		Find(&bills).Error
	return bills, err
}

// UpdateFields 更新指定字段
func (r *BillRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Bill{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除账单及其明细
func (r *BillRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", id).Delete(&models.BillLineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bill{}, id).Error
	})
}

// ListPayments 获取账单收款记录
func (r *BillRepository) ListPayments(ctx context.Context, billID int64) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).Where("bill_id = ?", billID).Order("paid_at ASC").Find(&payments).Error
	return payments, err
}

// MonthSummary 月度账单汇总
type MonthSummary struct {
	Billed    decimal.Decimal
	Collected decimal.Decimal
	Count     int64
}

// SumForMonth 汇总某月账单（不含已取消）
func (r *BillRepository) SumForMonth(ctx context.Context, month time.Time) (*MonthSummary, error) {
	var bills []*models.Bill
	err := r.db.WithContext(ctx).
		Select("id, total_amount, paid_amount").
		Where("billing_month = ? AND status <> ?", month, models.BillStatusCancelled).
		Find(&bills).Error
	if err != nil {
		return nil, err
	}

	summary := &MonthSummary{Billed: decimal.Zero, Collected: decimal.Zero}
	for _, b := range bills {
		summary.Billed = summary.Billed.Add(b.TotalAmount)
		summary.Collected = summary.Collected.Add(b.PaidAmount)
		summary.Count++
	}
	return summary, nil
}

// CountByStatus 统计某状态账单数量
func (r *BillRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bill{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
