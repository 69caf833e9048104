package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// DepositRepository 押金仓储
type DepositRepository struct {
	db *gorm.DB
}

// NewDepositRepository 创建押金仓储
func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create 创建押金记录
func (r *DepositRepository) Create(ctx context.Context, tx *gorm.DB, deposit *models.SecurityDeposit) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(deposit).Error
}

// GetByID 根据 ID 获取押金（包含扣款与退款）
func (r *DepositRepository) GetByID(ctx context.Context, id int64) (*models.SecurityDeposit, error) {
	var deposit models.SecurityDeposit
	err := r.withDetails(r.db.WithContext(ctx)).First(&deposit, id).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

// GetByTenantID 根据租客获取押金（包含扣款与退款）
func (r *DepositRepository) GetByTenantID(ctx context.Context, tenantID int64) (*models.SecurityDeposit, error) {
	var deposit models.SecurityDeposit
	err := r.withDetails(r.db.WithContext(ctx)).Where("tenant_id = ?", tenantID).First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

func (r *DepositRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Deductions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Refunds", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// GetForUpdateByTenant 获取租客押金（加锁）
func (r *DepositRepository) GetForUpdateByTenant(ctx context.Context, tx *gorm.DB, tenantID int64) (*models.SecurityDeposit, error) {
	var deposit models.SecurityDeposit
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ?", tenantID).First(&deposit).Error
	if err != nil {
		return nil, err
	}
	return &deposit, nil
}

// List 获取押金列表
func (r *DepositRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.SecurityDeposit, int64, error) {
	var deposits []*models.SecurityDeposit
	var total int64

	query := r.db.WithContext(ctx).Model(&models.SecurityDeposit{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if tenantID, ok := filters["tenant_id"].(int64); ok && tenantID > 0 {
		query = query.Where("tenant_id = ?", tenantID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Tenant").Preload("Tenant.User").
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&deposits).Error; err != nil {
		return nil, 0, err
	}

	return deposits, total, nil
}
