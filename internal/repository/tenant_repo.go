package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// TenantRepository 租客仓储
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository 创建租客仓储
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetByID 根据 ID 获取租客
func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetByIDWithRelations 获取租客（包含用户、床位、房间、物业、押金）
func (r *TenantRepository) GetByIDWithRelations(ctx context.Context, id int64) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Bed").
		Preload("Bed.Room").
		Preload("Bed.Room.Property").
		Preload("Deposit").
		First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetCurrentByUserID 获取用户当前未退租的租约
func (r *TenantRepository) GetCurrentByUserID(ctx context.Context, userID int64) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, models.BedHoldingStatuses).
		Preload("User").
		Preload("Bed").
		Preload("Bed.Room").
		Preload("Bed.Room.Property").
		Preload("Deposit").
		Order("id DESC").
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetLatestByUserID 获取用户最近一次租约（含已退租）
func (r *TenantRepository) GetLatestByUserID(ctx context.Context, userID int64) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// HasCurrentTenancy 用户是否有未退租的租约
func (r *TenantRepository) HasCurrentTenancy(ctx context.Context, tx *gorm.DB, userID int64) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).Model(&models.Tenant{}).
		Where("user_id = ? AND status IN ?", userID, models.BedHoldingStatuses).
		Count(&count).Error
	return count > 0, err
}

// GetForUpdate 获取租客（加锁）
func (r *TenantRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*models.Tenant, error) {
	var tenant models.Tenant
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&tenant, id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// CountHoldersOfBed 统计占用该床位的租客数
func (r *TenantRepository) CountHoldersOfBed(ctx context.Context, tx *gorm.DB, bedID int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).Model(&models.Tenant{}).
		Where("bed_id = ? AND status IN ?", bedID, models.BedHoldingStatuses).
		Count(&count).Error
	return count, err
}

// CountHoldersInRoom 统计占用该房间床位的租客数
func (r *TenantRepository) CountHoldersInRoom(ctx context.Context, tx *gorm.DB, roomID int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).Model(&models.Tenant{}).
		Joins("JOIN beds ON beds.id = tenants.bed_id").
		Where("beds.room_id = ? AND tenants.status IN ?", roomID, models.BedHoldingStatuses).
		Count(&count).Error
	return count, err
}

// CountHoldersInProperty 统计占用该物业床位的租客数
func (r *TenantRepository) CountHoldersInProperty(ctx context.Context, tx *gorm.DB, propertyID int64) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).Model(&models.Tenant{}).
		Joins("JOIN beds ON beds.id = tenants.bed_id").
		Joins("JOIN rooms ON rooms.id = beds.room_id").
		Where("rooms.property_id = ? AND tenants.status IN ?", propertyID, models.BedHoldingStatuses).
		Count(&count).Error
	return count, err
}

// List 获取租客列表
func (r *TenantRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Tenant, int64, error) {
	var tenants []*models.Tenant
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Joins("JOIN users ON users.id = tenants.user_id")

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("tenants.status = ?", status)
	}
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.
			Joins("JOIN beds ON beds.id = tenants.bed_id").
			Joins("JOIN rooms ON rooms.id = beds.room_id").
			Where("rooms.property_id = ?", propertyID)
	}
	if search, ok := filters["search"].(string); ok && search != "" {
		like := "%" + search + "%"
		query = query.Where("users.name LIKE ? OR users.email LIKE ? OR users.phone LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Select("tenants.*").
		Preload("User").Preload("Bed").Preload("Bed.Room").Preload("Bed.Room.Property").
		Order("tenants.id DESC").Offset(offset).Limit(limit).
		Find(&tenants).Error; err != nil {
		return nil, 0, err
	}

	return tenants, total, nil
}

// ListActiveWithBed 获取在住且已分配床位的租客（包含房间）
func (r *TenantRepository) ListActiveWithBed(ctx context.Context) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	err := r.db.WithContext(ctx).
		Where("status = ? AND bed_id IS NOT NULL", models.TenantStatusActive).
		Preload("User").
		Preload("Bed").
		Preload("Bed.Room").
		Order("id ASC").
		Find(&tenants).Error
	return tenants, err
}

// UpdateFields 更新指定字段
func (r *TenantRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", id).Updates(fields).Error
}

// CountByStatus 统计各状态租客数量
func (r *TenantRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type Result struct {
		Status string
		Count  int64
	}

	var results []Result
	err := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.TenantStatusActive:       0,
		models.TenantStatusNoticePeriod: 0,
		models.TenantStatusCheckedOut:   0,
	}
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, nil
}
