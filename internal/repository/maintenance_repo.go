package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// MaintenanceRepository 报修仓储
type MaintenanceRepository struct {
	db *gorm.DB
}

// NewMaintenanceRepository 创建报修仓储
func NewMaintenanceRepository(db *gorm.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// Create 创建工单
func (r *MaintenanceRepository) Create(ctx context.Context, req *models.MaintenanceRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// GetByID 根据 ID 获取工单
func (r *MaintenanceRepository) GetByID(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	var req models.MaintenanceRequest
	err := r.db.WithContext(ctx).
		Preload("Tenant").Preload("Tenant.User").
		Preload("Room").Preload("Room.Property").
		First(&req, id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateFields 更新指定字段
func (r *MaintenanceRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).Where("id = ?", id).Updates(fields).Error
}

// List 获取工单列表
func (r *MaintenanceRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.MaintenanceRequest, int64, error) {
	var list []*models.MaintenanceRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&models.MaintenanceRequest{})

	if tenantID, ok := filters["tenant_id"].(int64); ok && tenantID > 0 {
		query = query.Where("maintenance_requests.tenant_id = ?", tenantID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("maintenance_requests.status = ?", status)
	}
	if priority, ok := filters["priority"].(string); ok && priority != "" {
		query = query.Where("maintenance_requests.priority = ?", priority)
	}
	if category, ok := filters["category"].(string); ok && category != "" {
		query = query.Where("maintenance_requests.category = ?", category)
	}
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Joins("JOIN rooms ON rooms.id = maintenance_requests.room_id").
			Where("rooms.property_id = ?", propertyID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Select("maintenance_requests.*").
		Preload("Tenant").Preload("Tenant.User").Preload("Room").
		Order("maintenance_requests.id DESC").Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// CountOpen 统计未完结工单
func (r *MaintenanceRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MaintenanceRequest{}).
		Where("status IN ?", []string{models.MaintenanceStatusOpen, models.MaintenanceStatusInProgress}).
		Count(&count).Error
	return count, err
}
