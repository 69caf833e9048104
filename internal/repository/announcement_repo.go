package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// AnnouncementRepository 公告仓储
type AnnouncementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository 创建公告仓储
func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create 创建公告
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// GetByID 根据 ID 获取公告
func (r *AnnouncementRepository) GetByID(ctx context.Context, id int64) (*models.Announcement, error) {
	var a models.Announcement
	err := r.db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Save 保存公告全部字段
func (r *AnnouncementRepository) Save(ctx context.Context, a *models.Announcement) error {
	return r.db.WithContext(ctx).Save(a).Error
}

// Delete 删除公告
func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Announcement{}, id).Error
}

// List 获取公告列表（管理端）
func (r *AnnouncementRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Announcement, int64, error) {
	var list []*models.Announcement
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Announcement{})
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	if isActive, ok := filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", isActive)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("Property").Order("published_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListVisible 获取对某物业可见的有效公告，propertyID 为 0 时只返回全局公告
func (r *AnnouncementRepository) ListVisible(ctx context.Context, propertyID int64, now time.Time) ([]*models.Announcement, error) {
	var list []*models.Announcement
	query := r.db.WithContext(ctx).
		Where("is_active = ? AND published_at <= ?", true, now).
		Where("expires_at IS NULL OR expires_at > ?", now)
	if propertyID > 0 {
		query = query.Where("property_id IS NULL OR property_id = ?", propertyID)
	} else {
		query = query.Where("property_id IS NULL")
	}
	err := query.Order("published_at DESC, id DESC").Find(&list).Error
	return list, err
}
