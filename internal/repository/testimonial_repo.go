package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// TestimonialRepository 评价仓储
type TestimonialRepository struct {
	db *gorm.DB
}

// NewTestimonialRepository 创建评价仓储
func NewTestimonialRepository(db *gorm.DB) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

// Create 创建评价
func (r *TestimonialRepository) Create(ctx context.Context, t *models.Testimonial) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// GetByID 根据 ID 获取评价
func (r *TestimonialRepository) GetByID(ctx context.Context, id int64) (*models.Testimonial, error) {
	var t models.Testimonial
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateFields 更新指定字段
func (r *TestimonialRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Testimonial{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除评价
func (r *TestimonialRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Testimonial{}, id).Error
}

// List 获取评价列表（管理端）
func (r *TestimonialRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Testimonial, int64, error) {
	var list []*models.Testimonial
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Testimonial{})
	if approved, ok := filters["is_approved"].(bool); ok {
		query = query.Where("is_approved = ?", approved)
	}
	if propertyID, ok := filters["property_id"].(int64); ok && propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListApproved 获取已审核评价，精选优先
func (r *TestimonialRepository) ListApproved(ctx context.Context, propertyID int64, limit int) ([]*models.Testimonial, error) {
	var list []*models.Testimonial
	query := r.db.WithContext(ctx).Where("is_approved = ?", true)
	if propertyID > 0 {
		query = query.Where("property_id = ?", propertyID)
	}
	err := query.Order("is_featured DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}
