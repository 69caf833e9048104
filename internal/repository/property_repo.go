package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// PropertyRepository 物业仓储
type PropertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository 创建物业仓储
func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create 创建物业
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

// GetByID 根据 ID 获取物业
func (r *PropertyRepository) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetByIDWithRooms 获取物业（包含房间与床位）
func (r *PropertyRepository) GetByIDWithRooms(ctx context.Context, id int64, onlyActiveRooms bool) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).
		Preload("Rooms", func(db *gorm.DB) *gorm.DB {
			if onlyActiveRooms {
				db = db.Where("is_active = ?", true)
			}
			return db.Order("floor ASC, room_number ASC")
		}).
		Preload("Rooms.Beds", func(db *gorm.DB) *gorm.DB {
			return db.Order("bed_number ASC")
		}).
		First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// Save 保存物业全部字段
func (r *PropertyRepository) Save(ctx context.Context, property *models.Property) error {
	return r.db.WithContext(ctx).Save(property).Error
}

// Delete 删除物业及其房间、床位
func (r *PropertyRepository) Delete(ctx context.Context, tx *gorm.DB, id int64) error {
	roomIDs := tx.WithContext(ctx).Model(&models.Room{}).Select("id").Where("property_id = ?", id)
	if err := tx.WithContext(ctx).Where("room_id IN (?)", roomIDs).Delete(&models.Bed{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Where("property_id = ?", id).Delete(&models.Room{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(&models.Property{}, id).Error
}

// List 获取物业列表
func (r *PropertyRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Property, int64, error) {
	var properties []*models.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Property{})

	if city, ok := filters["city"].(string); ok && city != "" {
		query = query.Where("city = ?", city)
	}
	if isActive, ok := filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", isActive)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR address LIKE ? OR city LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&properties).Error; err != nil {
		return nil, 0, err
	}

	return properties, total, nil
}

// ListActiveWithRooms 获取全部启用物业（包含启用房间与床位）
func (r *PropertyRepository) ListActiveWithRooms(ctx context.Context, city string) ([]*models.Property, error) {
	var properties []*models.Property
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if city != "" {
		query = query.Where("city = ?", city)
	}
	err := query.
		Preload("Rooms", "is_active = ?", true).
		Preload("Rooms.Beds").
		Order("name ASC").
		Find(&properties).Error
	return properties, err
}

// GetCities 获取有启用物业的城市
func (r *PropertyRepository) GetCities(ctx context.Context) ([]string, error) {
	var cities []string
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("is_active = ?", true).
		Distinct("city").
		Order("city ASC").
		Pluck("city", &cities).Error
	return cities, err
}

// Count 统计物业数量
func (r *PropertyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Count(&count).Error
	return count, err
}
