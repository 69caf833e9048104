package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// RoomRepository 房间仓储
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房间仓储
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create 创建房间
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetByID 根据 ID 获取房间
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByIDWithBeds 获取房间（包含床位与物业）
func (r *RoomRepository) GetByIDWithBeds(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Beds", func(db *gorm.DB) *gorm.DB {
			return db.Order("bed_number ASC")
		}).
		First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByNumber 检查物业内房间号是否已存在
func (r *RoomRepository) ExistsByNumber(ctx context.Context, propertyID int64, roomNumber string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("property_id = ? AND room_number = ? AND id <> ?", propertyID, roomNumber, excludeID).
		Count(&count).Error
	return count > 0, err
}

// Save 保存房间全部字段
func (r *RoomRepository) Save(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// DeleteWithBeds 删除房间及其床位
func (r *RoomRepository) DeleteWithBeds(ctx context.Context, tx *gorm.DB, id int64) error {
	if err := tx.WithContext(ctx).Where("room_id = ?", id).Delete(&models.Bed{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(&models.Room{}, id).Error
}

// ListByProperty 获取物业下的房间
func (r *RoomRepository) ListByProperty(ctx context.Context, propertyID int64, filters map[string]interface{}) ([]*models.Room, error) {
	var rooms []*models.Room
	query := r.db.WithContext(ctx).Where("property_id = ?", propertyID)

	if roomType, ok := filters["type"].(string); ok && roomType != "" {
		query = query.Where("type = ?", roomType)
	}
	if isActive, ok := filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", isActive)
	}

	err := query.
		Preload("Beds", func(db *gorm.DB) *gorm.DB {
			return db.Order("bed_number ASC")
		}).
		Order("floor ASC, room_number ASC").
		Find(&rooms).Error
	return rooms, err
}

// CountByProperty 统计物业下房间数量
func (r *RoomRepository) CountByProperty(ctx context.Context, propertyID *int64) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Room{})
	if propertyID != nil {
		query = query.Where("property_id = ?", *propertyID)
	}
	err := query.Count(&count).Error
	return count, err
}
