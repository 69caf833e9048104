package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/models"
)

// BedRepository 床位仓储
type BedRepository struct {
	db *gorm.DB
}

// NewBedRepository 创建床位仓储
func NewBedRepository(db *gorm.DB) *BedRepository {
	return &BedRepository{db: db}
}

// Create 创建床位
func (r *BedRepository) Create(ctx context.Context, bed *models.Bed) error {
	return r.db.WithContext(ctx).Create(bed).Error
}

// GetByID 根据 ID 获取床位
func (r *BedRepository) GetByID(ctx context.Context, id int64) (*models.Bed, error) {
	var bed models.Bed
	err := r.db.WithContext(ctx).First(&bed, id).Error
	if err != nil {
		return nil, err
	}
	return &bed, nil
}

// GetByIDWithRoom 获取床位（包含房间与物业）
func (r *BedRepository) GetByIDWithRoom(ctx context.Context, tx *gorm.DB, id int64) (*models.Bed, error) {
	if tx == nil {
		tx = r.db
	}
	var bed models.Bed
	err := tx.WithContext(ctx).Preload("Room").Preload("Room.Property").First(&bed, id).Error
	if err != nil {
		return nil, err
	}
	return &bed, nil
}

// ExistsByNumber 检查房间内床位号是否已存在
func (r *BedRepository) ExistsByNumber(ctx context.Context, roomID int64, bedNumber string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Bed{}).
		Where("room_id = ? AND bed_number = ? AND id <> ?", roomID, bedNumber, excludeID).
		Count(&count).Error
	return count > 0, err
}

// ListByRoom 获取房间内的床位
func (r *BedRepository) ListByRoom(ctx context.Context, roomID int64) ([]*models.Bed, error) {
	var beds []*models.Bed
	err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("bed_number ASC").Find(&beds).Error
	return beds, err
}

// ListAvailable 获取可分配的床位，propertyID 为 0 时不过滤物业
func (r *BedRepository) ListAvailable(ctx context.Context, propertyID int64) ([]*models.Bed, error) {
	var beds []*models.Bed
	query := r.db.WithContext(ctx).
		Select("beds.*").
		Joins("JOIN rooms ON rooms.id = beds.room_id").
		Joins("JOIN properties ON properties.id = rooms.property_id").
		Where("beds.status = ? AND rooms.is_active = ? AND properties.is_active = ?", models.BedStatusAvailable, true, true)
	if propertyID > 0 {
		query = query.Where("rooms.property_id = ?", propertyID)
	}
	err := query.Preload("Room").Preload("Room.Property").
		Order("beds.room_id ASC, beds.bed_number ASC").
		Find(&beds).Error
	return beds, err
}

// Occupy 仅当床位空闲时将其置为已入住，返回是否成功
func (r *BedRepository) Occupy(ctx context.Context, tx *gorm.DB, id int64) (bool, error) {
	result := tx.WithContext(ctx).Model(&models.Bed{}).
		Where("id = ? AND status = ?", id, models.BedStatusAvailable).
		Updates(map[string]interface{}{"status": models.BedStatusOccupied})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Release 将已入住床位释放为空闲
func (r *BedRepository) Release(ctx context.Context, tx *gorm.DB, id int64) error {
	return tx.WithContext(ctx).Model(&models.Bed{}).
		Where("id = ? AND status = ?", id, models.BedStatusOccupied).
		Updates(map[string]interface{}{"status": models.BedStatusAvailable}).Error
}

// UpdateStatus 更新床位状态
func (r *BedRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Bed{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status}).Error
}

// UpdateFields 更新指定字段
func (r *BedRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Bed{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除床位
func (r *BedRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Bed{}, id).Error
}

// CountByStatus 按状态统计床位，propertyID 为 nil 时统计全部
func (r *BedRepository) CountByStatus(ctx context.Context, propertyID *int64) (map[string]int64, error) {
	type Result struct {
		Status string
		Count  int64
	}

	var results []Result
	query := r.db.WithContext(ctx).Model(&models.Bed{}).
		Select("beds.status AS status, count(*) AS count")
	if propertyID != nil {
		query = query.Joins("JOIN rooms ON rooms.id = beds.room_id").
			Where("rooms.property_id = ?", *propertyID)
	}
	if err := query.Group("beds.status").Find(&results).Error; err != nil {
		return nil, err
	}

	counts := map[string]int64{
		models.BedStatusAvailable:   0,
		models.BedStatusOccupied:    0,
		models.BedStatusMaintenance: 0,
		models.BedStatusReserved:    0,
	}
	for _, res := range results {
		counts[res.Status] = res.Count
	}
	return counts, nil
}
