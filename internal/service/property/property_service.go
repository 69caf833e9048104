// Package property 提供物业、房间、床位库存服务
package property

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/cache"
	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// MaxBedsPerRoom 创建房间时自动生成床位的上限
const MaxBedsPerRoom = 20

// PropertyService 库存服务
type PropertyService struct {
	db           *gorm.DB
	propertyRepo *repository.PropertyRepository
	roomRepo     *repository.RoomRepository
	bedRepo      *repository.BedRepository
	tenantRepo   *repository.TenantRepository
	cache        *cache.Store
	cacheTTL     time.Duration
	metrics      *metrics.Metrics
}

// NewPropertyService 创建库存服务
func NewPropertyService(
	db *gorm.DB,
	propertyRepo *repository.PropertyRepository,
	roomRepo *repository.RoomRepository,
	bedRepo *repository.BedRepository,
	tenantRepo *repository.TenantRepository,
	store *cache.Store,
	cacheTTL time.Duration,
	m *metrics.Metrics,
) *PropertyService {
	return &PropertyService{
		db:           db,
		propertyRepo: propertyRepo,
		roomRepo:     roomRepo,
		bedRepo:      bedRepo,
		tenantRepo:   tenantRepo,
		cache:        store,
		cacheTTL:     cacheTTL,
		metrics:      m,
	}
}

// PropertyRequest 创建/更新物业请求
type PropertyRequest struct {
	Name             string          `json:"name" binding:"required,max=150"`
	Address          string          `json:"address" binding:"required,max=255"`
	City             string          `json:"city" binding:"required,max=100"`
	State            string          `json:"state" binding:"max=100"`
	Pincode          string          `json:"pincode" binding:"max=10"`
	Latitude         *float64        `json:"latitude"`
	Longitude        *float64        `json:"longitude"`
	Description      string          `json:"description"`
	ContactPhone     string          `json:"contact_phone" binding:"max=20"`
	Images           []string        `json:"images"`
	Amenities        []string        `json:"amenities"`
	BreakfastEnabled bool            `json:"breakfast_enabled"`
	BreakfastPrice   decimal.Decimal `json:"breakfast_price"`
	LunchEnabled     bool            `json:"lunch_enabled"`
	LunchPrice       decimal.Decimal `json:"lunch_price"`
	DinnerEnabled    bool            `json:"dinner_enabled"`
	DinnerPrice      decimal.Decimal `json:"dinner_price"`
	IsActive         *bool           `json:"is_active"`
}

// PropertyDetail 物业详情
type PropertyDetail struct {
	*models.Property
	MapLink   string           `json:"map_link"`
	BedCounts map[string]int64 `json:"bed_counts"`
}

// RoomRequest 创建/更新房间请求
type RoomRequest struct {
	RoomNumber      string            `json:"room_number" binding:"required,max=20"`
	Floor           int               `json:"floor"`
	Type            string            `json:"type" binding:"required"`
	HasAC           bool              `json:"has_ac"`
	HasAttachedBath bool              `json:"has_attached_bath"`
	HasBalcony      bool              `json:"has_balcony"`
	MonthlyRent     decimal.Decimal   `json:"monthly_rent"`
	SecurityDeposit decimal.Decimal   `json:"security_deposit"`
	BedPricing      []models.BedPrice `json:"bed_pricing"`
	Images          []string          `json:"images"`
	IsActive        *bool             `json:"is_active"`
	// BedCount 仅创建时生效，自动生成 B1..BN
	BedCount int `json:"bed_count"`
}

// BedRequest 创建/更新床位请求
type BedRequest struct {
	BedNumber string `json:"bed_number" binding:"required,max=20"`
}

// UpdateBedStatusRequest 更新床位状态请求
type UpdateBedStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ==================== 物业 ====================

// CreateProperty 创建物业
func (s *PropertyService) CreateProperty(ctx context.Context, req *PropertyRequest) (*models.Property, error) {
	if err := validatePropertyRequest(req); err != nil {
		return nil, err
	}

	property := &models.Property{IsActive: true}
	applyPropertyRequest(property, req)

	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidateListings(ctx)
	return property, nil
}

// UpdateProperty 更新物业
func (s *PropertyService) UpdateProperty(ctx context.Context, id int64, req *PropertyRequest) (*models.Property, error) {
	if err := validatePropertyRequest(req); err != nil {
		return nil, err
	}
	property, err := s.getProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPropertyRequest(property, req)
	if err := s.propertyRepo.Save(ctx, property); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidateListings(ctx)
	return property, nil
}

// GetProperty 获取物业详情（包含全部房间、床位与地图链接）
func (s *PropertyService) GetProperty(ctx context.Context, id int64) (*PropertyDetail, error) {
	property, err := s.propertyRepo.GetByIDWithRooms(ctx, id, false)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	counts, err := s.bedRepo.CountByStatus(ctx, &property.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return &PropertyDetail{
		Property:  property,
		MapLink:   propertyMapLink(property),
		BedCounts: counts,
	}, nil
}

// ListProperties 获取物业列表
func (s *PropertyService) ListProperties(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Property, int64, error) {
	list, total, err := s.propertyRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// DeleteProperty 删除物业，存在在住租客时拒绝
func (s *PropertyService) DeleteProperty(ctx context.Context, id int64) error {
	if _, err := s.getProperty(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holders, err := s.tenantRepo.CountHoldersInProperty(ctx, tx, id)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if holders > 0 {
			return errors.ErrPropertyHasActiveTenants
		}
		if err := s.propertyRepo.Delete(ctx, tx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateListings(ctx)
	return nil
}

// GetCities 获取有启用物业的城市
func (s *PropertyService) GetCities(ctx context.Context) ([]string, error) {
	cities, err := s.propertyRepo.GetCities(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return cities, nil
}

// ==================== 房间 ====================

// CreateRoom 创建房间，可按 BedCount 自动生成床位
func (s *PropertyService) CreateRoom(ctx context.Context, propertyID int64, req *RoomRequest) (*models.Room, error) {
	if err := validateRoomRequest(req); err != nil {
		return nil, err
	}
	if req.BedCount < 0 || req.BedCount > MaxBedsPerRoom {
		return nil, errors.ErrInvalidParams.WithMessage(fmt.Sprintf("Bed count must be between 0 and %d", MaxBedsPerRoom))
	}
	if _, err := s.getProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	room := &models.Room{PropertyID: propertyID, IsActive: true}
	applyRoomRequest(room, req)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			if stderrors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.ErrRoomNumberExists
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		for i := 1; i <= req.BedCount; i++ {
			bed := &models.Bed{
				RoomID:    room.ID,
				BedNumber: "B" + strconv.Itoa(i),
				Status:    models.BedStatusAvailable,
			}
			if err := tx.Create(bed).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			room.Beds = append(room.Beds, *bed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListings(ctx)
	return room, nil
}

// UpdateRoom 更新房间
func (s *PropertyService) UpdateRoom(ctx context.Context, id int64, req *RoomRequest) (*models.Room, error) {
	if err := validateRoomRequest(req); err != nil {
		return nil, err
	}
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	applyRoomRequest(room, req)
	if err := s.roomRepo.Save(ctx, room); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrRoomNumberExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidateListings(ctx)
	return room, nil
}

// GetRoom 获取房间详情（包含床位）
func (s *PropertyService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.roomRepo.GetByIDWithBeds(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return room, nil
}

// ListRooms 获取物业下的房间
func (s *PropertyService) ListRooms(ctx context.Context, propertyID int64, filters map[string]interface{}) ([]*models.Room, error) {
	if _, err := s.getProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	rooms, err := s.roomRepo.ListByProperty(ctx, propertyID, filters)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return rooms, nil
}

// DeleteRoom 删除房间，存在在住租客时拒绝
func (s *PropertyService) DeleteRoom(ctx context.Context, id int64) error {
	if _, err := s.getRoom(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holders, err := s.tenantRepo.CountHoldersInRoom(ctx, tx, id)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if holders > 0 {
			return errors.ErrRoomHasActiveTenants
		}
		if err := s.roomRepo.DeleteWithBeds(ctx, tx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateListings(ctx)
	return nil
}

// ==================== 床位 ====================

// CreateBed 在房间内新增床位
func (s *PropertyService) CreateBed(ctx context.Context, roomID int64, req *BedRequest) (*models.Bed, error) {
	number := strings.TrimSpace(req.BedNumber)
	if number == "" {
		return nil, errors.ErrInvalidParams.WithMessage("Bed number is required")
	}
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	bed := &models.Bed{RoomID: roomID, BedNumber: number, Status: models.BedStatusAvailable}
	if err := s.bedRepo.Create(ctx, bed); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrBedNumberExists
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.invalidateListings(ctx)
	return bed, nil
}

// UpdateBed 修改床位号
func (s *PropertyService) UpdateBed(ctx context.Context, id int64, req *BedRequest) (*models.Bed, error) {
	number := strings.TrimSpace(req.BedNumber)
	if number == "" {
		return nil, errors.ErrInvalidParams.WithMessage("Bed number is required")
	}
	bed, err := s.getBed(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.bedRepo.ExistsByNumber(ctx, bed.RoomID, number, bed.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrBedNumberExists
	}
	if err := s.bedRepo.UpdateFields(ctx, bed.ID, map[string]interface{}{"bed_number": number}); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	bed.BedNumber = number
	s.invalidateListings(ctx)
	return bed, nil
}

// UpdateBedStatus 管理员变更床位状态
// 不能直接置为已入住；仍被租客占用的床位不能变更状态
func (s *PropertyService) UpdateBedStatus(ctx context.Context, id int64, status string) (*models.Bed, error) {
	if !models.IsValidBedStatus(status) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid bed status")
	}
	if status == models.BedStatusOccupied {
		return nil, errors.ErrBedOccupyDirect
	}

	var bed *models.Bed
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		bed, err = s.bedRepo.GetByIDWithRoom(ctx, tx, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrBedNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}

		holders, err := s.tenantRepo.CountHoldersOfBed(ctx, tx, id)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if holders > 0 {
			return errors.ErrBedStatusLocked
		}

		if err := tx.Model(&models.Bed{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": status}).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		bed.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Bed status updated", logger.BedID(id), zap.String("status", status))
	s.invalidateListings(ctx)
	return bed, nil
}

// DeleteBed 删除床位，仍被租客占用时拒绝
func (s *PropertyService) DeleteBed(ctx context.Context, id int64) error {
	if _, err := s.getBed(ctx, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		holders, err := s.tenantRepo.CountHoldersOfBed(ctx, tx, id)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if holders > 0 {
			return errors.ErrBedHasActiveTenant
		}
		if err := tx.Delete(&models.Bed{}, id).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateListings(ctx)
	return nil
}

// ListAvailableBeds 获取可分配床位，propertyID 为 0 时返回全部
func (s *PropertyService) ListAvailableBeds(ctx context.Context, propertyID int64) ([]*models.Bed, error) {
	beds, err := s.bedRepo.ListAvailable(ctx, propertyID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return beds, nil
}

// BedCounts 按状态统计床位，并同步到监控指标
func (s *PropertyService) BedCounts(ctx context.Context) (map[string]int64, error) {
	counts, err := s.bedRepo.CountByStatus(ctx, nil)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	s.metrics.SetBedsByStatus(counts)
	return counts, nil
}

// ==================== 内部方法 ====================

func (s *PropertyService) getProperty(ctx context.Context, id int64) (*models.Property, error) {
	property, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return property, nil
}

func (s *PropertyService) getRoom(ctx context.Context, id int64) (*models.Room, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return room, nil
}

func (s *PropertyService) getBed(ctx context.Context, id int64) (*models.Bed, error) {
	bed, err := s.bedRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBedNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return bed, nil
}

// invalidateListings 清除公开列表缓存，失败只记录日志
func (s *PropertyService) invalidateListings(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cache.KeyPrefixProperty); err != nil {
		logger.Warn("Failed to invalidate property cache", zap.Error(err))
	}
}

func validatePropertyRequest(req *PropertyRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.City) == "" {
		return errors.ErrInvalidParams.WithMessage("Name, address and city are required")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return errors.ErrInvalidParams.WithMessage("Latitude and longitude must be provided together")
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180) {
		return errors.ErrInvalidParams.WithMessage("Invalid coordinates")
	}
	for _, price := range []decimal.Decimal{req.BreakfastPrice, req.LunchPrice, req.DinnerPrice} {
		if price.IsNegative() {
			return errors.ErrInvalidParams.WithMessage("Meal prices cannot be negative")
		}
	}
	return nil
}

func applyPropertyRequest(p *models.Property, req *PropertyRequest) {
	p.Name = strings.TrimSpace(req.Name)
	p.Address = strings.TrimSpace(req.Address)
	p.City = strings.TrimSpace(req.City)
	p.State = strings.TrimSpace(req.State)
	p.Pincode = strings.TrimSpace(req.Pincode)
	p.Latitude = req.Latitude
	p.Longitude = req.Longitude
	p.Description = req.Description
	p.ContactPhone = utils.NormalizePhone(req.ContactPhone)
	p.Images = stringSlice(req.Images)
	p.Amenities = stringSlice(req.Amenities)
	p.BreakfastEnabled = req.BreakfastEnabled
	p.BreakfastPrice = req.BreakfastPrice
	p.LunchEnabled = req.LunchEnabled
	p.LunchPrice = req.LunchPrice
	p.DinnerEnabled = req.DinnerEnabled
	p.DinnerPrice = req.DinnerPrice
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

func validateRoomRequest(req *RoomRequest) error {
	if strings.TrimSpace(req.RoomNumber) == "" {
		return errors.ErrInvalidParams.WithMessage("Room number is required")
	}
	if !models.IsValidRoomType(req.Type) {
		return errors.ErrInvalidParams.WithMessage("Invalid room type")
	}
	if !req.MonthlyRent.IsPositive() {
		return errors.ErrInvalidParams.WithMessage("Monthly rent must be greater than zero")
	}
	if req.SecurityDeposit.IsNegative() {
		return errors.ErrInvalidParams.WithMessage("Security deposit cannot be negative")
	}
	if !models.HasCentPrecision(req.MonthlyRent) || !models.HasCentPrecision(req.SecurityDeposit) {
		return errors.ErrAmountPrecision
	}
	for _, p := range req.BedPricing {
		if p.Beds <= 0 || !p.Rent.IsPositive() {
			return errors.ErrInvalidParams.WithMessage("Invalid bed pricing")
		}
	}
	return nil
}

func applyRoomRequest(r *models.Room, req *RoomRequest) {
	r.RoomNumber = strings.TrimSpace(req.RoomNumber)
	r.Floor = req.Floor
	r.Type = req.Type
	r.HasAC = req.HasAC
	r.HasAttachedBath = req.HasAttachedBath
	r.HasBalcony = req.HasBalcony
	r.MonthlyRent = req.MonthlyRent
	r.SecurityDeposit = req.SecurityDeposit
	r.BedPricing = datatypes.JSONSlice[models.BedPrice](req.BedPricing)
	if r.BedPricing == nil {
		r.BedPricing = datatypes.JSONSlice[models.BedPrice]{}
	}
	r.Images = stringSlice(req.Images)
	if req.IsActive != nil {
		r.IsActive = *req.IsActive
	}
}

func stringSlice(values []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func propertyMapLink(p *models.Property) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{p.Address, p.City, p.State, p.Pincode} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return utils.MapLink(p.Latitude, p.Longitude, strings.Join(parts, ", "))
}
