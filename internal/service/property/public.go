package property

import (
	"context"
	stderrors "errors"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/cache"
	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/models"
)

const cacheName = "property"

// PublicProperty 公开列表中的物业
type PublicProperty struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	Address       string           `json:"address"`
	City          string           `json:"city"`
	State         string           `json:"state"`
	Images        []string         `json:"images"`
	Amenities     []string         `json:"amenities"`
	RoomTypes     []string         `json:"room_types"`
	TotalBeds     int              `json:"total_beds"`
	AvailableBeds int              `json:"available_beds"`
	StartingRent  *decimal.Decimal `json:"starting_rent,omitempty"`
	MapLink       string           `json:"map_link"`
}

// PublicRoom 公开详情中的房间
type PublicRoom struct {
	ID              int64             `json:"id"`
	RoomNumber      string            `json:"room_number"`
	Floor           int               `json:"floor"`
	Type            string            `json:"type"`
	HasAC           bool              `json:"has_ac"`
	HasAttachedBath bool              `json:"has_attached_bath"`
	HasBalcony      bool              `json:"has_balcony"`
	MonthlyRent     decimal.Decimal   `json:"monthly_rent"`
	SecurityDeposit decimal.Decimal   `json:"security_deposit"`
	BedPricing      []models.BedPrice `json:"bed_pricing"`
	Images          []string          `json:"images"`
	TotalBeds       int               `json:"total_beds"`
	AvailableBeds   int               `json:"available_beds"`
}

// MealPlan 餐食配置
type MealPlan struct {
	BreakfastEnabled bool            `json:"breakfast_enabled"`
	BreakfastPrice   decimal.Decimal `json:"breakfast_price"`
	LunchEnabled     bool            `json:"lunch_enabled"`
	LunchPrice       decimal.Decimal `json:"lunch_price"`
	DinnerEnabled    bool            `json:"dinner_enabled"`
	DinnerPrice      decimal.Decimal `json:"dinner_price"`
}

// PublicPropertyDetail 公开物业详情
type PublicPropertyDetail struct {
	PublicProperty
	Description  string       `json:"description"`
	ContactPhone string       `json:"contact_phone"`
	Meals        MealPlan     `json:"meals"`
	Rooms        []PublicRoom `json:"rooms"`
}

// ListPublicProperties 获取启用物业的公开列表（带可用床位数和起租价），结果缓存
func (s *PropertyService) ListPublicProperties(ctx context.Context, city string) ([]*PublicProperty, error) {
	key := cache.BuildKey(cache.KeyPrefixProperty, "list", city)

	var cached []*PublicProperty
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheHit(cacheName)
		return cached, nil
	} else if !stderrors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("Failed to read property cache", zap.String("key", key), zap.Error(err))
	}
	s.metrics.RecordCacheMiss(cacheName)

	properties, err := s.propertyRepo.ListActiveWithRooms(ctx, city)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*PublicProperty, 0, len(properties))
	for _, p := range properties {
		summary := summarizeProperty(p)
		list = append(list, &summary)
	}

	s.store(ctx, key, list)
	return list, nil
}

// GetPublicProperty 获取启用物业的公开详情，结果缓存
func (s *PropertyService) GetPublicProperty(ctx context.Context, id int64) (*PublicPropertyDetail, error) {
	key := cache.BuildKey(cache.KeyPrefixProperty, "detail", strconv.FormatInt(id, 10))

	var cached PublicPropertyDetail
	if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheHit(cacheName)
		return &cached, nil
	}
	s.metrics.RecordCacheMiss(cacheName)

	property, err := s.propertyRepo.GetByIDWithRooms(ctx, id, true)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !property.IsActive {
		return nil, errors.ErrPropertyNotFound
	}

	detail := &PublicPropertyDetail{
		PublicProperty: summarizeProperty(property),
		Description:    property.Description,
		ContactPhone:   property.ContactPhone,
		Meals: MealPlan{
			BreakfastEnabled: property.BreakfastEnabled,
			BreakfastPrice:   property.BreakfastPrice,
			LunchEnabled:     property.LunchEnabled,
			LunchPrice:       property.LunchPrice,
			DinnerEnabled:    property.DinnerEnabled,
			DinnerPrice:      property.DinnerPrice,
		},
		Rooms: make([]PublicRoom, 0, len(property.Rooms)),
	}
	for i := range property.Rooms {
		room := &property.Rooms[i]
		total, available := countBeds(room)
		detail.Rooms = append(detail.Rooms, PublicRoom{
			ID:              room.ID,
			RoomNumber:      room.RoomNumber,
			Floor:           room.Floor,
			Type:            room.Type,
			HasAC:           room.HasAC,
			HasAttachedBath: room.HasAttachedBath,
			HasBalcony:      room.HasBalcony,
			MonthlyRent:     room.MonthlyRent,
			SecurityDeposit: room.SecurityDeposit,
			BedPricing:      room.BedPricing,
			Images:          room.Images,
			TotalBeds:       total,
			AvailableBeds:   available,
		})
	}

	s.store(ctx, key, detail)
	return detail, nil
}

func (s *PropertyService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		logger.Warn("Failed to write property cache", zap.String("key", key), zap.Error(err))
	}
}

// summarizeProperty 汇总物业床位与起租价
// 起租价优先取有空床房间的最低月租，没有空床时取全部房间最低月租
func summarizeProperty(p *models.Property) PublicProperty {
	summary := PublicProperty{
		ID:        p.ID,
		Name:      p.Name,
		Address:   p.Address,
		City:      p.City,
		State:     p.State,
		Images:    p.Images,
		Amenities: p.Amenities,
		RoomTypes: []string{},
		MapLink:   propertyMapLink(p),
	}

	var cheapestAvailable, cheapest *decimal.Decimal
	types := make(map[string]struct{})
	for i := range p.Rooms {
		room := &p.Rooms[i]
		total, available := countBeds(room)
		summary.TotalBeds += total
		summary.AvailableBeds += available
		types[room.Type] = struct{}{}

		rent := room.MonthlyRent
		if cheapest == nil || rent.LessThan(*cheapest) {
			cheapest = &rent
		}
		if available > 0 && (cheapestAvailable == nil || rent.LessThan(*cheapestAvailable)) {
			cheapestAvailable = &rent
		}
	}
	for t := range types {
		summary.RoomTypes = append(summary.RoomTypes, t)
	}
	sort.Strings(summary.RoomTypes)

	if cheapestAvailable != nil {
		summary.StartingRent = cheapestAvailable
	} else {
		summary.StartingRent = cheapest
	}
	return summary
}

func countBeds(room *models.Room) (total, available int) {
	for _, bed := range room.Beds {
		total++
		if bed.Status == models.BedStatusAvailable {
			available++
		}
	}
	return total, available
}
