package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Property 物业（PG 楼栋）模型
type Property struct {
	ID               int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name             string                      `gorm:"type:varchar(150);not null" json:"name"`
	Address          string                      `gorm:"type:varchar(255);not null" json:"address"`
	City             string                      `gorm:"type:varchar(100);not null;index" json:"city"`
	State            string                      `gorm:"type:varchar(100);not null;default:''" json:"state"`
	Pincode          string                      `gorm:"type:varchar(10);not null;default:''" json:"pincode"`
	Latitude         *float64                    `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude        *float64                    `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`
	Description      string                      `gorm:"type:text" json:"description"`
	ContactPhone     string                      `gorm:"type:varchar(20);not null;default:''" json:"contact_phone"`
	Images           datatypes.JSONSlice[string] `json:"images"`
	Amenities        datatypes.JSONSlice[string] `json:"amenities"`
	BreakfastEnabled bool                        `gorm:"not null;default:false" json:"breakfast_enabled"`
	BreakfastPrice   decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0" json:"breakfast_price"`
	LunchEnabled     bool                        `gorm:"not null;default:false" json:"lunch_enabled"`
	LunchPrice       decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0" json:"lunch_price"`
	DinnerEnabled    bool                        `gorm:"not null;default:false" json:"dinner_enabled"`
	DinnerPrice      decimal.Decimal             `gorm:"type:decimal(12,2);not null;default:0" json:"dinner_price"`
	IsActive         bool                        `gorm:"not null;index" json:"is_active"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Rooms []Room `gorm:"foreignKey:PropertyID" json:"rooms,omitempty"`
}

// TableName 表名
func (Property) TableName() string {
	return "properties"
}

// BedPrice 按床位数定价
type BedPrice struct {
	Beds int             `json:"beds"`
	Rent decimal.Decimal `json:"rent"`
}

// Room 房间模型
type Room struct {
	ID              int64                         `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID      int64                         `gorm:"not null;uniqueIndex:idx_rooms_property_number" json:"property_id"`
	RoomNumber      string                        `gorm:"type:varchar(20);not null;uniqueIndex:idx_rooms_property_number" json:"room_number"`
	Floor           int                           `gorm:"not null;default:0" json:"floor"`
	Type            string                        `gorm:"type:varchar(20);not null" json:"type"`
	HasAC           bool                          `gorm:"column:has_ac;not null;default:false" json:"has_ac"`
	HasAttachedBath bool                          `gorm:"not null;default:false" json:"has_attached_bath"`
	HasBalcony      bool                          `gorm:"not null;default:false" json:"has_balcony"`
	MonthlyRent     decimal.Decimal               `gorm:"type:decimal(12,2);not null" json:"monthly_rent"`
	SecurityDeposit decimal.Decimal               `gorm:"type:decimal(12,2);not null;default:0" json:"security_deposit"`
	BedPricing      datatypes.JSONSlice[BedPrice] `json:"bed_pricing"`
	Images          datatypes.JSONSlice[string]   `json:"images"`
	IsActive        bool                          `gorm:"not null" json:"is_active"`
	CreatedAt       time.Time                     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                     `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Beds     []Bed     `gorm:"foreignKey:RoomID" json:"beds,omitempty"`
}

// TableName 表名
func (Room) TableName() string {
	return "rooms"
}

// RoomType 房间类型
const (
	RoomTypeSingle    = "SINGLE"
	RoomTypeDouble    = "DOUBLE"
	RoomTypeTriple    = "TRIPLE"
	RoomTypeDormitory = "DORMITORY"
)

// IsValidRoomType 校验房间类型
func IsValidRoomType(t string) bool {
	switch t {
	case RoomTypeSingle, RoomTypeDouble, RoomTypeTriple, RoomTypeDormitory:
		return true
	}
	return false
}

// Bed 床位模型
type Bed struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomID    int64     `gorm:"not null;uniqueIndex:idx_beds_room_number" json:"room_id"`
	BedNumber string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_beds_room_number" json:"bed_number"`
	Status    string    `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Room *Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName 表名
func (Bed) TableName() string {
	return "beds"
}

// BedStatus 床位状态
const (
	BedStatusAvailable   = "AVAILABLE"
	BedStatusOccupied    = "OCCUPIED"
	BedStatusMaintenance = "MAINTENANCE"
	BedStatusReserved    = "RESERVED"
)

// IsValidBedStatus 校验床位状态
func IsValidBedStatus(s string) bool {
	switch s {
	case BedStatusAvailable, BedStatusOccupied, BedStatusMaintenance, BedStatusReserved:
		return true
	}
	return false
}
