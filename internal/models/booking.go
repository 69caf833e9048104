package models

import (
	"time"
)

// Booking 公开预订请求
type Booking struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNo         string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_no"`
	PropertyID        int64      `gorm:"not null;index" json:"property_id"`
	RoomID            *int64     `gorm:"index" json:"room_id,omitempty"`
	BedID             *int64     `json:"bed_id,omitempty"`
	Name              string     `gorm:"type:varchar(100);not null" json:"name"`
	Phone             string     `gorm:"type:varchar(20);not null" json:"phone"`
	Email             string     `gorm:"type:varchar(255);not null;default:''" json:"email"`
	PreferredRoomType string     `gorm:"type:varchar(20);not null;default:''" json:"preferred_room_type"`
	MoveInDate        *time.Time `gorm:"type:date" json:"move_in_date,omitempty"`
	Message           string     `gorm:"type:text" json:"message"`
	Status            string     `gorm:"type:varchar(20);not null;index" json:"status"`
	AdminNotes        string     `gorm:"type:text" json:"admin_notes"`
	ConvertedTenantID *int64     `json:"converted_tenant_id,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	Room     *Room     `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName 表名
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatus 预订状态
const (
	BookingStatusPending   = "PENDING"
	BookingStatusContacted = "CONTACTED"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusConverted = "CONVERTED"
	BookingStatusRejected  = "REJECTED"
	BookingStatusCancelled = "CANCELLED"
)

// IsFinal 是否为终态
func (b *Booking) IsFinal() bool {
	switch b.Status {
	case BookingStatusConverted, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}
