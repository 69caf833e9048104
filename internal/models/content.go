package models

import (
	"time"
)

// Testimonial 住户评价
type Testimonial struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorName string    `gorm:"type:varchar(100);not null" json:"author_name"`
	UserID     *int64    `gorm:"index" json:"user_id,omitempty"`
	PropertyID *int64    `gorm:"index" json:"property_id,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Rating     int       `gorm:"not null" json:"rating"`
	IsApproved bool      `gorm:"not null;default:false;index" json:"is_approved"`
	IsFeatured bool      `gorm:"not null;default:false" json:"is_featured"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// TableName 表名
func (Testimonial) TableName() string {
	return "testimonials"
}

// Announcement 公告，PropertyID 为空表示全部物业
type Announcement struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  *int64     `gorm:"index" json:"property_id,omitempty"`
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	PublishedAt time.Time  `gorm:"not null" json:"published_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// TableName 表名
func (Announcement) TableName() string {
	return "announcements"
}
