// Package models 定义数据模型
package models

import (
	"time"
)

// User 用户模型，管理员与租客共用
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone        *string    `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);not null;index" json:"role"`
	Status       int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserRole 用户角色
const (
	UserRoleAdmin  = "admin"
	UserRoleTenant = "tenant"
)

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// IsActive 是否启用
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// All 返回需要迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Property{},
		&Room{},
		&Bed{},
		&Tenant{},
		&Bill{},
		&BillLineItem{},
		&Payment{},
		&SecurityDeposit{},
		&DepositDeduction{},
		&DepositRefund{},
		&MaintenanceRequest{},
		&Testimonial{},
		&Announcement{},
		&Booking{},
	}
}
