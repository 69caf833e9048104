package models

import (
	"time"
)

// Tenant 租客模型
type Tenant struct {
	ID                    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID                int64      `gorm:"not null;index" json:"user_id"`
	BedID                 *int64     `gorm:"index" json:"bed_id,omitempty"`
	Status                string     `gorm:"type:varchar(20);not null;index" json:"status"`
	CheckInDate           time.Time  `gorm:"type:date;not null" json:"check_in_date"`
	NoticeGivenAt         *time.Time `json:"notice_given_at,omitempty"`
	ExpectedCheckout      *time.Time `gorm:"type:date" json:"expected_checkout,omitempty"`
	CheckedOutAt          *time.Time `json:"checked_out_at,omitempty"`
	NoticePeriodDays      int        `gorm:"not null;default:30" json:"notice_period_days"`
	EmergencyContactName  string     `gorm:"type:varchar(100);not null;default:''" json:"emergency_contact_name"`
	EmergencyContactPhone string     `gorm:"type:varchar(20);not null;default:''" json:"emergency_contact_phone"`
	IDProofType           string     `gorm:"type:varchar(30);not null;default:''" json:"id_proof_type"`
	IDProofEncrypted      string     `gorm:"column:id_proof_number;type:text" json:"-"`
	Occupation            string     `gorm:"type:varchar(100);not null;default:''" json:"occupation"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// IDProofNumber 解密后的证件号，仅用于输出
	IDProofNumber string `gorm:"-" json:"id_proof_number,omitempty"`

	// 关联
	User    *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Bed     *Bed             `gorm:"foreignKey:BedID" json:"bed,omitempty"`
	Deposit *SecurityDeposit `gorm:"foreignKey:TenantID" json:"deposit,omitempty"`
}

// TableName 表名
func (Tenant) TableName() string {
	return "tenants"
}

// TenantStatus 租客状态
const (
	TenantStatusActive       = "ACTIVE"
	TenantStatusNoticePeriod = "NOTICE_PERIOD"
	TenantStatusCheckedOut   = "CHECKED_OUT"
)

// HoldsBed 租客是否仍占用床位
func (t *Tenant) HoldsBed() bool {
	return t.Status == TenantStatusActive || t.Status == TenantStatusNoticePeriod
}

// BedHoldingStatuses 占用床位的租客状态
var BedHoldingStatuses = []string{TenantStatusActive, TenantStatusNoticePeriod}
