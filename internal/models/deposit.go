package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SecurityDeposit 押金模型，每个租客一条
type SecurityDeposit struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID        int64           `gorm:"uniqueIndex;not null" json:"tenant_id"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid"`
	AmountRefunded  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_refunded"`
	DeductionsTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"deductions_total"`
	Status          string          `gorm:"type:varchar(30);not null;index" json:"status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Tenant     *Tenant            `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Deductions []DepositDeduction `gorm:"foreignKey:DepositID" json:"deductions,omitempty"`
	Refunds    []DepositRefund    `gorm:"foreignKey:DepositID" json:"refunds,omitempty"`
}

// TableName 表名
func (SecurityDeposit) TableName() string {
	return "security_deposits"
}

// DepositStatus 押金状态
const (
	DepositStatusHeld              = "held"
	DepositStatusPartiallyRefunded = "partially_refunded"
	DepositStatusRefunded          = "refunded"
)

// Refundable 可退基数（已付减扣款）
func (d *SecurityDeposit) Refundable() decimal.Decimal {
	return d.AmountPaid.Sub(d.DeductionsTotal)
}

// RemainingRefundable 剩余可退金额
func (d *SecurityDeposit) RemainingRefundable() decimal.Decimal {
	return d.Refundable().Sub(d.AmountRefunded)
}

// DepositDeduction 押金扣款
type DepositDeduction struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	DepositID int64           `gorm:"not null;index" json:"deposit_id"`
	Reason    string          `gorm:"type:varchar(255);not null" json:"reason"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedBy int64           `gorm:"not null;default:0" json:"created_by"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (DepositDeduction) TableName() string {
	return "deposit_deductions"
}

// DepositRefund 押金退款记录
type DepositRefund struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	DepositID  int64           `gorm:"not null;index" json:"deposit_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method     string          `gorm:"type:varchar(20);not null" json:"method"`
	Reference  string          `gorm:"type:varchar(100);not null;default:''" json:"reference"`
	RefundedAt time.Time       `gorm:"not null" json:"refunded_at"`
	CreatedBy  int64           `gorm:"not null;default:0" json:"created_by"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (DepositRefund) TableName() string {
	return "deposit_refunds"
}
