package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill 月度账单模型
type Bill struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BillNo       string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"bill_no"`
	TenantID     int64           `gorm:"not null;uniqueIndex:idx_bills_tenant_month" json:"tenant_id"`
	// PropertyID 开账单时租客所在物业，退房后仍保留
	PropertyID   *int64          `gorm:"index" json:"property_id,omitempty"`
	BillingMonth time.Time       `gorm:"type:date;not null;uniqueIndex:idx_bills_tenant_month" json:"billing_month"`
	DueDate      time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Status       string          `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_amount"`
	PaidAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	Notes        string          `gorm:"type:text" json:"notes"`
	SentAt       *time.Time      `json:"sent_at,omitempty"`
	PaidAt       *time.Time      `json:"paid_at,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Tenant    *Tenant        `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Property  *Property      `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	LineItems []BillLineItem `gorm:"foreignKey:BillID" json:"line_items,omitempty"`
	Payments  []Payment      `gorm:"foreignKey:BillID" json:"payments,omitempty"`
}

// TableName 表名
func (Bill) TableName() string {
	return "bills"
}

// BillStatus 账单状态
const (
	BillStatusDraft     = "DRAFT"
	BillStatusSent      = "SENT"
	BillStatusPartial   = "PARTIAL"
	BillStatusPaid      = "PAID"
	BillStatusOverdue   = "OVERDUE"
	BillStatusCancelled = "CANCELLED"
)

// IsValidBillStatus 校验账单状态
func IsValidBillStatus(s string) bool {
	switch s {
	case BillStatusDraft, BillStatusSent, BillStatusPartial, BillStatusPaid, BillStatusOverdue, BillStatusCancelled:
		return true
	}
	return false
}

// Balance 未付余额
func (b *Bill) Balance() decimal.Decimal {
	return b.TotalAmount.Sub(b.PaidAmount)
}

// IsClosed 账单是否已结清或取消
func (b *Bill) IsClosed() bool {
	return b.Status == BillStatusPaid || b.Status == BillStatusCancelled
}

// BillLineItem 账单明细
type BillLineItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BillID      int64           `gorm:"not null;index" json:"bill_id"`
	Type        string          `gorm:"type:varchar(20);not null" json:"type"`
	Description string          `gorm:"type:varchar(255);not null;default:''" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (BillLineItem) TableName() string {
	return "bill_line_items"
}

// LineItemType 明细类型
const (
	LineItemTypeRent        = "RENT"
	LineItemTypeElectricity = "ELECTRICITY"
	LineItemTypeWater       = "WATER"
	LineItemTypeFood        = "FOOD"
	LineItemTypeMaintenance = "MAINTENANCE"
	LineItemTypeLateFee     = "LATE_FEE"
	LineItemTypeOther       = "OTHER"
)

// IsValidLineItemType 校验明细类型
func IsValidLineItemType(t string) bool {
	switch t {
	case LineItemTypeRent, LineItemTypeElectricity, LineItemTypeWater, LineItemTypeFood,
		LineItemTypeMaintenance, LineItemTypeLateFee, LineItemTypeOther:
		return true
	}
	return false
}

// Payment 收款记录
type Payment struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	BillID     int64           `gorm:"not null;index" json:"bill_id"`
	TenantID   int64           `gorm:"not null;index" json:"tenant_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method     string          `gorm:"type:varchar(20);not null" json:"method"`
	Reference  string          `gorm:"type:varchar(100);not null;default:''" json:"reference"`
	PaidAt     time.Time       `gorm:"not null" json:"paid_at"`
	RecordedBy int64           `gorm:"not null;default:0" json:"recorded_by"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// PaymentMethod 收款方式
const (
	PaymentMethodCash         = "CASH"
	PaymentMethodUPI          = "UPI"
	PaymentMethodBankTransfer = "BANK_TRANSFER"
	PaymentMethodCard         = "CARD"
)

// HasCentPrecision 金额最多两位小数，与 decimal(12,2) 列一致
func HasCentPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}

// IsValidPaymentMethod 校验收款方式
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodUPI, PaymentMethodBankTransfer, PaymentMethodCard:
		return true
	}
	return false
}
