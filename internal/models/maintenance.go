package models

import (
	"time"

	"gorm.io/datatypes"
)

// MaintenanceRequest 报修工单
type MaintenanceRequest struct {
	ID              int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID        int64                       `gorm:"not null;index" json:"tenant_id"`
	RoomID          int64                       `gorm:"not null;index" json:"room_id"`
	Title           string                      `gorm:"type:varchar(200);not null" json:"title"`
	Description     string                      `gorm:"type:text" json:"description"`
	Category        string                      `gorm:"type:varchar(20);not null" json:"category"`
	Status          string                      `gorm:"type:varchar(20);not null;index" json:"status"`
	Priority        string                      `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	AssignedTo      string                      `gorm:"type:varchar(100);not null;default:''" json:"assigned_to"`
	ResolutionNotes string                      `gorm:"type:text" json:"resolution_notes"`
	ResolvedAt      *time.Time                  `json:"resolved_at,omitempty"`
	Images          datatypes.JSONSlice[string] `json:"images"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Room   *Room   `gorm:"foreignKey:RoomID" json:"room,omitempty"`
}

// TableName 表名
func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

// MaintenanceCategory 报修类别
const (
	MaintenanceCategoryElectrical = "ELECTRICAL"
	MaintenanceCategoryPlumbing   = "PLUMBING"
	MaintenanceCategoryFurniture  = "FURNITURE"
	MaintenanceCategoryCleaning   = "CLEANING"
	MaintenanceCategoryAppliance  = "APPLIANCE"
	MaintenanceCategoryInternet   = "INTERNET"
	MaintenanceCategoryOther      = "OTHER"
)

// MaintenanceStatus 工单状态
const (
	MaintenanceStatusOpen       = "OPEN"
	MaintenanceStatusInProgress = "IN_PROGRESS"
	MaintenanceStatusResolved   = "RESOLVED"
	MaintenanceStatusClosed     = "CLOSED"
)

// MaintenancePriority 工单优先级
const (
	MaintenancePriorityLow    = "LOW"
	MaintenancePriorityMedium = "MEDIUM"
	MaintenancePriorityHigh   = "HIGH"
	MaintenancePriorityUrgent = "URGENT"
)

// maintenanceTransitions 允许的状态流转
var maintenanceTransitions = map[string][]string{
	MaintenanceStatusOpen:       {MaintenanceStatusInProgress, MaintenanceStatusResolved, MaintenanceStatusClosed},
	MaintenanceStatusInProgress: {MaintenanceStatusResolved, MaintenanceStatusClosed},
	MaintenanceStatusResolved:   {MaintenanceStatusClosed, MaintenanceStatusInProgress},
}

// CanTransitionTo 是否允许流转到目标状态
func (m *MaintenanceRequest) CanTransitionTo(status string) bool {
	for _, next := range maintenanceTransitions[m.Status] {
		if next == status {
			return true
		}
	}
	return false
}

// IsValidMaintenanceCategory 校验报修类别
func IsValidMaintenanceCategory(c string) bool {
	switch c {
	case MaintenanceCategoryElectrical, MaintenanceCategoryPlumbing, MaintenanceCategoryFurniture,
		MaintenanceCategoryCleaning, MaintenanceCategoryAppliance, MaintenanceCategoryInternet, MaintenanceCategoryOther:
		return true
	}
	return false
}

// IsValidMaintenancePriority 校验优先级
func IsValidMaintenancePriority(p string) bool {
	switch p {
	case MaintenancePriorityLow, MaintenancePriorityMedium, MaintenancePriorityHigh, MaintenancePriorityUrgent:
		return true
	}
	return false
}
