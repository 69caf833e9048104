// Package admin 管理端服务
package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// DashboardService 管理员仪表盘服务
type DashboardService struct {
	propertyRepo    *repository.PropertyRepository
	roomRepo        *repository.RoomRepository
	bedRepo         *repository.BedRepository
	tenantRepo      *repository.TenantRepository
	billRepo        *repository.BillRepository
	maintenanceRepo *repository.MaintenanceRepository
	bookingRepo     *repository.BookingRepository
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(
	propertyRepo *repository.PropertyRepository,
	roomRepo *repository.RoomRepository,
	bedRepo *repository.BedRepository,
	tenantRepo *repository.TenantRepository,
	billRepo *repository.BillRepository,
	maintenanceRepo *repository.MaintenanceRepository,
	bookingRepo *repository.BookingRepository,
	m *metrics.Metrics,
) *DashboardService {
	return &DashboardService{
		propertyRepo:    propertyRepo,
		roomRepo:        roomRepo,
		bedRepo:         bedRepo,
		tenantRepo:      tenantRepo,
		billRepo:        billRepo,
		maintenanceRepo: maintenanceRepo,
		bookingRepo:     bookingRepo,
		metrics:         m,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Overview 仪表盘概览数据
type Overview struct {
	// 房源统计
	TotalProperties int64            `json:"total_properties"`
	TotalRooms      int64            `json:"total_rooms"`
	TotalBeds       int64            `json:"total_beds"`
	BedsByStatus    map[string]int64 `json:"beds_by_status"`
	OccupancyRate   float64          `json:"occupancy_rate"` // 百分比，保留两位小数

	// 租客统计
	TenantsByStatus map[string]int64 `json:"tenants_by_status"`

	// 当月账单
	BillingMonth     string          `json:"billing_month"`
	MonthBilled      decimal.Decimal `json:"month_billed"`
	MonthCollected   decimal.Decimal `json:"month_collected"`
	MonthOutstanding decimal.Decimal `json:"month_outstanding"`
	MonthBillCount   int64           `json:"month_bill_count"`
	OverdueBills     int64           `json:"overdue_bills"`

	OpenMaintenance int64 `json:"open_maintenance"`
	PendingBookings int64 `json:"pending_bookings"`
}

// GetOverview 获取仪表盘概览
func (s *DashboardService) GetOverview(ctx context.Context) (*Overview, error) {
	overview := &Overview{}
	var err error

	if overview.TotalProperties, err = s.propertyRepo.Count(ctx); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if overview.TotalRooms, err = s.roomRepo.CountByProperty(ctx, nil); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if overview.BedsByStatus, err = s.bedRepo.CountByStatus(ctx, nil); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	for _, n := range overview.BedsByStatus {
		overview.TotalBeds += n
	}
	overview.OccupancyRate = OccupancyRate(overview.BedsByStatus[models.BedStatusOccupied], overview.TotalBeds)
	s.metrics.SetBedsByStatus(overview.BedsByStatus)

	if overview.TenantsByStatus, err = s.tenantRepo.CountByStatus(ctx); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	month := utils.FirstDayOfMonth(s.now())
	summary, err := s.billRepo.SumForMonth(ctx, month)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	overview.BillingMonth = utils.FormatMonth(month)
	overview.MonthBilled = summary.Billed
	overview.MonthCollected = summary.Collected
	overview.MonthOutstanding = summary.Billed.Sub(summary.Collected)
	overview.MonthBillCount = summary.Count

	if overview.OverdueBills, err = s.billRepo.CountByStatus(ctx, models.BillStatusOverdue); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if overview.OpenMaintenance, err = s.maintenanceRepo.CountOpen(ctx); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if overview.PendingBookings, err = s.bookingRepo.CountByStatus(ctx, models.BookingStatusPending); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return overview, nil
}

// OccupancyRate 入住率（百分比）
func OccupancyRate(occupied, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(occupied * 100).Div(decimal.NewFromInt(total)).Round(2).InexactFloat64()
}
