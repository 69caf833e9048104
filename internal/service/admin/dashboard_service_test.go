package admin

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/pg-manager-backend/internal/common/database"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

func setupDashboardTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.NewGormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newDashboardService(db *gorm.DB, m *metrics.Metrics) *DashboardService {
	svc := NewDashboardService(
		repository.NewPropertyRepository(db),
		repository.NewRoomRepository(db),
		repository.NewBedRepository(db),
		repository.NewTenantRepository(db),
		repository.NewBillRepository(db),
		repository.NewMaintenanceRepository(db),
		repository.NewBookingRepository(db),
		m,
	)
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestOccupancyRate(t *testing.T) {
	assert.Equal(t, 0.0, OccupancyRate(0, 0))
	assert.Equal(t, 50.0, OccupancyRate(2, 4))
	assert.Equal(t, 33.33, OccupancyRate(1, 3))
	assert.Equal(t, 100.0, OccupancyRate(3, 3))
}

func TestDashboardService_GetOverview(t *testing.T) {
	db := setupDashboardTestDB(t)
	reg := prometheus.NewRegistry()
	svc := newDashboardService(db, metrics.New("test", reg))
	ctx := context.Background()

	property := &models.Property{Name: "Sunrise PG", Address: "12 MG Road", City: "Bengaluru", IsActive: true}
	require.NoError(t, db.Create(property).Error)
	room := &models.Room{PropertyID: property.ID, RoomNumber: "101", Type: models.RoomTypeTriple, MonthlyRent: decimal.NewFromInt(6000), IsActive: true}
	require.NoError(t, db.Create(room).Error)
	beds := []models.Bed{
		{RoomID: room.ID, BedNumber: "A", Status: models.BedStatusOccupied},
		{RoomID: room.ID, BedNumber: "B", Status: models.BedStatusOccupied},
		{RoomID: room.ID, BedNumber: "C", Status: models.BedStatusAvailable},
		{RoomID: room.ID, BedNumber: "D", Status: models.BedStatusMaintenance},
	}
	for i := range beds {
		require.NoError(t, db.Create(&beds[i]).Error)
	}

	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	statuses := []string{models.TenantStatusActive, models.TenantStatusNoticePeriod, models.TenantStatusCheckedOut}
	for i, status := range statuses {
		user := &models.User{Name: "T", Email: string(rune('a'+i)) + "@example.com", Role: models.UserRoleTenant, Status: models.UserStatusActive}
		require.NoError(t, db.Create(user).Error)
		tenant := &models.Tenant{UserID: user.ID, Status: status, CheckInDate: march}
		require.NoError(t, db.Create(tenant).Error)

		bill := &models.Bill{
			BillNo:       "BILL" + string(rune('0'+i)),
			TenantID:     tenant.ID,
			BillingMonth: march,
			DueDate:      march.AddDate(0, 0, 5),
			Status:       models.BillStatusSent,
			TotalAmount:  decimal.NewFromInt(6000),
			PaidAmount:   decimal.NewFromInt(int64(i) * 1000),
		}
		if i == 2 {
			bill.Status = models.BillStatusCancelled
		}
		if i == 1 {
			bill.Status = models.BillStatusOverdue
		}
		require.NoError(t, db.Create(bill).Error)

		if i == 0 {
			require.NoError(t, db.Create(&models.MaintenanceRequest{
				TenantID: tenant.ID, RoomID: room.ID, Title: "Fan noise",
				Category: models.MaintenanceCategoryElectrical, Status: models.MaintenanceStatusOpen,
			}).Error)
		}
	}
	require.NoError(t, db.Create(&models.Booking{BookingNo: "BK1", PropertyID: property.ID, Name: "P", Phone: "9876543210", Status: models.BookingStatusPending}).Error)
	require.NoError(t, db.Create(&models.Booking{BookingNo: "BK2", PropertyID: property.ID, Name: "Q", Phone: "9876543211", Status: models.BookingStatusRejected}).Error)

	overview, err := svc.GetOverview(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), overview.TotalProperties)
	assert.Equal(t, int64(1), overview.TotalRooms)
	assert.Equal(t, int64(4), overview.TotalBeds)
	assert.Equal(t, int64(2), overview.BedsByStatus[models.BedStatusOccupied])
	assert.Equal(t, 50.0, overview.OccupancyRate)
	assert.Equal(t, int64(1), overview.TenantsByStatus[models.TenantStatusNoticePeriod])

	assert.Equal(t, "2024-03", overview.BillingMonth)
	assert.True(t, overview.MonthBilled.Equal(decimal.NewFromInt(12000)), overview.MonthBilled.String())
	assert.True(t, overview.MonthCollected.Equal(decimal.NewFromInt(1000)))
	assert.True(t, overview.MonthOutstanding.Equal(decimal.NewFromInt(11000)))
	assert.Equal(t, int64(2), overview.MonthBillCount)
	assert.Equal(t, int64(1), overview.OverdueBills)
	assert.Equal(t, int64(1), overview.OpenMaintenance)
	assert.Equal(t, int64(1), overview.PendingBookings)

	count, err := testutil.GatherAndCount(reg, "test_beds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestDashboardService_Empty(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardService(db, nil)

	overview, err := svc.GetOverview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, overview.TotalBeds)
	assert.Zero(t, overview.OccupancyRate)
	assert.True(t, overview.MonthOutstanding.IsZero())
}
