package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/pg-manager-backend/internal/common/database"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.NewGormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，固定为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	property *models.Property
	room     *models.Room
	beds     []*models.Bed
}

func seedInventory(t *testing.T, db *gorm.DB, bedCount int) *fixture {
	property := &models.Property{Name: "Green Nest PG", Address: "12 MG Road", City: "Bengaluru", IsActive: true}
	require.NoError(t, db.Create(property).Error)

	room := &models.Room{
		PropertyID:  property.ID,
		RoomNumber:  "101",
		Type:        models.RoomTypeDouble,
		MonthlyRent: decimal.NewFromInt(8000),
		IsActive:    true,
	}
	require.NoError(t, db.Create(room).Error)

	f := &fixture{property: property, room: room}
	for i := 1; i <= bedCount; i++ {
		bed := &models.Bed{RoomID: room.ID, BedNumber: string(rune('A' + i - 1)), Status: models.BedStatusAvailable}
		require.NoError(t, db.Create(bed).Error)
		f.beds = append(f.beds, bed)
	}
	return f
}

func seedTenant(t *testing.T, db *gorm.DB, name, email string, bedID *int64, status string) *models.Tenant {
	user := &models.User{Name: name, Email: email, PasswordHash: "x", Role: models.UserRoleTenant, Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)
	tenant := &models.Tenant{
		UserID:      user.ID,
		BedID:       bedID,
		Status:      status,
		CheckInDate: utils.DateOnly(time.Now()),
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func TestBedRepository_Occupy(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBedRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 1)
	bedID := f.beds[0].ID

	ok, err := repo.Occupy(ctx, db, bedID)
	require.NoError(t, err)
	assert.True(t, ok)

	// 已入住的床位不能再次占用
	ok, err = repo.Occupy(ctx, db, bedID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Release(ctx, db, bedID))
	bed, err := repo.GetByID(ctx, bedID)
	require.NoError(t, err)
	assert.Equal(t, models.BedStatusAvailable, bed.Status)
}

func TestBedRepository_UniqueNumberPerRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBedRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 1)

	exists, err := repo.ExistsByNumber(ctx, f.room.ID, "A", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Create(ctx, &models.Bed{RoomID: f.room.ID, BedNumber: "A", Status: models.BedStatusAvailable})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestBedRepository_CountByStatusAndAvailable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBedRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 3)

	require.NoError(t, repo.UpdateStatus(ctx, f.beds[1].ID, models.BedStatusMaintenance))

	counts, err := repo.CountByStatus(ctx, &f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.BedStatusAvailable])
	assert.Equal(t, int64(1), counts[models.BedStatusMaintenance])
	assert.Equal(t, int64(0), counts[models.BedStatusOccupied])

	available, err := repo.ListAvailable(ctx, f.property.ID)
	require.NoError(t, err)
	require.Len(t, available, 2)
	require.NotNil(t, available[0].Room)
	assert.Equal(t, f.property.ID, available[0].Room.Property.ID)
}

func TestTenantRepository_Holders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 2)

	seedTenant(t, db, "Asha", "asha@example.com", &f.beds[0].ID, models.TenantStatusNoticePeriod)
	seedTenant(t, db, "Ravi", "ravi@example.com", &f.beds[1].ID, models.TenantStatusCheckedOut)

	n, err := repo.CountHoldersOfBed(ctx, nil, f.beds[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountHoldersOfBed(ctx, nil, f.beds[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.CountHoldersInRoom(ctx, nil, f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.CountHoldersInProperty(ctx, nil, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTenantRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTenantRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 2)

	seedTenant(t, db, "Asha Rao", "asha@example.com", &f.beds[0].ID, models.TenantStatusActive)
	seedTenant(t, db, "Ravi Kumar", "ravi@example.com", &f.beds[1].ID, models.TenantStatusActive)
	seedTenant(t, db, "Old Timer", "old@example.com", nil, models.TenantStatusCheckedOut)

	list, total, err := repo.List(ctx, 0, 10, map[string]interface{}{"search": "ravi"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Ravi Kumar", list[0].User.Name)

	list, total, err = repo.List(ctx, 0, 10, map[string]interface{}{"property_id": f.property.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(ctx, 0, 10, map[string]interface{}{"status": models.TenantStatusCheckedOut})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	active, err := repo.ListActiveWithBed(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.NotNil(t, active[0].Bed.Room)
}

func TestBillRepository_UniquePerTenantMonth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBillRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 1)
	tenant := seedTenant(t, db, "Asha", "asha@example.com", &f.beds[0].ID, models.TenantStatusActive)

	month := utils.FirstDayOfMonth(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	newBill := func(no string) *models.Bill {
		return &models.Bill{
			BillNo:       no,
			TenantID:     tenant.ID,
			BillingMonth: month,
			DueDate:      month.AddDate(0, 0, 5),
			Status:       models.BillStatusSent,
			TotalAmount:  decimal.NewFromInt(8000),
			LineItems: []models.BillLineItem{
				{Type: models.LineItemTypeRent, Description: "Rent", Amount: decimal.NewFromInt(8000)},
			},
		}
	}

	require.NoError(t, repo.Create(ctx, nil, newBill("B1")))
	err := repo.Create(ctx, nil, newBill("B2"))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := repo.ExistsForMonth(ctx, tenant.ID, month)
	require.NoError(t, err)
	assert.True(t, exists)

	var itemCount int64
	db.Model(&models.BillLineItem{}).Count(&itemCount)
	assert.Equal(t, int64(1), itemCount)
}

func TestBillRepository_OverdueAndDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBillRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 3)
	t1 := seedTenant(t, db, "A", "a@example.com", &f.beds[0].ID, models.TenantStatusActive)
	t2 := seedTenant(t, db, "B", "b@example.com", &f.beds[1].ID, models.TenantStatusActive)
	t3 := seedTenant(t, db, "C", "c@example.com", &f.beds[2].ID, models.TenantStatusActive)

	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	month := utils.FirstDayOfMonth(today)
	mk := func(no string, tenantID int64, due time.Time, status string) *models.Bill {
		b := &models.Bill{BillNo: no, TenantID: tenantID, BillingMonth: month, DueDate: due, Status: status, TotalAmount: decimal.NewFromInt(1000)}
		require.NoError(t, repo.Create(ctx, nil, b))
		return b
	}
	yesterday := mk("B1", t1.ID, today.AddDate(0, 0, -1), models.BillStatusSent)
	mk("B2", t2.ID, today.AddDate(0, 0, 1), models.BillStatusSent)
	mk("B3", t3.ID, today.AddDate(0, 0, -3), models.BillStatusPaid)

	candidates, err := repo.ListOverdueCandidates(ctx, today)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, yesterday.ID, candidates[0].ID)

	marked, err := repo.MarkOverdue(ctx, yesterday.ID, today)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = repo.MarkOverdue(ctx, yesterday.ID, today)
	require.NoError(t, err)
	assert.False(t, marked)

	due, err := repo.ListDueBetween(ctx, today, today.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "B2", due[0].BillNo)
	assert.NotNil(t, due[0].Tenant.User)
}

func TestBillRepository_SumForMonth(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBillRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 2)
	t1 := seedTenant(t, db, "A", "a@example.com", &f.beds[0].ID, models.TenantStatusActive)
	t2 := seedTenant(t, db, "B", "b@example.com", &f.beds[1].ID, models.TenantStatusActive)

	month := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, nil, &models.Bill{
		BillNo: "B1", TenantID: t1.ID, BillingMonth: month, DueDate: month, Status: models.BillStatusPartial,
		TotalAmount: decimal.NewFromInt(8000), PaidAmount: decimal.NewFromInt(3000),
	}))
	require.NoError(t, repo.Create(ctx, nil, &models.Bill{
		BillNo: "B2", TenantID: t2.ID, BillingMonth: month, DueDate: month, Status: models.BillStatusCancelled,
		TotalAmount: decimal.NewFromInt(5000),
	}))

	summary, err := repo.SumForMonth(ctx, month)
	require.NoError(t, err)
	assert.True(t, summary.Billed.Equal(decimal.NewFromInt(8000)))
	assert.True(t, summary.Collected.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, int64(1), summary.Count)
}

func TestAnnouncementRepository_ListVisible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAnnouncementRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 0)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	expired := now.Add(-time.Minute)
	other := f.property.ID + 100

	require.NoError(t, repo.Create(ctx, &models.Announcement{Title: "Global", Content: "x", IsActive: true, PublishedAt: past}))
	require.NoError(t, repo.Create(ctx, &models.Announcement{Title: "Mine", Content: "x", IsActive: true, PublishedAt: past, PropertyID: &f.property.ID}))
	require.NoError(t, repo.Create(ctx, &models.Announcement{Title: "Other", Content: "x", IsActive: true, PublishedAt: past, PropertyID: &other}))
	require.NoError(t, repo.Create(ctx, &models.Announcement{Title: "Expired", Content: "x", IsActive: true, PublishedAt: past, ExpiresAt: &expired}))
	require.NoError(t, repo.Create(ctx, &models.Announcement{Title: "Inactive", Content: "x", IsActive: false, PublishedAt: past}))

	list, err := repo.ListVisible(ctx, f.property.ID, now)
	require.NoError(t, err)
	titles := make([]string, 0, len(list))
	for _, a := range list {
		titles = append(titles, a.Title)
	}
	assert.ElementsMatch(t, []string{"Global", "Mine"}, titles)

	list, err = repo.ListVisible(ctx, 0, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Global", list[0].Title)
}

func TestTestimonialRepository_ListApproved(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTestimonialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Testimonial{AuthorName: "A", Content: "ok", Rating: 4, IsApproved: true}))
	require.NoError(t, repo.Create(ctx, &models.Testimonial{AuthorName: "B", Content: "great", Rating: 5, IsApproved: true, IsFeatured: true}))
	require.NoError(t, repo.Create(ctx, &models.Testimonial{AuthorName: "C", Content: "pending", Rating: 3}))

	list, err := repo.ListApproved(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].AuthorName)
}

func TestPropertyRepository_ListAndCities(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()
	seedInventory(t, db, 2)
	require.NoError(t, repo.Create(ctx, &models.Property{Name: "Closed PG", Address: "x", City: "Pune", IsActive: false}))

	list, total, err := repo.List(ctx, 0, 10, map[string]interface{}{"keyword": "Green"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	active, err := repo.ListActiveWithRooms(ctx, "")
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Len(t, active[0].Rooms, 1)
	assert.Len(t, active[0].Rooms[0].Beds, 2)

	cities, err := repo.GetCities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bengaluru"}, cities)
}

func TestBookingRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()
	f := seedInventory(t, db, 0)

	require.NoError(t, repo.Create(ctx, &models.Booking{BookingNo: "BK1", PropertyID: f.property.ID, Name: "Meera", Phone: "9876543210", Status: models.BookingStatusPending}))
	require.NoError(t, repo.Create(ctx, &models.Booking{BookingNo: "BK2", PropertyID: f.property.ID, Name: "Kiran", Phone: "9876543211", Status: models.BookingStatusRejected}))

	list, total, err := repo.List(ctx, 0, 10, map[string]interface{}{"status": models.BookingStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Meera", list[0].Name)

	n, err := repo.CountByStatus(ctx, models.BookingStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
