package booking

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/pg-manager-backend/internal/common/database"
	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
	tenantService "github.com/dumeirei/pg-manager-backend/internal/service/tenant"
)

type fixture struct {
	db       *gorm.DB
	svc      *BookingService
	property *models.Property
	room     *models.Room
	beds     []models.Bed
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.NewGormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	f := &fixture{db: db}
	f.property = &models.Property{Name: "Sunrise PG", Address: "12 MG Road", City: "Bengaluru", IsActive: true}
	require.NoError(t, db.Create(f.property).Error)
	f.room = &models.Room{PropertyID: f.property.ID, RoomNumber: "101", Type: models.RoomTypeDouble, MonthlyRent: decimal.NewFromInt(8000), IsActive: true}
	require.NoError(t, db.Create(f.room).Error)
	f.beds = []models.Bed{
		{RoomID: f.room.ID, BedNumber: "A", Status: models.BedStatusAvailable},
		{RoomID: f.room.ID, BedNumber: "B", Status: models.BedStatusMaintenance},
	}
	for i := range f.beds {
		require.NoError(t, db.Create(&f.beds[i]).Error)
	}

	tenants := tenantService.NewTenantService(
		db,
		repository.NewTenantRepository(db),
		repository.NewBedRepository(db),
		repository.NewDepositRepository(db),
		nil,
		nil,
		bcrypt.MinCost,
		30,
	)
	f.svc = NewBookingService(
		db,
		repository.NewBookingRepository(db),
		repository.NewPropertyRepository(db),
		repository.NewRoomRepository(db),
		repository.NewBedRepository(db),
		tenants,
	)
	return f
}

func (f *fixture) book(t *testing.T, email string) *models.Booking {
	b, err := f.svc.Create(context.Background(), &CreateBookingRequest{
		PropertyID: f.property.ID,
		RoomID:     &f.room.ID,
		Name:       "Priya Sharma",
		Phone:      "+91 98765 43210",
		Email:      email,
		MoveInDate: "2024-04-01",
	})
	require.NoError(t, err)
	return b
}

func TestBookingService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	b := f.book(t, "Priya@Example.com")
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Contains(t, b.BookingNo, "BK")
	assert.Equal(t, "priya@example.com", b.Email)
	require.NotNil(t, b.MoveInDate)

	_, err := f.svc.Create(ctx, &CreateBookingRequest{PropertyID: f.property.ID, Name: "X", Phone: "12345"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	_, err = f.svc.Create(ctx, &CreateBookingRequest{PropertyID: 999, Name: "X", Phone: "9876543210"})
	assert.ErrorIs(t, err, errors.ErrPropertyNotFound)

	other := &models.Property{Name: "Moonlight PG", Address: "1 Park St", City: "Pune", IsActive: true}
	require.NoError(t, f.db.Create(other).Error)
	_, err = f.svc.Create(ctx, &CreateBookingRequest{PropertyID: other.ID, RoomID: &f.room.ID, Name: "X", Phone: "9876543210"})
	assert.ErrorIs(t, err, errors.ErrRoomNotFound)

	require.NoError(t, f.db.Model(other).Update("is_active", false).Error)
	_, err = f.svc.Create(ctx, &CreateBookingRequest{PropertyID: other.ID, Name: "X", Phone: "9876543210"})
	assert.ErrorIs(t, err, errors.ErrPropertyInactive)
}

func TestBookingService_UpdateStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, "")

	notes := "Called, visiting Saturday"
	updated, err := f.svc.UpdateStatus(ctx, b.ID, &UpdateStatusRequest{Status: models.BookingStatusContacted, AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusContacted, updated.Status)
	assert.Equal(t, notes, updated.AdminNotes)

	_, err = f.svc.UpdateStatus(ctx, b.ID, &UpdateStatusRequest{Status: models.BookingStatusConverted})
	assert.ErrorIs(t, err, errors.ErrBookingStatusError)

	_, err = f.svc.UpdateStatus(ctx, b.ID, &UpdateStatusRequest{Status: "ARCHIVED"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	_, err = f.svc.UpdateStatus(ctx, b.ID, &UpdateStatusRequest{Status: models.BookingStatusRejected})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, b.ID, &UpdateStatusRequest{Status: models.BookingStatusConfirmed})
	assert.ErrorIs(t, err, errors.ErrBookingStatusError)

	_, err = f.svc.UpdateStatus(ctx, 999, &UpdateStatusRequest{Status: models.BookingStatusConfirmed})
	assert.ErrorIs(t, err, errors.ErrBookingNotFound)
}

func TestBookingService_Convert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, "priya@example.com")

	result, err := f.svc.Convert(ctx, b.ID, &ConvertRequest{BedID: f.beds[0].ID})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConverted, result.Booking.Status)
	require.NotNil(t, result.Booking.ConvertedTenantID)
	assert.Equal(t, result.Tenant.ID, *result.Booking.ConvertedTenantID)
	assert.Len(t, result.TemporaryPassword, 10)
	assert.Equal(t, "2024-04-01", result.Tenant.CheckInDate.Format("2006-01-02"))

	var bed models.Bed
	require.NoError(t, f.db.First(&bed, f.beds[0].ID).Error)
	assert.Equal(t, models.BedStatusOccupied, bed.Status)

	var user models.User
	require.NoError(t, f.db.Where("email = ?", "priya@example.com").First(&user).Error)
	assert.Equal(t, models.UserRoleTenant, user.Role)

	_, err = f.svc.Convert(ctx, b.ID, &ConvertRequest{BedID: f.beds[0].ID})
	assert.ErrorIs(t, err, errors.ErrBookingConverted)
}

func TestBookingService_ConvertRollsBack(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	noEmail := f.book(t, "")
	_, err := f.svc.Convert(ctx, noEmail.ID, &ConvertRequest{BedID: f.beds[0].ID})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	b := f.book(t, "anil@example.com")
	_, err = f.svc.Convert(ctx, b.ID, &ConvertRequest{BedID: f.beds[1].ID})
	assert.ErrorIs(t, err, errors.ErrBedNotAvailable)

	reloaded, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, reloaded.Status)
	assert.Nil(t, reloaded.ConvertedTenantID)

	var count int64
	require.NoError(t, f.db.Model(&models.User{}).Where("email = ?", "anil@example.com").Count(&count).Error)
	assert.Zero(t, count)
}

func TestBookingService_ConvertRejectsBedInOtherProperty(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	b := f.book(t, "meera@example.com")

	other := &models.Property{Name: "Lakeview PG", Address: "4 Lake Road", City: "Pune", IsActive: true}
	require.NoError(t, f.db.Create(other).Error)
	room := &models.Room{PropertyID: other.ID, RoomNumber: "201", Type: models.RoomTypeSingle, MonthlyRent: decimal.NewFromInt(9000), IsActive: true}
	require.NoError(t, f.db.Create(room).Error)
	bed := &models.Bed{RoomID: room.ID, BedNumber: "A", Status: models.BedStatusAvailable}
	require.NoError(t, f.db.Create(bed).Error)

	_, err := f.svc.Convert(ctx, b.ID, &ConvertRequest{BedID: bed.ID})
	assert.ErrorIs(t, err, errors.ErrBookingBedMismatch)

	_, err = f.svc.Convert(ctx, b.ID, &ConvertRequest{BedID: 999})
	assert.ErrorIs(t, err, errors.ErrBedNotFound)

	var reloaded models.Bed
	require.NoError(t, f.db.First(&reloaded, bed.ID).Error)
	assert.Equal(t, models.BedStatusAvailable, reloaded.Status)
}
