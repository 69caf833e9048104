package cron

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/pg-manager-backend/internal/common/config"
	"github.com/dumeirei/pg-manager-backend/internal/common/database"
	"github.com/dumeirei/pg-manager-backend/internal/middleware"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
	"github.com/dumeirei/pg-manager-backend/internal/scheduler"
	billingService "github.com/dumeirei/pg-manager-backend/internal/service/billing"
	"github.com/dumeirei/pg-manager-backend/internal/service/notification"
)

const cronSecret = "cron-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), database.NewGormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func setupRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	svc := billingService.NewBillingService(
		db,
		repository.NewBillRepository(db),
		repository.NewTenantRepository(db),
		notification.NewLogNotifier(),
		config.PaymentConfig{},
		config.BillingConfig{DueDays: 5, ReminderDays: 3},
		nil,
	)

	r := gin.New()
	group := r.Group("/api/cron")
	group.Use(middleware.CronAuth(true, cronSecret))
	NewHandler(scheduler.NewJobs(svc, nil)).RegisterRoutes(group)
	return r
}

// seedTenant 创建一个在住租客，返回租客 ID
func seedTenant(t *testing.T, db *gorm.DB, email string) int64 {
	property := &models.Property{Name: "Sunrise PG", Address: "12 MG Road", City: "Bengaluru", IsActive: true}
	require.NoError(t, db.Create(property).Error)
	room := &models.Room{PropertyID: property.ID, RoomNumber: email, Type: models.RoomTypeSingle, MonthlyRent: decimal.NewFromInt(7000), IsActive: true}
	require.NoError(t, db.Create(room).Error)
	bed := &models.Bed{RoomID: room.ID, BedNumber: "A", Status: models.BedStatusOccupied}
	require.NoError(t, db.Create(bed).Error)
	user := &models.User{Name: "Ravi", Email: email, Role: models.UserRoleTenant, Status: models.UserStatusActive}
	require.NoError(t, db.Create(user).Error)
	tenant := &models.Tenant{UserID: user.ID, BedID: &bed.ID, Status: models.TenantStatusActive, CheckInDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, db.Create(tenant).Error)
	return tenant.ID
}

func call(t *testing.T, r *gin.Engine, method, path string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+cronSecret)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestGenerateBills_SecondRunSkips(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)
	seedTenant(t, db, "ravi@example.com")

	w, resp := call(t, r, http.MethodPost, "/api/cron/generate-bills")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, resp.Code, resp.Message)
	var first billingService.GenerateResult
	require.NoError(t, json.Unmarshal(resp.Data, &first))
	assert.Equal(t, 1, first.Processed)
	assert.Equal(t, 1, first.Generated)
	assert.Equal(t, 0, first.Skipped)
	assert.Len(t, first.BillIDs, 1)

	// GET 同样可以触发
	_, resp = call(t, r, http.MethodGet, "/api/cron/generate-bills")
	require.Equal(t, 0, resp.Code, resp.Message)
	var second billingService.GenerateResult
	require.NoError(t, json.Unmarshal(resp.Data, &second))
	assert.Equal(t, 0, second.Generated)
	assert.Equal(t, 1, second.Skipped)
	assert.Empty(t, second.Errors)

	var count int64
	require.NoError(t, db.Model(&models.Bill{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMarkOverdue_ReturnsBillIDs(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)
	tenantID := seedTenant(t, db, "asha@example.com")

	past := &models.Bill{
		BillNo:       "BILL-PAST",
		TenantID:     tenantID,
		BillingMonth: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC),
		Status:       models.BillStatusSent,
		TotalAmount:  decimal.NewFromInt(7000),
	}
	future := &models.Bill{
		BillNo:       "BILL-FUTURE",
		TenantID:     tenantID,
		BillingMonth: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		DueDate:      time.Date(2099, 1, 6, 0, 0, 0, 0, time.UTC),
		Status:       models.BillStatusSent,
		TotalAmount:  decimal.NewFromInt(7000),
	}
	require.NoError(t, db.Create(past).Error)
	require.NoError(t, db.Create(future).Error)

	_, resp := call(t, r, http.MethodGet, "/api/cron/mark-overdue")
	require.Equal(t, 0, resp.Code, resp.Message)
	var result billingService.OverdueResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 1, result.Checked)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, []int64{past.ID}, result.BillIDs)

	var reloaded models.Bill
	require.NoError(t, db.First(&reloaded, future.ID).Error)
	assert.Equal(t, models.BillStatusSent, reloaded.Status)
}

func TestSendReminders_EmptyRun(t *testing.T) {
	db := setupTestDB(t)
	r := setupRouter(t, db)

	_, resp := call(t, r, http.MethodPost, "/api/cron/send-reminders")
	require.Equal(t, 0, resp.Code, resp.Message)
	var result billingService.ReminderResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Zero(t, result.Checked)
	assert.NotNil(t, result.Reminders)
}

func TestCronRoutes_RequireSecret(t *testing.T) {
	r := setupRouter(t, setupTestDB(t))

	for _, path := range []string{"/api/cron/generate-bills", "/api/cron/mark-overdue", "/api/cron/send-reminders"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}
