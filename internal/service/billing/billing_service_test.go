package billing

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/pg-manager-backend/internal/common/config"
	"github.com/dumeirei/pg-manager-backend/internal/common/database"
	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
	"github.com/dumeirei/pg-manager-backend/internal/service/notification"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	sent []*notification.Reminder
	fail map[string]bool
}

func (n *recordingNotifier) Channel() string { return "test" }

func (n *recordingNotifier) SendReminder(ctx context.Context, r *notification.Reminder) error {
	if n.fail[r.BillNo] {
		return stderrors.New("gateway unavailable")
	}
	n.sent = append(n.sent, r)
	return nil
}

type fixture struct {
	svc      *BillingService
	db       *gorm.DB
	notifier *recordingNotifier
	room     *models.Room
	seq      int
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

func setupFixture(t *testing.T) *fixture {
	return newFixture(t, setupTestDB(t))
}

func newFixture(t *testing.T, db *gorm.DB) *fixture {
	notifier := &recordingNotifier{fail: map[string]bool{}}

	svc := NewBillingService(
		db,
		repository.NewBillRepository(db),
		repository.NewTenantRepository(db),
		notifier,
		config.PaymentConfig{},
		config.BillingConfig{DueDays: 5, ReminderDays: 3},
		nil,
	)
	svc.now = func() time.Time { return fixedNow }

	property := &models.Property{Name: "Sunrise PG", Address: "12 MG Road", City: "Bengaluru", IsActive: true}
	require.NoError(t, db.Create(property).Error)
	room := &models.Room{
		PropertyID:  property.ID,
		RoomNumber:  "101",
		Type:        models.RoomTypeTriple,
		MonthlyRent: decimal.NewFromInt(7000),
		IsActive:    true,
	}
	require.NoError(t, db.Create(room).Error)
	room.Property = property

	return &fixture{svc: svc, db: db, notifier: notifier, room: room}
}

// addTenant 创建指定状态的租客，在住状态下占用一个新床位
func (f *fixture) addTenant(t *testing.T, status string) *models.Tenant {
	f.seq++
	phone := fmt.Sprintf("98765432%02d", f.seq)
	user := &models.User{
		Name:   fmt.Sprintf("Tenant %d", f.seq),
		Email:  fmt.Sprintf("tenant%d@example.com", f.seq),
		Phone:  &phone,
		Role:   models.UserRoleTenant,
		Status: models.UserStatusActive,
	}
	require.NoError(t, f.db.Create(user).Error)

	tenant := &models.Tenant{UserID: user.ID, Status: status, CheckInDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	if status != models.TenantStatusCheckedOut {
		bed := &models.Bed{RoomID: f.room.ID, BedNumber: fmt.Sprintf("B%d", f.seq), Status: models.BedStatusOccupied}
		require.NoError(t, f.db.Create(bed).Error)
		tenant.BedID = &bed.ID
	}
	require.NoError(t, f.db.Create(tenant).Error)
	return tenant
}

func (f *fixture) addBill(t *testing.T, tenantID int64, month, due time.Time, status string, total, paid int64) *models.Bill {
	bill := &models.Bill{
		BillNo:       utils.GenerateNo("BILL"),
		TenantID:     tenantID,
		BillingMonth: month,
		DueDate:      due,
		Status:       status,
		TotalAmount:  decimal.NewFromInt(total),
		PaidAmount:   decimal.NewFromInt(paid),
	}
	require.NoError(t, f.db.Create(bill).Error)
	return bill
}

func (f *fixture) reload(t *testing.T, id int64) *models.Bill {
	var bill models.Bill
	require.NoError(t, f.db.First(&bill, id).Error)
	return &bill
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestGenerateMonthlyBills_Idempotent(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	active1 := f.addTenant(t, models.TenantStatusActive)
	active2 := f.addTenant(t, models.TenantStatusActive)
	f.addTenant(t, models.TenantStatusNoticePeriod)
	f.addTenant(t, models.TenantStatusCheckedOut)

	result, err := f.svc.GenerateMonthlyBills(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-03", result.BillingMonth)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Generated)
	assert.Equal(t, 0, result.Skipped)
	assert.Len(t, result.BillIDs, 2)
	assert.Empty(t, result.Errors)

	bill, err := f.svc.GetBill(ctx, result.BillIDs[0])
	require.NoError(t, err)
	assert.Equal(t, active1.ID, bill.TenantID)
	assert.Equal(t, models.BillStatusSent, bill.Status)
	assert.Equal(t, date(2024, 3, 6), bill.DueDate.UTC())
	assert.True(t, bill.TotalAmount.Equal(dec(7000)))
	require.Len(t, bill.LineItems, 1)
	assert.Equal(t, models.LineItemTypeRent, bill.LineItems[0].Type)

	// 同一天再次执行不会产生新账单
	again, err := f.svc.GenerateMonthlyBills(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Processed)
	assert.Equal(t, 0, again.Generated)
	assert.Equal(t, 2, again.Skipped)

	var count int64
	require.NoError(t, f.db.Model(&models.Bill{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	require.NoError(t, f.db.Model(&models.Bill{}).Where("tenant_id = ?", active2.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateMonthlyBills_UniqueConstraint(t *testing.T) {
	f := setupFixture(t)
	tenant := f.addTenant(t, models.TenantStatusActive)

	f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 6), models.BillStatusDraft, 7000, 0)

	dup := &models.Bill{
		BillNo:       utils.GenerateNo("BILL"),
		TenantID:     tenant.ID,
		BillingMonth: date(2024, 3, 1),
		DueDate:      date(2024, 3, 6),
		Status:       models.BillStatusSent,
	}
	err := f.svc.billRepo.Create(context.Background(), nil, dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestMarkOverdue(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)

	dueYesterday := f.addBill(t, tenant.ID, date(2024, 1, 1), date(2024, 3, 9), models.BillStatusSent, 7000, 0)
	partial := f.addBill(t, tenant.ID, date(2024, 2, 1), date(2024, 3, 1), models.BillStatusPartial, 7000, 3000)
	dueTomorrow := f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 11), models.BillStatusSent, 7000, 0)
	paid := f.addBill(t, tenant.ID, date(2023, 12, 1), date(2023, 12, 6), models.BillStatusPaid, 7000, 7000)
	dueToday := f.addBill(t, tenant.ID, date(2023, 11, 1), date(2024, 3, 10), models.BillStatusSent, 7000, 0)

	result, err := f.svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 2, result.Marked)
	assert.ElementsMatch(t, []int64{dueYesterday.ID, partial.ID}, result.BillIDs)

	assert.Equal(t, models.BillStatusOverdue, f.reload(t, dueYesterday.ID).Status)
	assert.Equal(t, models.BillStatusOverdue, f.reload(t, partial.ID).Status)
	assert.Equal(t, models.BillStatusSent, f.reload(t, dueTomorrow.ID).Status)
	assert.Equal(t, models.BillStatusPaid, f.reload(t, paid.ID).Status)
	assert.Equal(t, models.BillStatusSent, f.reload(t, dueToday.ID).Status)

	again, err := f.svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Checked)
	assert.Zero(t, again.Marked)
}

func TestSendReminders(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)

	inTwoDays := f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 12), models.BillStatusPartial, 7000, 2000)
	today := f.addBill(t, tenant.ID, date(2024, 2, 1), date(2024, 3, 10), models.BillStatusDraft, 500, 0)
	failing := f.addBill(t, tenant.ID, date(2024, 1, 1), date(2024, 3, 13), models.BillStatusSent, 800, 0)
	f.addBill(t, tenant.ID, date(2023, 12, 1), date(2024, 3, 14), models.BillStatusSent, 7000, 0)
	f.addBill(t, tenant.ID, date(2023, 11, 1), date(2024, 3, 11), models.BillStatusPaid, 7000, 7000)
	f.addBill(t, tenant.ID, date(2023, 10, 1), date(2024, 3, 9), models.BillStatusOverdue, 7000, 0)
	f.notifier.fail[failing.BillNo] = true

	result, err := f.svc.SendReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 2, result.Sent)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], failing.BillNo)

	require.Len(t, result.Reminders, 2)
	byBill := map[int64]*notification.Reminder{}
	for _, r := range result.Reminders {
		byBill[r.BillID] = r
	}

	r := byBill[inTwoDays.ID]
	require.NotNil(t, r)
	assert.True(t, r.Balance.Equal(dec(5000)))
	assert.Equal(t, 2, r.DaysUntilDue)
	assert.Equal(t, "9876543201", r.Phone)

	r = byBill[today.ID]
	require.NotNil(t, r)
	assert.Equal(t, 0, r.DaysUntilDue)
	assert.Len(t, f.notifier.sent, 2)
}

func TestRecordPayment(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)
	bill := f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 6), models.BillStatusSent, 7000, 0)

	updated, err := f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: dec(3000), Method: models.PaymentMethodUPI, Reference: "UPI123"})
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPartial, updated.Status)
	assert.True(t, updated.Balance().Equal(dec(4000)))
	assert.Nil(t, updated.PaidAt)

	_, err = f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: dec(4001), Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, errors.ErrPaymentExceedsBalance)

	_, err = f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: dec(0), Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	// 99.999 写入 decimal(12,2) 会变成 100.00，必须在入库前拒绝
	_, err = f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: decimal.RequireFromString("3999.999"), Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, errors.ErrAmountPrecision)

	_, err = f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: dec(10), Method: "BITCOIN"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	updated, err = f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: dec(4000), Method: models.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPaid, updated.Status)
	assert.True(t, updated.Balance().IsZero())
	assert.NotNil(t, updated.PaidAt)
	assert.Len(t, updated.Payments, 2)

	_, err = f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: dec(1), Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, errors.ErrBillStatusError)

	_, err = f.svc.RecordPayment(ctx, 999, 1, &RecordPaymentRequest{Amount: dec(1), Method: models.PaymentMethodCash})
	assert.ErrorIs(t, err, errors.ErrBillNotFound)
}

func TestUpdateBillStatus(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)

	bill := f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 6), models.BillStatusPartial, 7000, 3000)
	_, err := f.svc.UpdateBillStatus(ctx, bill.ID, &UpdateBillStatusRequest{Status: models.BillStatusPaid})
	assert.ErrorIs(t, err, errors.ErrBillBalanceNotZero)

	_, err = f.svc.UpdateBillStatus(ctx, bill.ID, &UpdateBillStatusRequest{Status: models.BillStatusCancelled})
	assert.ErrorIs(t, err, errors.ErrBillHasPayments)

	_, err = f.svc.UpdateBillStatus(ctx, bill.ID, &UpdateBillStatusRequest{Status: "VOID"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	settled := f.addBill(t, tenant.ID, date(2024, 2, 1), date(2024, 2, 6), models.BillStatusOverdue, 7000, 7000)
	updated, err := f.svc.UpdateBillStatus(ctx, settled.ID, &UpdateBillStatusRequest{Status: models.BillStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusPaid, updated.Status)
	assert.NotNil(t, updated.PaidAt)

	_, err = f.svc.UpdateBillStatus(ctx, settled.ID, &UpdateBillStatusRequest{Status: models.BillStatusSent})
	assert.ErrorIs(t, err, errors.ErrBillStatusError)

	unpaid := f.addBill(t, tenant.ID, date(2024, 1, 1), date(2024, 1, 6), models.BillStatusSent, 7000, 0)
	updated, err = f.svc.UpdateBillStatus(ctx, unpaid.ID, &UpdateBillStatusRequest{Status: models.BillStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusCancelled, updated.Status)
}

func TestCreateAndUpdateBill(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)

	req := &CreateBillRequest{
		TenantID:     tenant.ID,
		BillingMonth: "2024-04",
		LineItems: []LineItemRequest{
			{Type: models.LineItemTypeRent, Amount: dec(7000)},
			{Type: models.LineItemTypeElectricity, Description: "March meter", Amount: decimal.RequireFromString("450.75")},
		},
	}
	bill, err := f.svc.CreateBill(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusDraft, bill.Status)
	assert.Equal(t, date(2024, 4, 6), bill.DueDate.UTC())
	assert.True(t, bill.TotalAmount.Equal(decimal.RequireFromString("7450.75")))
	assert.Len(t, bill.LineItems, 2)

	_, err = f.svc.CreateBill(ctx, req)
	assert.ErrorIs(t, err, errors.ErrBillExists)

	_, err = f.svc.CreateBill(ctx, &CreateBillRequest{
		TenantID:     tenant.ID,
		BillingMonth: "2024-05",
		LineItems:    []LineItemRequest{{Type: models.LineItemTypeWater, Amount: decimal.RequireFromString("120.505")}},
	})
	assert.ErrorIs(t, err, errors.ErrAmountPrecision)

	_, err = f.svc.CreateBill(ctx, &CreateBillRequest{TenantID: 999, BillingMonth: "2024-04", LineItems: req.LineItems})
	assert.ErrorIs(t, err, errors.ErrTenantNotFound)

	_, err = f.svc.CreateBill(ctx, &CreateBillRequest{TenantID: tenant.ID, BillingMonth: "April", LineItems: req.LineItems})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	bill, err = f.svc.SendBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillStatusSent, bill.Status)
	assert.NotNil(t, bill.SentAt)

	_, err = f.svc.SendBill(ctx, bill.ID)
	assert.ErrorIs(t, err, errors.ErrBillStatusError)

	_, err = f.svc.RecordPayment(ctx, bill.ID, 1, &RecordPaymentRequest{Amount: dec(5000), Method: models.PaymentMethodCash})
	require.NoError(t, err)

	_, err = f.svc.UpdateBill(ctx, bill.ID, &UpdateBillRequest{
		LineItems: []LineItemRequest{{Type: models.LineItemTypeRent, Amount: dec(4000)}},
	})
	assert.ErrorIs(t, err, errors.ErrBillTotalBelowPaid)

	notes := "Discount applied"
	due := "2024-04-10"
	bill, err = f.svc.UpdateBill(ctx, bill.ID, &UpdateBillRequest{
		DueDate:   &due,
		Notes:     &notes,
		LineItems: []LineItemRequest{{Type: models.LineItemTypeRent, Amount: dec(6500)}},
	})
	require.NoError(t, err)
	assert.True(t, bill.TotalAmount.Equal(dec(6500)))
	assert.Len(t, bill.LineItems, 1)
	assert.Equal(t, "Discount applied", bill.Notes)
	assert.Equal(t, date(2024, 4, 10), bill.DueDate.UTC())
	assert.Equal(t, models.BillStatusPartial, bill.Status)
}

func TestDeleteBill(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)

	sent := f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 6), models.BillStatusSent, 7000, 0)
	assert.ErrorIs(t, f.svc.DeleteBill(ctx, sent.ID), errors.ErrBillStatusError)

	draft := f.addBill(t, tenant.ID, date(2024, 4, 1), date(2024, 4, 6), models.BillStatusDraft, 7000, 0)
	require.NoError(t, f.svc.DeleteBill(ctx, draft.ID))
	_, err := f.svc.GetBill(ctx, draft.ID)
	assert.ErrorIs(t, err, errors.ErrBillNotFound)

	assert.ErrorIs(t, f.svc.DeleteBill(ctx, draft.ID), errors.ErrBillNotFound)
}

func TestGetTenantBill(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	owner := f.addTenant(t, models.TenantStatusActive)
	other := f.addTenant(t, models.TenantStatusActive)
	bill := f.addBill(t, owner.ID, date(2024, 3, 1), date(2024, 3, 6), models.BillStatusSent, 7000, 0)

	got, err := f.svc.GetTenantBill(ctx, owner.ID, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.ID, got.ID)

	_, err = f.svc.GetTenantBill(ctx, other.ID, bill.ID)
	assert.ErrorIs(t, err, errors.ErrBillNotFound)
}

func TestExportBills(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)
	f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 6), models.BillStatusPartial, 7000, 2500)
	f.addBill(t, tenant.ID, date(2024, 2, 1), date(2024, 2, 6), models.BillStatusPaid, 7000, 7000)

	data, err := f.svc.ExportBills(ctx, date(2024, 3, 15))
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(billSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4) // 表头、一行账单、空行、合计
	assert.Equal(t, BillExportHeader, rows[0])
	assert.Equal(t, "Tenant 1", rows[1][1])
	assert.Equal(t, "Sunrise PG", rows[1][3])
	assert.Equal(t, "101", rows[1][4])
	assert.Equal(t, "2024-03", rows[1][6])
	assert.Equal(t, "PARTIAL", rows[1][8])
	assert.Equal(t, "4500", rows[1][11])
	assert.Equal(t, "Total", rows[3][0])
}

func TestPaymentQRCode(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)
	bill := f.addBill(t, tenant.ID, date(2024, 3, 1), date(2024, 3, 6), models.BillStatusPartial, 7000, 2500)

	_, err := f.svc.PaymentQRCode(ctx, bill.ID)
	assert.ErrorIs(t, err, errors.ErrPaymentNotConfigured)

	f.svc.payment = config.PaymentConfig{UPIVPA: "sunrise@okaxis", PayeeName: "Sunrise PG", Currency: "INR"}
	qr, err := f.svc.PaymentQRCode(ctx, bill.ID)
	require.NoError(t, err)
	assert.True(t, qr.Amount.Equal(dec(4500)))
	assert.True(t, strings.HasPrefix(qr.UPILink, "upi://pay?pa=sunrise%40okaxis&pn=Sunrise%20PG&am=4500.00"))
	assert.Contains(t, qr.UPILink, "tr="+bill.BillNo)
	assert.True(t, strings.HasPrefix(qr.QRCode, "data:image/png;base64,"))

	paid := f.addBill(t, tenant.ID, date(2024, 2, 1), date(2024, 2, 6), models.BillStatusPaid, 7000, 7000)
	_, err = f.svc.PaymentQRCode(ctx, paid.ID)
	assert.ErrorIs(t, err, errors.ErrBillStatusError)
}

func TestListBills_PropertyFilterKeepsCheckedOutTenants(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	tenant := f.addTenant(t, models.TenantStatusActive)

	result, err := f.svc.GenerateMonthlyBills(ctx)
	require.NoError(t, err)
	require.Len(t, result.BillIDs, 1)
	bill := f.reload(t, result.BillIDs[0])
	require.NotNil(t, bill.PropertyID)
	assert.Equal(t, f.room.PropertyID, *bill.PropertyID)

	// 退房后床位引用清空，账单仍归属原物业
	require.NoError(t, f.db.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
		Updates(map[string]interface{}{"status": models.TenantStatusCheckedOut, "bed_id": nil}).Error)

	list, total, err := f.svc.ListBills(ctx, 0, 10, map[string]interface{}{"property_id": f.room.PropertyID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, bill.ID, list[0].ID)

	_, total, err = f.svc.ListBills(ctx, 0, 10, map[string]interface{}{"property_id": f.room.PropertyID + 1})
	require.NoError(t, err)
	assert.Zero(t, total)

	data, err := f.svc.ExportBills(ctx, fixedNow)
	require.NoError(t, err)
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()
	name, err := wb.GetCellValue(billSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Sunrise PG", name)
}

func TestCreateBill_RecordsProperty(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	active := f.addTenant(t, models.TenantStatusActive)
	former := f.addTenant(t, models.TenantStatusCheckedOut)

	bill, err := f.svc.CreateBill(ctx, &CreateBillRequest{
		TenantID:     active.ID,
		BillingMonth: "2024-04",
		LineItems:    []LineItemRequest{{Type: models.LineItemTypeRent, Amount: dec(7000)}},
	})
	require.NoError(t, err)
	require.NotNil(t, bill.PropertyID)
	assert.Equal(t, f.room.PropertyID, *bill.PropertyID)

	bill, err = f.svc.CreateBill(ctx, &CreateBillRequest{
		TenantID:     former.ID,
		BillingMonth: "2024-04",
		LineItems:    []LineItemRequest{{Type: models.LineItemTypeOther, Amount: dec(500)}},
	})
	require.NoError(t, err)
	assert.Nil(t, bill.PropertyID)
}
