package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/qrcode"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
)

const billSheet = "Bills"

// BillExportHeader 账单导出表头
var BillExportHeader = []string{
	"Bill No",
	"Tenant",
	"Phone",
	"Property",
	"Room",
	"Bed",
	"Billing Month",
	"Due Date",
	"Status",
	"Total",
	"Paid",
	"Balance",
}

// PaymentQR 账单收款二维码
type PaymentQR struct {
	BillID  int64           `json:"bill_id"`
	BillNo  string          `json:"bill_no"`
	Amount  decimal.Decimal `json:"amount"`
	UPILink string          `json:"upi_link"`
	QRCode  string          `json:"qr_code"` // data:image/png;base64,...
}

// ExportBills 导出某月账单为 Excel 工作簿
func (s *BillingService) ExportBills(ctx context.Context, month time.Time) ([]byte, error) {
	bills, err := s.billRepo.ListByMonth(ctx, utils.FirstDayOfMonth(month))
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	data, err := buildBillWorkbook(bills)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	return data, nil
}

func buildBillWorkbook(bills []*models.Bill) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(billSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(BillExportHeader))
	for i, h := range BillExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(billSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(BillExportHeader))
	if err := f.SetCellStyle(billSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	if err := f.SetColWidth(billSheet, "A", lastCol, 16); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	total, paid := decimal.Zero, decimal.Zero
	for i, bill := range bills {
		row := billRow(bill)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(billSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write bill %s: %w", bill.BillNo, err)
		}
		if bill.Status != models.BillStatusCancelled {
			total = total.Add(bill.TotalAmount)
			paid = paid.Add(bill.PaidAmount)
		}
	}

	summary := []interface{}{"Total", "", "", "", "", "", "", "", "",
		total.InexactFloat64(), paid.InexactFloat64(), total.Sub(paid).InexactFloat64()}
	cell, err := excelize.CoordinatesToCellName(1, len(bills)+3)
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(billSheet, cell, &summary); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func billRow(bill *models.Bill) []interface{} {
	var tenantName, phone, property, room, bed string
	if t := bill.Tenant; t != nil {
		if t.User != nil {
			tenantName = t.User.Name
			phone = utils.SafeString(t.User.Phone)
		}
		if t.Bed != nil {
			bed = t.Bed.BedNumber
			if t.Bed.Room != nil {
				room = t.Bed.Room.RoomNumber
				if t.Bed.Room.Property != nil {
					property = t.Bed.Room.Property.Name
				}
			}
		}
	}
	if bill.Property != nil {
		property = bill.Property.Name
	}
	return []interface{}{
		bill.BillNo,
		tenantName,
		phone,
		property,
		room,
		bed,
		utils.FormatMonth(bill.BillingMonth),
		bill.DueDate.UTC().Format("2006-01-02"),
		bill.Status,
		bill.TotalAmount.InexactFloat64(),
		bill.PaidAmount.InexactFloat64(),
		bill.Balance().InexactFloat64(),
	}
}

// PaymentQRCode 生成账单余额的 UPI 收款二维码
func (s *BillingService) PaymentQRCode(ctx context.Context, billID int64) (*PaymentQR, error) {
	if s.payment.UPIVPA == "" {
		return nil, errors.ErrPaymentNotConfigured
	}

	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.IsClosed() || !bill.Balance().IsPositive() {
		return nil, errors.ErrBillStatusError.WithMessage("Bill has no outstanding balance")
	}

	payment := &qrcode.UPIPayment{
		VPA:       s.payment.UPIVPA,
		PayeeName: s.payment.PayeeName,
		Amount:    bill.Balance(),
		Note:      "Rent " + bill.BillingMonth.UTC().Format("Jan 2006"),
		Reference: bill.BillNo,
		Currency:  s.payment.Currency,
	}
	link := payment.Link()

	dataURL, err := s.qr.GenerateDataURL(link)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	return &PaymentQR{
		BillID:  bill.ID,
		BillNo:  bill.BillNo,
		Amount:  payment.Amount,
		UPILink: link,
		QRCode:  dataURL,
	}, nil
}
