package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	billingService "github.com/dumeirei/pg-manager-backend/internal/service/billing"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BillHandler 账单管理处理器
type BillHandler struct {
	billingService *billingService.BillingService
}

// NewBillHandler 创建账单管理处理器
func NewBillHandler(billingSvc *billingService.BillingService) *BillHandler {
	return &BillHandler{billingService: billingSvc}
}

// List 账单列表
// @Summary 账单列表
// @Tags 管理-账单
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param tenant_id query int false "租客ID"
// @Param property_id query int false "物业ID"
// @Param month query string false "账期 YYYY-MM"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Bill}}
// @Router /api/admin/bills [get]
func (h *BillHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)
	tenantID, ok := handler.ParseQueryID(c, "tenant_id", "tenant")
	if !ok {
		return
	}
	propertyID, ok := handler.ParseQueryID(c, "property_id", "property")
	if !ok {
		return
	}
	month, ok := handler.ParseQueryMonth(c, "month")
	if !ok {
		return
	}

	filters := map[string]interface{}{"status": c.Query("status")}
	if tenantID != nil {
		filters["tenant_id"] = *tenantID
	}
	if propertyID != nil {
		filters["property_id"] = *propertyID
	}
	if month != nil {
		filters["billing_month"] = *month
	}

	list, total, err := h.billingService.ListBills(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Create 手工创建账单
// @Summary 创建账单
// @Tags 管理-账单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body billingService.CreateBillRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Bill}
// @Router /api/admin/bills [post]
func (h *BillHandler) Create(c *gin.Context) {
	var req billingService.CreateBillRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.CreateBill(c.Request.Context(), &req)
	handler.MustSucceed(c, err, bill)
}

// Get 账单详情
// @Summary 账单详情
// @Tags 管理-账单
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Success 200 {object} response.Response{data=models.Bill}
// @Router /api/admin/bills/{id} [get]
func (h *BillHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}

	bill, err := h.billingService.GetBill(c.Request.Context(), id)
	handler.MustSucceed(c, err, bill)
}

// Update 修改账单
// @Summary 修改账单
// @Tags 管理-账单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Param request body billingService.UpdateBillRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Bill}
// @Router /api/admin/bills/{id} [put]
func (h *BillHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}
	var req billingService.UpdateBillRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.UpdateBill(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, bill)
}

// Delete 删除账单
// @Summary 删除账单
// @Tags 管理-账单
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Success 200 {object} response.Response
// @Router /api/admin/bills/{id} [delete]
func (h *BillHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}

	err := h.billingService.DeleteBill(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Bill deleted", nil)
}

// Send 发送账单
// @Summary 发送账单
// @Description 草稿账单置为待支付并通知租客
// @Tags 管理-账单
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Success 200 {object} response.Response{data=models.Bill}
// @Router /api/admin/bills/{id}/send [post]
func (h *BillHandler) Send(c *gin.Context) {
	id, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}

	bill, err := h.billingService.SendBill(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Bill sent", bill)
}

// UpdateStatus 修改账单状态
// @Summary 修改账单状态
// @Tags 管理-账单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Param request body billingService.UpdateBillStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Bill}
// @Router /api/admin/bills/{id}/status [put]
func (h *BillHandler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}
	var req billingService.UpdateBillStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.UpdateBillStatus(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, bill)
}

// RecordPayment 登记收款
// @Summary 登记收款
// @Tags 管理-账单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Param request body billingService.RecordPaymentRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Bill}
// @Router /api/admin/bills/{id}/payments [post]
func (h *BillHandler) RecordPayment(c *gin.Context) {
	id, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}
	adminID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req billingService.RecordPaymentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.RecordPayment(c.Request.Context(), id, adminID, &req)
	handler.MustSucceedWithMessage(c, err, "Payment recorded", bill)
}

// PaymentQR 账单收款二维码
// @Summary 收款二维码
// @Tags 管理-账单
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Success 200 {object} response.Response{data=billingService.PaymentQR}
// @Router /api/admin/bills/{id}/payment-qr [get]
func (h *BillHandler) PaymentQR(c *gin.Context) {
	id, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}

	qr, err := h.billingService.PaymentQRCode(c.Request.Context(), id)
	handler.MustSucceed(c, err, qr)
}

// Export 导出月度账单
// @Summary 导出账单
// @Description 导出指定账期的账单为 xlsx，默认当月
// @Tags 管理-账单
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security Bearer
// @Param month query string false "账期 YYYY-MM"
// @Success 200 {file} binary
// @Router /api/admin/bills/export [get]
func (h *BillHandler) Export(c *gin.Context) {
	month, ok := handler.ParseQueryMonth(c, "month")
	if !ok {
		return
	}
	target := utils.FirstDayOfMonth(time.Now().UTC())
	if month != nil {
		target = *month
	}

	data, err := h.billingService.ExportBills(c.Request.Context(), target)
	if handler.HandleError(c, err) {
		return
	}

	filename := fmt.Sprintf("bills-%s.xlsx", utils.FormatMonth(target))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// RegisterRoutes 注册路由
func (h *BillHandler) RegisterRoutes(r *gin.RouterGroup) {
	bills := r.Group("/bills")
	{
		bills.GET("", h.List)
		bills.POST("", h.Create)
		bills.GET("/export", h.Export)
		bills.GET("/:id", h.Get)
		bills.PUT("/:id", h.Update)
		bills.DELETE("/:id", h.Delete)
		bills.POST("/:id/send", h.Send)
		bills.PUT("/:id/status", h.UpdateStatus)
		bills.POST("/:id/payments", h.RecordPayment)
		bills.GET("/:id/payment-qr", h.PaymentQR)
	}
}
