// Package tenant 提供租客端 HTTP Handler
package tenant

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	billingService "github.com/dumeirei/pg-manager-backend/internal/service/billing"
	contentService "github.com/dumeirei/pg-manager-backend/internal/service/content"
	depositService "github.com/dumeirei/pg-manager-backend/internal/service/deposit"
	maintenanceService "github.com/dumeirei/pg-manager-backend/internal/service/maintenance"
	tenantService "github.com/dumeirei/pg-manager-backend/internal/service/tenant"
)

// Handler 租客端处理器
type Handler struct {
	tenantService       *tenantService.TenantService
	billingService      *billingService.BillingService
	depositService      *depositService.DepositService
	maintenanceService  *maintenanceService.MaintenanceService
	announcementService *contentService.AnnouncementService
	testimonialService  *contentService.TestimonialService
}

// NewHandler 创建租客端处理器
func NewHandler(
	tenantSvc *tenantService.TenantService,
	billingSvc *billingService.BillingService,
	depositSvc *depositService.DepositService,
	maintenanceSvc *maintenanceService.MaintenanceService,
	announcementSvc *contentService.AnnouncementService,
	testimonialSvc *contentService.TestimonialService,
) *Handler {
	return &Handler{
		tenantService:       tenantSvc,
		billingService:      billingSvc,
		depositService:      depositSvc,
		maintenanceService:  maintenanceSvc,
		announcementService: announcementSvc,
		testimonialService:  testimonialSvc,
	}
}

// currentTenant 当前登录用户的租约，失败时已写入响应
func (h *Handler) currentTenant(c *gin.Context) (*models.Tenant, bool) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return nil, false
	}
	tenant, err := h.tenantService.GetCurrentTenant(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return nil, false
	}
	return tenant, true
}

// GetMe 当前租约详情
// @Summary 我的租约
// @Tags 租客
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/v1/tenant/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	tenant, ok := h.currentTenant(c)
	if !ok {
		return
	}
	handler.MustSucceed(c, nil, tenant)
}

// GiveNotice 提交退租通知
// @Summary 提交退租通知
// @Tags 租客
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/v1/tenant/notice [post]
func (h *Handler) GiveNotice(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.GiveNoticeByUser(c.Request.Context(), userID)
	handler.MustSucceedWithMessage(c, err, "Notice submitted", tenant)
}

// ListBills 我的账单
// @Summary 我的账单
// @Tags 租客
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Bill}}
// @Router /api/v1/tenant/bills [get]
func (h *Handler) ListBills(c *gin.Context) {
	tenant, ok := h.currentTenant(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	filters := map[string]interface{}{"tenant_id": tenant.ID}
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	list, total, err := h.billingService.ListBills(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetBill 账单详情
// @Summary 账单详情
// @Tags 租客
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Success 200 {object} response.Response{data=models.Bill}
// @Router /api/v1/tenant/bills/{id} [get]
func (h *Handler) GetBill(c *gin.Context) {
	billID, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}
	tenant, ok := h.currentTenant(c)
	if !ok {
		return
	}

	bill, err := h.billingService.GetTenantBill(c.Request.Context(), tenant.ID, billID)
	handler.MustSucceed(c, err, bill)
}

// GetBillPaymentQR 账单 UPI 收款码
// @Summary 账单收款码
// @Tags 租客
// @Produce json
// @Security Bearer
// @Param id path int true "账单ID"
// @Success 200 {object} response.Response{data=billingService.PaymentQR}
// @Router /api/v1/tenant/bills/{id}/payment-qr [get]
func (h *Handler) GetBillPaymentQR(c *gin.Context) {
	billID, ok := handler.ParseID(c, "bill")
	if !ok {
		return
	}
	tenant, ok := h.currentTenant(c)
	if !ok {
		return
	}
	if _, err := h.billingService.GetTenantBill(c.Request.Context(), tenant.ID, billID); handler.HandleError(c, err) {
		return
	}

	qr, err := h.billingService.PaymentQRCode(c.Request.Context(), billID)
	handler.MustSucceed(c, err, qr)
}

// GetDeposit 我的押金
// @Summary 我的押金
// @Tags 租客
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.SecurityDeposit}
// @Router /api/v1/tenant/deposit [get]
func (h *Handler) GetDeposit(c *gin.Context) {
	tenant, ok := h.currentTenant(c)
	if !ok {
		return
	}

	deposit, err := h.depositService.GetDeposit(c.Request.Context(), tenant.ID)
	handler.MustSucceed(c, err, deposit)
}

// CreateMaintenance 提交报修
// @Summary 提交报修
// @Tags 租客
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body maintenanceService.CreateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.MaintenanceRequest}
// @Router /api/v1/tenant/maintenance [post]
func (h *Handler) CreateMaintenance(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req maintenanceService.CreateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	request, err := h.maintenanceService.Create(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, request)
}

// ListMaintenance 我的报修
// @Summary 我的报修
// @Tags 租客
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.MaintenanceRequest}}
// @Router /api/v1/tenant/maintenance [get]
func (h *Handler) ListMaintenance(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	p := handler.BindPagination(c)

	list, total, err := h.maintenanceService.ListMine(c.Request.Context(), userID, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// ListAnnouncements 公告
// @Summary 公告
// @Tags 租客
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.Announcement}
// @Router /api/v1/tenant/announcements [get]
func (h *Handler) ListAnnouncements(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	list, err := h.announcementService.ListForTenant(c.Request.Context(), userID)
	handler.MustSucceed(c, err, list)
}

// SubmitTestimonial 租客提交评价
// @Summary 提交评价
// @Tags 租客
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body contentService.SubmitTestimonialRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Testimonial}
// @Router /api/v1/tenant/testimonials [post]
func (h *Handler) SubmitTestimonial(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req contentService.SubmitTestimonialRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	testimonial, err := h.testimonialService.Submit(c.Request.Context(), &userID, &req)
	handler.MustSucceedWithMessage(c, err, "Thank you! Your testimonial will appear after review", testimonial)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.GetMe)
	r.POST("/notice", h.GiveNotice)
	r.GET("/bills", h.ListBills)
	r.GET("/bills/:id", h.GetBill)
	r.GET("/bills/:id/payment-qr", h.GetBillPaymentQR)
	r.GET("/deposit", h.GetDeposit)
	r.POST("/maintenance", h.CreateMaintenance)
	r.GET("/maintenance", h.ListMaintenance)
	r.GET("/announcements", h.ListAnnouncements)
	r.POST("/testimonials", h.SubmitTestimonial)
}
