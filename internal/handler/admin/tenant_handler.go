package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	depositService "github.com/dumeirei/pg-manager-backend/internal/service/deposit"
	tenantService "github.com/dumeirei/pg-manager-backend/internal/service/tenant"
)

// TenantHandler 租客与押金管理处理器
type TenantHandler struct {
	tenantService  *tenantService.TenantService
	depositService *depositService.DepositService
}

// NewTenantHandler 创建租客管理处理器
func NewTenantHandler(tenantSvc *tenantService.TenantService, depositSvc *depositService.DepositService) *TenantHandler {
	return &TenantHandler{
		tenantService:  tenantSvc,
		depositService: depositSvc,
	}
}

// List 租客列表
// @Summary 租客列表
// @Tags 管理-租客
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param property_id query int false "物业ID"
// @Param search query string false "姓名/手机号/邮箱"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Tenant}}
// @Router /api/admin/tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	p := handler.BindPagination(c)
	propertyID, ok := handler.ParseQueryID(c, "property_id", "property")
	if !ok {
		return
	}
	filters := map[string]interface{}{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}
	if propertyID != nil {
		filters["property_id"] = *propertyID
	}

	list, total, err := h.tenantService.ListTenants(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// Create 租客入住
// @Summary 租客入住
// @Description 分配床位并创建租约，未提供密码时返回临时密码
// @Tags 管理-租客
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body tenantService.CreateTenantRequest true "请求参数"
// @Success 200 {object} response.Response{data=tenantService.CreateTenantResult}
// @Router /api/admin/tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req tenantService.CreateTenantRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.tenantService.CreateTenant(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// Get 租客详情
// @Summary 租客详情
// @Tags 管理-租客
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/admin/tenants/{id} [get]
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}

	tenant, err := h.tenantService.GetTenant(c.Request.Context(), id)
	handler.MustSucceed(c, err, tenant)
}

// Update 更新租客资料
// @Summary 更新租客资料
// @Tags 管理-租客
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Param request body tenantService.UpdateTenantRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/admin/tenants/{id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}
	var req tenantService.UpdateTenantRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.UpdateTenant(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, tenant)
}

// Delete 删除租客
// @Summary 删除租客
// @Tags 管理-租客
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Success 200 {object} response.Response
// @Router /api/admin/tenants/{id} [delete]
func (h *TenantHandler) Delete(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}

	err := h.tenantService.DeleteTenant(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Tenant deleted", nil)
}

// GiveNotice 登记退租通知
// @Summary 登记退租通知
// @Tags 管理-租客
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/admin/tenants/{id}/notice [post]
func (h *TenantHandler) GiveNotice(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}

	tenant, err := h.tenantService.GiveNotice(c.Request.Context(), id)
	handler.MustSucceed(c, err, tenant)
}

// WithdrawNotice 撤回退租通知
// @Summary 撤回退租通知
// @Tags 管理-租客
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/admin/tenants/{id}/notice [delete]
func (h *TenantHandler) WithdrawNotice(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}

	tenant, err := h.tenantService.WithdrawNotice(c.Request.Context(), id)
	handler.MustSucceed(c, err, tenant)
}

// Checkout 办理退租
// @Summary 办理退租
// @Tags 管理-租客
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/admin/tenants/{id}/checkout [post]
func (h *TenantHandler) Checkout(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}

	tenant, err := h.tenantService.Checkout(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Tenant checked out", tenant)
}

// ChangeBed 调换床位
// @Summary 调换床位
// @Tags 管理-租客
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Param request body tenantService.ChangeBedRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Tenant}
// @Router /api/admin/tenants/{id}/change-bed [post]
func (h *TenantHandler) ChangeBed(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}
	var req tenantService.ChangeBedRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tenant, err := h.tenantService.ChangeBed(c.Request.Context(), id, req.BedID)
	handler.MustSucceed(c, err, tenant)
}

// ==================== 押金 ====================

// ListDeposits 押金列表
// @Summary 押金列表
// @Tags 管理-押金
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param tenant_id query int false "租客ID"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.SecurityDeposit}}
// @Router /api/admin/deposits [get]
func (h *TenantHandler) ListDeposits(c *gin.Context) {
	p := handler.BindPagination(c)
	tenantID, ok := handler.ParseQueryID(c, "tenant_id", "tenant")
	if !ok {
		return
	}
	filters := map[string]interface{}{"status": c.Query("status")}
	if tenantID != nil {
		filters["tenant_id"] = *tenantID
	}

	list, total, err := h.depositService.ListDeposits(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetDeposit 租客押金详情
// @Summary 押金详情
// @Tags 管理-押金
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Success 200 {object} response.Response{data=models.SecurityDeposit}
// @Router /api/admin/tenants/{id}/deposit [get]
func (h *TenantHandler) GetDeposit(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}

	deposit, err := h.depositService.GetDeposit(c.Request.Context(), id)
	handler.MustSucceed(c, err, deposit)
}

// UpdateDepositAmount 修改已收押金
// @Summary 修改押金金额
// @Tags 管理-押金
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Param request body depositService.UpdateAmountRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.SecurityDeposit}
// @Router /api/admin/tenants/{id}/deposit [put]
func (h *TenantHandler) UpdateDepositAmount(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}
	var req depositService.UpdateAmountRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	deposit, err := h.depositService.UpdateAmount(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, deposit)
}

// AddDeduction 押金扣款
// @Summary 押金扣款
// @Tags 管理-押金
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Param request body depositService.DeductionRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.SecurityDeposit}
// @Router /api/admin/tenants/{id}/deposit/deductions [post]
func (h *TenantHandler) AddDeduction(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}
	adminID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req depositService.DeductionRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	deposit, err := h.depositService.AddDeduction(c.Request.Context(), id, adminID, &req)
	handler.MustSucceed(c, err, deposit)
}

// RefundDeposit 押金退款
// @Summary 押金退款
// @Tags 管理-押金
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "租客ID"
// @Param request body depositService.RefundRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.SecurityDeposit}
// @Router /api/admin/tenants/{id}/deposit/refunds [post]
func (h *TenantHandler) RefundDeposit(c *gin.Context) {
	id, ok := handler.ParseID(c, "tenant")
	if !ok {
		return
	}
	adminID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}
	var req depositService.RefundRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	deposit, err := h.depositService.Refund(c.Request.Context(), id, adminID, &req)
	handler.MustSucceedWithMessage(c, err, "Refund recorded", deposit)
}

// RegisterRoutes 注册路由
func (h *TenantHandler) RegisterRoutes(r *gin.RouterGroup) {
	tenants := r.Group("/tenants")
	{
		tenants.GET("", h.List)
		tenants.POST("", h.Create)
		tenants.GET("/:id", h.Get)
		tenants.PUT("/:id", h.Update)
		tenants.DELETE("/:id", h.Delete)
		tenants.POST("/:id/notice", h.GiveNotice)
		tenants.DELETE("/:id/notice", h.WithdrawNotice)
		tenants.POST("/:id/checkout", h.Checkout)
		tenants.POST("/:id/change-bed", h.ChangeBed)

		tenants.GET("/:id/deposit", h.GetDeposit)
		tenants.PUT("/:id/deposit", h.UpdateDepositAmount)
		tenants.POST("/:id/deposit/deductions", h.AddDeduction)
		tenants.POST("/:id/deposit/refunds", h.RefundDeposit)
	}

	r.GET("/deposits", h.ListDeposits)
}
