package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	adminService "github.com/dumeirei/pg-manager-backend/internal/service/admin"
)

// DashboardHandler 仪表盘处理器
type DashboardHandler struct {
	dashboardService *adminService.DashboardService
}

// NewDashboardHandler 创建仪表盘处理器
func NewDashboardHandler(dashboardSvc *adminService.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardSvc}
}

// GetOverview 运营概览
// @Summary 运营概览
// @Description 床位占用、当月账单收款、逾期账单、未完成报修与待处理预订
// @Tags 管理-仪表盘
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=adminService.Overview}
// @Router /api/admin/dashboard [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	overview, err := h.dashboardService.GetOverview(c.Request.Context())
	handler.MustSucceed(c, err, overview)
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", h.GetOverview)
}
