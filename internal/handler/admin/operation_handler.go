package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	bookingService "github.com/dumeirei/pg-manager-backend/internal/service/booking"
	contentService "github.com/dumeirei/pg-manager-backend/internal/service/content"
	maintenanceService "github.com/dumeirei/pg-manager-backend/internal/service/maintenance"
)

// OperationHandler 报修、预订、评价与公告管理处理器
type OperationHandler struct {
	maintenanceService  *maintenanceService.MaintenanceService
	bookingService      *bookingService.BookingService
	testimonialService  *contentService.TestimonialService
	announcementService *contentService.AnnouncementService
}

// NewOperationHandler 创建运营管理处理器
func NewOperationHandler(
	maintenanceSvc *maintenanceService.MaintenanceService,
	bookingSvc *bookingService.BookingService,
	testimonialSvc *contentService.TestimonialService,
	announcementSvc *contentService.AnnouncementService,
) *OperationHandler {
	return &OperationHandler{
		maintenanceService:  maintenanceSvc,
		bookingService:      bookingSvc,
		testimonialService:  testimonialSvc,
		announcementService: announcementSvc,
	}
}

// ==================== 报修 ====================

// ListMaintenance 报修工单列表
// @Summary 报修工单列表
// @Tags 管理-报修
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param priority query string false "优先级"
// @Param category query string false "类别"
// @Param tenant_id query int false "租客ID"
// @Param property_id query int false "物业ID"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.MaintenanceRequest}}
// @Router /api/admin/maintenance [get]
func (h *OperationHandler) ListMaintenance(c *gin.Context) {
	p := handler.BindPagination(c)
	tenantID, ok := handler.ParseQueryID(c, "tenant_id", "tenant")
	if !ok {
		return
	}
	propertyID, ok := handler.ParseQueryID(c, "property_id", "property")
	if !ok {
		return
	}
	filters := map[string]interface{}{
		"status":   c.Query("status"),
		"priority": c.Query("priority"),
		"category": c.Query("category"),
	}
	if tenantID != nil {
		filters["tenant_id"] = *tenantID
	}
	if propertyID != nil {
		filters["property_id"] = *propertyID
	}

	list, total, err := h.maintenanceService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetMaintenance 报修工单详情
// @Summary 报修工单详情
// @Tags 管理-报修
// @Produce json
// @Security Bearer
// @Param id path int true "工单ID"
// @Success 200 {object} response.Response{data=models.MaintenanceRequest}
// @Router /api/admin/maintenance/{id} [get]
func (h *OperationHandler) GetMaintenance(c *gin.Context) {
	id, ok := handler.ParseID(c, "maintenance request")
	if !ok {
		return
	}

	req, err := h.maintenanceService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, req)
}

// UpdateMaintenance 处理报修工单
// @Summary 处理报修工单
// @Tags 管理-报修
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "工单ID"
// @Param request body maintenanceService.UpdateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.MaintenanceRequest}
// @Router /api/admin/maintenance/{id} [put]
func (h *OperationHandler) UpdateMaintenance(c *gin.Context) {
	id, ok := handler.ParseID(c, "maintenance request")
	if !ok {
		return
	}
	var req maintenanceService.UpdateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.maintenanceService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, result)
}

// ==================== 预订 ====================

// ListBookings 预订列表
// @Summary 预订列表
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param status query string false "状态"
// @Param property_id query int false "物业ID"
// @Param search query string false "姓名/手机号/邮箱"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Booking}}
// @Router /api/admin/bookings [get]
func (h *OperationHandler) ListBookings(c *gin.Context) {
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

	list, total, err := h.bookingService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetBooking 预订详情
// @Summary 预订详情
// @Tags 管理-预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/admin/bookings/{id} [get]
func (h *OperationHandler) GetBooking(c *gin.Context) {
	id, ok := handler.ParseID(c, "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, booking)
}

// UpdateBookingStatus 修改预订状态
// @Summary 修改预订状态
// @Tags 管理-预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body bookingService.UpdateStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/admin/bookings/{id}/status [put]
func (h *OperationHandler) UpdateBookingStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "booking")
	if !ok {
		return
	}
	var req bookingService.UpdateStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, booking)
}

// ConvertBooking 预订转为租客
// @Summary 预订转租客
// @Description 分配床位创建租约，预订置为已转化
// @Tags 管理-预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body bookingService.ConvertRequest true "请求参数"
// @Success 200 {object} response.Response{data=bookingService.ConvertResult}
// @Router /api/admin/bookings/{id}/convert [post]
func (h *OperationHandler) ConvertBooking(c *gin.Context) {
	id, ok := handler.ParseID(c, "booking")
	if !ok {
		return
	}
	var req bookingService.ConvertRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.bookingService.Convert(c.Request.Context(), id, &req)
	handler.MustSucceedWithMessage(c, err, "Booking converted", result)
}

// ==================== 评价 ====================

// ListTestimonials 评价列表
// @Summary 评价列表
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param is_approved query bool false "是否已审核"
// @Param property_id query int false "物业ID"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Testimonial}}
// @Router /api/admin/testimonials [get]
func (h *OperationHandler) ListTestimonials(c *gin.Context) {
	p := handler.BindPagination(c)
	propertyID, ok := handler.ParseQueryID(c, "property_id", "property")
	if !ok {
		return
	}
	filters := map[string]interface{}{}
	if approved := handler.QueryBool(c, "is_approved"); approved != nil {
		filters["is_approved"] = *approved
	}
	if propertyID != nil {
		filters["property_id"] = *propertyID
	}

	list, total, err := h.testimonialService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// ModerateTestimonial 审核评价
// @Summary 审核评价
// @Tags 管理-内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body contentService.ModerateTestimonialRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Testimonial}
// @Router /api/admin/testimonials/{id} [put]
func (h *OperationHandler) ModerateTestimonial(c *gin.Context) {
	id, ok := handler.ParseID(c, "testimonial")
	if !ok {
		return
	}
	var req contentService.ModerateTestimonialRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	testimonial, err := h.testimonialService.Moderate(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, testimonial)
}

// DeleteTestimonial 删除评价
// @Summary 删除评价
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Success 200 {object} response.Response
// @Router /api/admin/testimonials/{id} [delete]
func (h *OperationHandler) DeleteTestimonial(c *gin.Context) {
	id, ok := handler.ParseID(c, "testimonial")
	if !ok {
		return
	}

	err := h.testimonialService.Delete(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Testimonial deleted", nil)
}

// ==================== 公告 ====================

// ListAnnouncements 公告列表
// @Summary 公告列表
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param property_id query int false "物业ID"
// @Param is_active query bool false "是否启用"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Announcement}}
// @Router /api/admin/announcements [get]
func (h *OperationHandler) ListAnnouncements(c *gin.Context) {
	p := handler.BindPagination(c)
	propertyID, ok := handler.ParseQueryID(c, "property_id", "property")
	if !ok {
		return
	}
	filters := map[string]interface{}{}
	if active := handler.QueryBool(c, "is_active"); active != nil {
		filters["is_active"] = *active
	}
	if propertyID != nil {
		filters["property_id"] = *propertyID
	}

	list, total, err := h.announcementService.List(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// CreateAnnouncement 发布公告
// @Summary 发布公告
// @Tags 管理-内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body contentService.AnnouncementRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Announcement}
// @Router /api/admin/announcements [post]
func (h *OperationHandler) CreateAnnouncement(c *gin.Context) {
	var req contentService.AnnouncementRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	announcement, err := h.announcementService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, err, announcement)
}

// GetAnnouncement 公告详情
// @Summary 公告详情
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param id path int true "公告ID"
// @Success 200 {object} response.Response{data=models.Announcement}
// @Router /api/admin/announcements/{id} [get]
func (h *OperationHandler) GetAnnouncement(c *gin.Context) {
	id, ok := handler.ParseID(c, "announcement")
	if !ok {
		return
	}

	announcement, err := h.announcementService.Get(c.Request.Context(), id)
	handler.MustSucceed(c, err, announcement)
}

// UpdateAnnouncement 修改公告
// @Summary 修改公告
// @Tags 管理-内容
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "公告ID"
// @Param request body contentService.AnnouncementRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Announcement}
// @Router /api/admin/announcements/{id} [put]
func (h *OperationHandler) UpdateAnnouncement(c *gin.Context) {
	id, ok := handler.ParseID(c, "announcement")
	if !ok {
		return
	}
	var req contentService.AnnouncementRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	announcement, err := h.announcementService.Update(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, announcement)
}

// DeleteAnnouncement 删除公告
// @Summary 删除公告
// @Tags 管理-内容
// @Produce json
// @Security Bearer
// @Param id path int true "公告ID"
// @Success 200 {object} response.Response
// @Router /api/admin/announcements/{id} [delete]
func (h *OperationHandler) DeleteAnnouncement(c *gin.Context) {
	id, ok := handler.ParseID(c, "announcement")
	if !ok {
		return
	}

	err := h.announcementService.Delete(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Announcement deleted", nil)
}

// RegisterRoutes 注册路由
func (h *OperationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/maintenance", h.ListMaintenance)
	r.GET("/maintenance/:id", h.GetMaintenance)
	r.PUT("/maintenance/:id", h.UpdateMaintenance)

	r.GET("/bookings", h.ListBookings)
	r.GET("/bookings/:id", h.GetBooking)
	r.PUT("/bookings/:id/status", h.UpdateBookingStatus)
	r.POST("/bookings/:id/convert", h.ConvertBooking)

	r.GET("/testimonials", h.ListTestimonials)
	r.PUT("/testimonials/:id", h.ModerateTestimonial)
	r.DELETE("/testimonials/:id", h.DeleteTestimonial)

	r.GET("/announcements", h.ListAnnouncements)
	r.POST("/announcements", h.CreateAnnouncement)
	r.GET("/announcements/:id", h.GetAnnouncement)
	r.PUT("/announcements/:id", h.UpdateAnnouncement)
	r.DELETE("/announcements/:id", h.DeleteAnnouncement)
}
