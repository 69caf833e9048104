// Package public 提供无需登录的 HTTP Handler
package public

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	"github.com/dumeirei/pg-manager-backend/internal/common/response"
	bookingService "github.com/dumeirei/pg-manager-backend/internal/service/booking"
	contentService "github.com/dumeirei/pg-manager-backend/internal/service/content"
	propertyService "github.com/dumeirei/pg-manager-backend/internal/service/property"
)

// Handler 公开接口处理器
type Handler struct {
	propertyService    *propertyService.PropertyService
	testimonialService *contentService.TestimonialService
	bookingService     *bookingService.BookingService
}

// NewHandler 创建公开接口处理器
func NewHandler(
	propertySvc *propertyService.PropertyService,
	testimonialSvc *contentService.TestimonialService,
	bookingSvc *bookingService.BookingService,
) *Handler {
	return &Handler{
		propertyService:    propertySvc,
		testimonialService: testimonialSvc,
		bookingService:     bookingSvc,
	}
}

// ListProperties 物业列表
// @Summary 物业列表
// @Tags 公开
// @Produce json
// @Param city query string false "城市"
// @Success 200 {object} response.Response{data=[]propertyService.PublicProperty}
// @Router /api/v1/public/properties [get]
func (h *Handler) ListProperties(c *gin.Context) {
	list, err := h.propertyService.ListPublicProperties(c.Request.Context(), c.Query("city"))
	handler.MustSucceed(c, err, list)
}

// GetProperty 物业详情
// @Summary 物业详情
// @Tags 公开
// @Produce json
// @Param id path int true "物业ID"
// @Success 200 {object} response.Response{data=propertyService.PublicPropertyDetail}
// @Router /api/v1/public/properties/{id} [get]
func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := handler.ParseID(c, "property")
	if !ok {
		return
	}

	detail, err := h.propertyService.GetPublicProperty(c.Request.Context(), id)
	handler.MustSucceed(c, err, detail)
}

// GetCities 城市列表
// @Summary 城市列表
// @Tags 公开
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Router /api/v1/public/cities [get]
func (h *Handler) GetCities(c *gin.Context) {
	cities, err := h.propertyService.GetCities(c.Request.Context())
	handler.MustSucceed(c, err, cities)
}

// ListTestimonials 已审核评价
// @Summary 住户评价
// @Tags 公开
// @Produce json
// @Param property_id query int false "物业ID"
// @Param limit query int false "数量" default(12)
// @Success 200 {object} response.Response{data=[]models.Testimonial}
// @Router /api/v1/public/testimonials [get]
func (h *Handler) ListTestimonials(c *gin.Context) {
	propertyID, ok := handler.ParseQueryID(c, "property_id", "property")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	var pid int64
	if propertyID != nil {
		pid = *propertyID
	}
	list, err := h.testimonialService.ListPublic(c.Request.Context(), pid, limit)
	handler.MustSucceed(c, err, list)
}

// SubmitTestimonial 提交评价，审核后展示
// @Summary 提交评价
// @Tags 公开
// @Accept json
// @Produce json
// @Param request body contentService.SubmitTestimonialRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Testimonial}
// @Router /api/v1/public/testimonials [post]
func (h *Handler) SubmitTestimonial(c *gin.Context) {
	var req contentService.SubmitTestimonialRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	testimonial, err := h.testimonialService.Submit(c.Request.Context(), nil, &req)
	handler.MustSucceedWithMessage(c, err, "Thank you! Your testimonial will appear after review", testimonial)
}

// CreateBooking 提交预订
// @Summary 提交预订
// @Tags 公开
// @Accept json
// @Produce json
// @Param request body bookingService.CreateBookingRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Booking}
// @Router /api/v1/public/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingService.CreateBookingRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), &req)
	if handler.HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, "We have received your request and will contact you soon", gin.H{
		"booking_no": booking.BookingNo,
		"status":     booking.Status,
	})
}

// RegisterRoutes 注册只读路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/properties", h.ListProperties)
	r.GET("/properties/:id", h.GetProperty)
	r.GET("/cities", h.GetCities)
	r.GET("/testimonials", h.ListTestimonials)
}

// RegisterSubmitRoutes 注册提交类路由，调用方负责挂载限流
func (h *Handler) RegisterSubmitRoutes(r *gin.RouterGroup) {
	r.POST("/testimonials", h.SubmitTestimonial)
	r.POST("/bookings", h.CreateBooking)
}
