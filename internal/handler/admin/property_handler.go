// Package admin 管理端 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	propertyService "github.com/dumeirei/pg-manager-backend/internal/service/property"
)

// PropertyHandler 物业、房间、床位管理处理器
type PropertyHandler struct {
	propertyService *propertyService.PropertyService
}

// NewPropertyHandler 创建物业管理处理器
func NewPropertyHandler(propertySvc *propertyService.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertyService: propertySvc}
}

// ==================== 物业 ====================

// ListProperties 物业列表
// @Summary 物业列表
// @Tags 管理-物业
// @Produce json
// @Security Bearer
// @Param city query string false "城市"
// @Param keyword query string false "关键字"
// @Param is_active query bool false "是否营业"
// @Success 200 {object} response.Response{data=response.PageData{list=[]models.Property}}
// @Router /api/admin/properties [get]
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	p := handler.BindPagination(c)
	filters := map[string]interface{}{
		"city":    c.Query("city"),
		"keyword": c.Query("keyword"),
	}
	if active := handler.QueryBool(c, "is_active"); active != nil {
		filters["is_active"] = *active
	}

	list, total, err := h.propertyService.ListProperties(c.Request.Context(), p.GetOffset(), p.GetLimit(), filters)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// CreateProperty 创建物业
// @Summary 创建物业
// @Tags 管理-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body propertyService.PropertyRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /api/admin/properties [post]
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req propertyService.PropertyRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), &req)
	handler.MustSucceed(c, err, property)
}

// GetProperty 物业详情
// @Summary 物业详情
// @Tags 管理-物业
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Success 200 {object} response.Response{data=propertyService.PropertyDetail}
// @Router /api/admin/properties/{id} [get]
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, ok := handler.ParseID(c, "property")
	if !ok {
		return
	}

	detail, err := h.propertyService.GetProperty(c.Request.Context(), id)
	handler.MustSucceed(c, err, detail)
}

// UpdateProperty 更新物业
// @Summary 更新物业
// @Tags 管理-物业
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Param request body propertyService.PropertyRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /api/admin/properties/{id} [put]
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	id, ok := handler.ParseID(c, "property")
	if !ok {
		return
	}
	var req propertyService.PropertyRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, property)
}

// DeleteProperty 删除物业
// @Summary 删除物业
// @Tags 管理-物业
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Success 200 {object} response.Response
// @Router /api/admin/properties/{id} [delete]
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	id, ok := handler.ParseID(c, "property")
	if !ok {
		return
	}

	err := h.propertyService.DeleteProperty(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Property deleted", nil)
}

// ListAvailableBeds 物业空闲床位
// @Summary 空闲床位
// @Tags 管理-物业
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Success 200 {object} response.Response{data=[]models.Bed}
// @Router /api/admin/properties/{id}/available-beds [get]
func (h *PropertyHandler) ListAvailableBeds(c *gin.Context) {
	id, ok := handler.ParseID(c, "property")
	if !ok {
		return
	}

	beds, err := h.propertyService.ListAvailableBeds(c.Request.Context(), id)
	handler.MustSucceed(c, err, beds)
}

// ==================== 房间 ====================

// ListRooms 物业下的房间
// @Summary 房间列表
// @Tags 管理-房间
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Param type query string false "房型"
// @Param is_active query bool false "是否启用"
// @Success 200 {object} response.Response{data=[]models.Room}
// @Router /api/admin/properties/{id}/rooms [get]
func (h *PropertyHandler) ListRooms(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "property")
	if !ok {
		return
	}
	filters := map[string]interface{}{"type": c.Query("type")}
	if active := handler.QueryBool(c, "is_active"); active != nil {
		filters["is_active"] = *active
	}

	rooms, err := h.propertyService.ListRooms(c.Request.Context(), propertyID, filters)
	handler.MustSucceed(c, err, rooms)
}

// CreateRoom 创建房间
// @Summary 创建房间
// @Tags 管理-房间
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "物业ID"
// @Param request body propertyService.RoomRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /api/admin/properties/{id}/rooms [post]
func (h *PropertyHandler) CreateRoom(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "property")
	if !ok {
		return
	}
	var req propertyService.RoomRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	room, err := h.propertyService.CreateRoom(c.Request.Context(), propertyID, &req)
	handler.MustSucceed(c, err, room)
}

// GetRoom 房间详情
// @Summary 房间详情
// @Tags 管理-房间
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /api/admin/rooms/{id} [get]
func (h *PropertyHandler) GetRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "room")
	if !ok {
		return
	}

	room, err := h.propertyService.GetRoom(c.Request.Context(), id)
	handler.MustSucceed(c, err, room)
}

// UpdateRoom 更新房间
// @Summary 更新房间
// @Tags 管理-房间
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param request body propertyService.RoomRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Room}
// @Router /api/admin/rooms/{id} [put]
func (h *PropertyHandler) UpdateRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "room")
	if !ok {
		return
	}
	var req propertyService.RoomRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	room, err := h.propertyService.UpdateRoom(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, room)
}

// DeleteRoom 删除房间
// @Summary 删除房间
// @Tags 管理-房间
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Success 200 {object} response.Response
// @Router /api/admin/rooms/{id} [delete]
func (h *PropertyHandler) DeleteRoom(c *gin.Context) {
	id, ok := handler.ParseID(c, "room")
	if !ok {
		return
	}

	err := h.propertyService.DeleteRoom(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Room deleted", nil)
}

// ==================== 床位 ====================

// CreateBed 添加床位
// @Summary 添加床位
// @Tags 管理-床位
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房间ID"
// @Param request body propertyService.BedRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Bed}
// @Router /api/admin/rooms/{id}/beds [post]
func (h *PropertyHandler) CreateBed(c *gin.Context) {
	roomID, ok := handler.ParseID(c, "room")
	if !ok {
		return
	}
	var req propertyService.BedRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bed, err := h.propertyService.CreateBed(c.Request.Context(), roomID, &req)
	handler.MustSucceed(c, err, bed)
}

// UpdateBed 修改床位编号
// @Summary 修改床位
// @Tags 管理-床位
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "床位ID"
// @Param request body propertyService.BedRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Bed}
// @Router /api/admin/beds/{id} [put]
func (h *PropertyHandler) UpdateBed(c *gin.Context) {
	id, ok := handler.ParseID(c, "bed")
	if !ok {
		return
	}
	var req propertyService.BedRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bed, err := h.propertyService.UpdateBed(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, bed)
}

// UpdateBedStatus 修改床位状态
// @Summary 修改床位状态
// @Tags 管理-床位
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "床位ID"
// @Param request body propertyService.UpdateBedStatusRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Bed}
// @Router /api/admin/beds/{id}/status [put]
func (h *PropertyHandler) UpdateBedStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "bed")
	if !ok {
		return
	}
	var req propertyService.UpdateBedStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	bed, err := h.propertyService.UpdateBedStatus(c.Request.Context(), id, req.Status)
	handler.MustSucceed(c, err, bed)
}

// DeleteBed 删除床位
// @Summary 删除床位
// @Tags 管理-床位
// @Produce json
// @Security Bearer
// @Param id path int true "床位ID"
// @Success 200 {object} response.Response
// @Router /api/admin/beds/{id} [delete]
func (h *PropertyHandler) DeleteBed(c *gin.Context) {
	id, ok := handler.ParseID(c, "bed")
	if !ok {
		return
	}

	err := h.propertyService.DeleteBed(c.Request.Context(), id)
	handler.MustSucceedWithMessage(c, err, "Bed deleted", nil)
}

// RegisterRoutes 注册路由
func (h *PropertyHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/properties", h.ListProperties)
	r.POST("/properties", h.CreateProperty)
	r.GET("/properties/:id", h.GetProperty)
	r.PUT("/properties/:id", h.UpdateProperty)
	r.DELETE("/properties/:id", h.DeleteProperty)
	r.GET("/properties/:id/available-beds", h.ListAvailableBeds)
	r.GET("/properties/:id/rooms", h.ListRooms)
	r.POST("/properties/:id/rooms", h.CreateRoom)

	r.GET("/rooms/:id", h.GetRoom)
	r.PUT("/rooms/:id", h.UpdateRoom)
	r.DELETE("/rooms/:id", h.DeleteRoom)
	r.POST("/rooms/:id/beds", h.CreateBed)

	r.PUT("/beds/:id", h.UpdateBed)
	r.PUT("/beds/:id/status", h.UpdateBedStatus)
	r.DELETE("/beds/:id", h.DeleteBed)
}
