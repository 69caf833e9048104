// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、认证检查、参数解析等操作
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/response"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/middleware"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false
// 如果 err 不为 nil，发送错误响应并返回 true，调用方应该 return
//
// 使用示例:
//
//	result, err := service.DoSomething()
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.IsAppError(err) {
		appErr := errors.GetAppError(err)
		if appErr.Code == errors.ErrInvalidParams.Code {
			response.BadRequest(c, appErr.Message)
			return true
		}
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	_ = c.Error(err)
	response.InternalError(c, "internal server error")
	return true
}

// MustSucceed 如果有错误则返回错误响应，否则返回成功响应
// 调用 MustSucceed 后必须 return
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedWithMessage 带自定义成功消息
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage 分页响应版本
//
// 使用示例:
//
//	list, total, err := service.List(ctx, filter, p.GetOffset(), p.GetLimit())
//	MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// BindJSON 绑定请求体，失败时发送 400 响应并返回 false
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return false
	}
	return true
}

// ============================================================================
// 用户认证检查
// ============================================================================

// RequireUserID 获取当前用户ID，如果未登录则返回401响应
//
// 使用示例:
//
//	userID, ok := handler.RequireUserID(c)
//	if !ok {
//	    return
//	}
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "Please log in")
		return 0, false
	}
	return userID, true
}

// ============================================================================
// ID 参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64
// 返回 (0, false) 表示解析失败，已发送400响应
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
// paramName: 路径参数名称（如 "id", "room_id"）
// resourceName: 资源名称，用于错误消息（如 "property", "room"）
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+resourceName+" ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析查询参数中的可选 ID
// 参数为空返回 (nil, true)，解析失败返回 (nil, false)
//
// 使用示例:
//
//	propertyID, ok := handler.ParseQueryID(c, "property_id", "property")
//	if !ok {
//	    return
//	}
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+resourceName+" ID")
		return nil, false
	}
	return &id, true
}

// ============================================================================
// 时间解析辅助
// ============================================================================

// DateFormat 日期格式
const DateFormat = "2006-01-02"

// ParseDate 解析日期字符串 (YYYY-MM-DD)，结果为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ParseQueryDate 从查询参数解析可选日期
func ParseQueryDate(c *gin.Context, paramName string) (*time.Time, bool) {
	dateStr := c.Query(paramName)
	if dateStr == "" {
		return nil, true
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		response.BadRequest(c, "Invalid "+paramName+", expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// ParseQueryMonth 从查询参数解析可选账期月份 (YYYY-MM)
func ParseQueryMonth(c *gin.Context, paramName string) (*time.Time, bool) {
	monthStr := c.Query(paramName)
	if monthStr == "" {
		return nil, true
	}
	t, err := utils.ParseMonth(monthStr)
	if err != nil {
		response.BadRequest(c, "Invalid "+paramName+", expected YYYY-MM")
		return nil, false
	}
	return &t, true
}

// QueryBool 解析可选布尔查询参数
func QueryBool(c *gin.Context, paramName string) *bool {
	v := c.Query(paramName)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// ============================================================================
// 分页处理
// ============================================================================

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, pageSize=10, 最大 pageSize=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}
