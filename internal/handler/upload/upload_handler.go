// Package upload 提供文件上传相关的 HTTP Handler
package upload

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/pg-manager-backend/internal/common/handler"
	"github.com/dumeirei/pg-manager-backend/internal/common/response"
	uploadService "github.com/dumeirei/pg-manager-backend/internal/service/upload"
)

// Handler 上传处理器
type Handler struct {
	uploadService *uploadService.UploadService
}

// NewHandler 创建上传处理器
func NewHandler(uploadSvc *uploadService.UploadService) *Handler {
	return &Handler{
		uploadService: uploadSvc,
	}
}

// UploadImage 上传图片
// @Summary 上传图片
// @Description 上传图片文件，支持 jpg/jpeg/png/gif/webp 格式，最大 10MB
// @Tags 文件上传
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "图片文件"
// @Param folder formData string false "目录" default(images) Enums(images, property, room, maintenance, testimonial)
// @Success 200 {object} response.Response{data=uploadService.UploadImageResponse}
// @Router /api/admin/upload/image [post]
func (h *Handler) UploadImage(c *gin.Context) {
	if _, ok := handler.RequireUserID(c); !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Please choose a file to upload")
		return
	}

	result, err := h.uploadService.UploadImage(c.Request.Context(), &uploadService.UploadImageRequest{
		File:   file,
		Folder: c.PostForm("folder"),
	})
	handler.MustSucceed(c, err, result)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload/image", h.UploadImage)
}
