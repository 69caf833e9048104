// Package upload 提供图片上传服务
package upload

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/pkg/oss"
)

// MaxImageSize 图片最大大小（10MB）
const MaxImageSize = 10 * 1024 * 1024

// 允许的存储目录
var allowedFolders = map[string]bool{
	"images":      true,
	"property":    true,
	"room":        true,
	"maintenance": true,
	"testimonial": true,
}

// UploadService 上传服务
type UploadService struct {
	uploader oss.Uploader
	baseDir  string
}

// NewUploadService 创建上传服务
func NewUploadService(uploader oss.Uploader, baseDir string) *UploadService {
	return &UploadService{
		uploader: uploader,
		baseDir:  strings.Trim(baseDir, "/"),
	}
}

// UploadImageRequest 上传图片请求
type UploadImageRequest struct {
	File   *multipart.FileHeader
	Folder string // images / property / room / maintenance / testimonial
}

// UploadImageResponse 上传图片响应
type UploadImageResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	FileName    string `json:"file_name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// UploadImage 校验并上传图片
func (s *UploadService) UploadImage(ctx context.Context, req *UploadImageRequest) (*UploadImageResponse, error) {
	if req.File == nil {
		return nil, errors.ErrInvalidParams.WithMessage("Please choose a file to upload")
	}
	folder := req.Folder
	if folder == "" {
		folder = "images"
	}
	if !allowedFolders[folder] {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid upload folder")
	}
	if req.File.Size > MaxImageSize {
		return nil, errors.ErrFileTooLarge.WithMessage("Image must be 10MB or smaller")
	}

	file, err := req.File.Open()
	if err != nil {
		return nil, errors.ErrUploadFailed.WithError(err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, io.LimitReader(file, MaxImageSize+1)); err != nil {
		return nil, errors.ErrUploadFailed.WithError(err)
	}

	return s.upload(ctx, folder, req.File.Filename, buf.Bytes())
}

func (s *UploadService) upload(ctx context.Context, folder, filename string, data []byte) (*UploadImageResponse, error) {
	contentType, err := oss.ValidateImage(filename, int64(len(data)), MaxImageSize, bytes.NewReader(data))
	if err != nil {
		switch {
		case stderrors.Is(err, oss.ErrFileTooLarge):
			return nil, errors.ErrFileTooLarge.WithMessage("Image must be 10MB or smaller")
		case stderrors.Is(err, oss.ErrUnsupportedImage), stderrors.Is(err, oss.ErrInvalidImage):
			return nil, errors.ErrFileTypeNotAllowed.WithMessage("Only jpg, jpeg, png, gif and webp images are allowed")
		default:
			return nil, errors.ErrInvalidParams.WithMessage("Invalid image file").WithError(err)
		}
	}

	prefix := folder
	if s.baseDir != "" {
		prefix = s.baseDir + "/" + folder
	}
	key := oss.GenerateObjectKey(prefix, filename)

	url, err := s.uploader.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		logger.Error("Image upload failed", zap.String("key", key), zap.Error(err))
		return nil, errors.ErrUploadFailed.WithError(err)
	}

	return &UploadImageResponse{
		URL:         url,
		Key:         key,
		FileName:    filename,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}
