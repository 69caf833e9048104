package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/pkg/oss"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

// fileHeader 通过 multipart 表单构造上传文件
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func TestUploadService_UploadImage(t *testing.T) {
	uploader := oss.NewMockUploader()
	svc := NewUploadService(uploader, "uploads")
	ctx := context.Background()

	result, err := svc.UploadImage(ctx, &UploadImageRequest{File: fileHeader(t, "room.png", pngHeader), Folder: "room"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Key, "uploads/room/"))
	assert.True(t, strings.HasSuffix(result.Key, ".png"))
	assert.Equal(t, "image/png", result.ContentType)
	assert.Equal(t, int64(len(pngHeader)), result.Size)
	assert.Equal(t, "https://mock-oss.example.com/"+result.Key, result.URL)

	stored, ok := uploader.Get(result.Key)
	require.True(t, ok)
	assert.Equal(t, pngHeader, stored)
}

func TestUploadService_Rejections(t *testing.T) {
	svc := NewUploadService(oss.NewMockUploader(), "")
	ctx := context.Background()

	_, err := svc.UploadImage(ctx, &UploadImageRequest{})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	_, err = svc.UploadImage(ctx, &UploadImageRequest{File: fileHeader(t, "room.png", pngHeader), Folder: "../etc"})
	assert.ErrorIs(t, err, errors.ErrInvalidParams)

	_, err = svc.UploadImage(ctx, &UploadImageRequest{File: fileHeader(t, "notes.txt", []byte("hello"))})
	assert.ErrorIs(t, err, errors.ErrFileTypeNotAllowed)

	_, err = svc.UploadImage(ctx, &UploadImageRequest{File: fileHeader(t, "fake.jpg", []byte("definitely not a jpeg"))})
	assert.ErrorIs(t, err, errors.ErrFileTypeNotAllowed)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageSize)...)
	_, err = svc.UploadImage(ctx, &UploadImageRequest{File: fileHeader(t, "big.png", big)})
	assert.ErrorIs(t, err, errors.ErrFileTooLarge)
}
