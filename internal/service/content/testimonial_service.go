// Package content 提供住户评价与公告服务
package content

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// DefaultPublicTestimonials 公开评价默认条数
const DefaultPublicTestimonials = 12

// TestimonialService 评价服务
type TestimonialService struct {
	testimonialRepo *repository.TestimonialRepository
	propertyRepo    *repository.PropertyRepository
}

// NewTestimonialService 创建评价服务
func NewTestimonialService(testimonialRepo *repository.TestimonialRepository, propertyRepo *repository.PropertyRepository) *TestimonialService {
	return &TestimonialService{
		testimonialRepo: testimonialRepo,
		propertyRepo:    propertyRepo,
	}
}

// SubmitTestimonialRequest 提交评价请求
type SubmitTestimonialRequest struct {
	AuthorName string `json:"author_name" binding:"required,max=100"`
	PropertyID *int64 `json:"property_id"`
	Content    string `json:"content" binding:"required,max=2000"`
	Rating     int    `json:"rating" binding:"required"`
}

// ModerateTestimonialRequest 审核评价请求
type ModerateTestimonialRequest struct {
	IsApproved *bool `json:"is_approved"`
	IsFeatured *bool `json:"is_featured"`
}

// Submit 提交评价，需审核后展示
func (s *TestimonialService) Submit(ctx context.Context, userID *int64, req *SubmitTestimonialRequest) (*models.Testimonial, error) {
	author := strings.TrimSpace(req.AuthorName)
	content := strings.TrimSpace(req.Content)
	if author == "" || content == "" {
		return nil, errors.ErrInvalidParams.WithMessage("Name and testimonial are required")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, errors.ErrInvalidRating
	}
	if req.PropertyID != nil {
		if _, err := s.propertyRepo.GetByID(ctx, *req.PropertyID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrPropertyNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	testimonial := &models.Testimonial{
		AuthorName: author,
		UserID:     userID,
		PropertyID: req.PropertyID,
		Content:    content,
		Rating:     req.Rating,
	}
	if err := s.testimonialRepo.Create(ctx, testimonial); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return testimonial, nil
}

// ListPublic 获取已审核评价，精选优先
func (s *TestimonialService) ListPublic(ctx context.Context, propertyID int64, limit int) ([]*models.Testimonial, error) {
	if limit <= 0 || limit > 50 {
		limit = DefaultPublicTestimonials
	}
	list, err := s.testimonialRepo.ListApproved(ctx, propertyID, limit)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

// List 管理端评价列表
func (s *TestimonialService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Testimonial, int64, error) {
	list, total, err := s.testimonialRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// Moderate 审核或设为精选，取消审核时同时取消精选
func (s *TestimonialService) Moderate(ctx context.Context, id int64, req *ModerateTestimonialRequest) (*models.Testimonial, error) {
	testimonial, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	approved := testimonial.IsApproved
	if req.IsApproved != nil {
		approved = *req.IsApproved
	}
	featured := testimonial.IsFeatured
	if req.IsFeatured != nil {
		featured = *req.IsFeatured
	}
	if featured && !approved {
		if req.IsFeatured != nil && *req.IsFeatured {
			return nil, errors.ErrInvalidParams.WithMessage("Only approved testimonials can be featured")
		}
		featured = false
	}

	err = s.testimonialRepo.UpdateFields(ctx, id, map[string]interface{}{
		"is_approved": approved,
		"is_featured": featured,
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.get(ctx, id)
}

// Delete 删除评价
func (s *TestimonialService) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.testimonialRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *TestimonialService) get(ctx context.Context, id int64) (*models.Testimonial, error) {
	testimonial, err := s.testimonialRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTestimonialNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return testimonial, nil
}
