package content

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// AnnouncementService 公告服务
type AnnouncementService struct {
	announcementRepo *repository.AnnouncementRepository
	propertyRepo     *repository.PropertyRepository
	tenantRepo       *repository.TenantRepository
	now              func() time.Time
}

// NewAnnouncementService 创建公告服务
func NewAnnouncementService(
	announcementRepo *repository.AnnouncementRepository,
	propertyRepo *repository.PropertyRepository,
	tenantRepo *repository.TenantRepository,
) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: announcementRepo,
		propertyRepo:     propertyRepo,
		tenantRepo:       tenantRepo,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// AnnouncementRequest 创建/修改公告请求
type AnnouncementRequest struct {
	PropertyID  *int64     `json:"property_id"`
	Title       string     `json:"title" binding:"required,max=200"`
	Content     string     `json:"content" binding:"required"`
	IsActive    *bool      `json:"is_active"`
	PublishedAt *time.Time `json:"published_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// Create 创建公告
func (s *AnnouncementService) Create(ctx context.Context, req *AnnouncementRequest) (*models.Announcement, error) {
	a := &models.Announcement{IsActive: true, PublishedAt: s.now()}
	if err := s.apply(ctx, a, req); err != nil {
		return nil, err
	}
	if err := s.announcementRepo.Create(ctx, a); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return a, nil
}

// Update 修改公告
func (s *AnnouncementService) Update(ctx context.Context, id int64, req *AnnouncementRequest) (*models.Announcement, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, a, req); err != nil {
		return nil, err
	}
	if err := s.announcementRepo.Save(ctx, a); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return a, nil
}

// Get 获取公告
func (s *AnnouncementService) Get(ctx context.Context, id int64) (*models.Announcement, error) {
	a, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAnnouncementNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return a, nil
}

// Delete 删除公告
func (s *AnnouncementService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.announcementRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// List 管理端公告列表
func (s *AnnouncementService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Announcement, int64, error) {
	list, total, err := s.announcementRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// ListForTenant 租客可见的公告：所在物业公告与全局公告
func (s *AnnouncementService) ListForTenant(ctx context.Context, userID int64) ([]*models.Announcement, error) {
	var propertyID int64
	tenant, err := s.tenantRepo.GetCurrentByUserID(ctx, userID)
	switch {
	case err == nil:
		if tenant.Bed != nil && tenant.Bed.Room != nil {
			propertyID = tenant.Bed.Room.PropertyID
		}
	case !stderrors.Is(err, gorm.ErrRecordNotFound):
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list, err := s.announcementRepo.ListVisible(ctx, propertyID, s.now())
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return list, nil
}

func (s *AnnouncementService) apply(ctx context.Context, a *models.Announcement, req *AnnouncementRequest) error {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return errors.ErrInvalidParams.WithMessage("Title and content are required")
	}
	if req.PropertyID != nil {
		if _, err := s.propertyRepo.GetByID(ctx, *req.PropertyID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrPropertyNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
	}

	a.PropertyID = req.PropertyID
	a.Title = title
	a.Content = content
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if req.PublishedAt != nil {
		a.PublishedAt = req.PublishedAt.UTC()
	}
	a.ExpiresAt = nil
	if req.ExpiresAt != nil {
		expires := req.ExpiresAt.UTC()
		if !expires.After(a.PublishedAt) {
			return errors.ErrInvalidParams.WithMessage("Expiry must be after the publish time")
		}
		a.ExpiresAt = &expires
	}
	return nil
}
