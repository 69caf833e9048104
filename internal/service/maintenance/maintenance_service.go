// Package maintenance 提供报修工单服务
package maintenance

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// MaintenanceService 报修服务
type MaintenanceService struct {
	maintenanceRepo *repository.MaintenanceRepository
	tenantRepo      *repository.TenantRepository
	now             func() time.Time
}

// NewMaintenanceService 创建报修服务
func NewMaintenanceService(maintenanceRepo *repository.MaintenanceRepository, tenantRepo *repository.TenantRepository) *MaintenanceService {
	return &MaintenanceService{
		maintenanceRepo: maintenanceRepo,
		tenantRepo:      tenantRepo,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest 租客提交报修请求
type CreateRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"required"`
	Priority    string   `json:"priority"`
	Images      []string `json:"images" binding:"max=5"`
}

// UpdateRequest 管理员处理工单请求
type UpdateRequest struct {
	Status          *string `json:"status"`
	Priority        *string `json:"priority"`
	AssignedTo      *string `json:"assigned_to" binding:"omitempty,max=100"`
	ResolutionNotes *string `json:"resolution_notes"`
}

// Create 租客提交报修，房间取自租客当前床位
func (s *MaintenanceService) Create(ctx context.Context, userID int64, req *CreateRequest) (*models.MaintenanceRequest, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.ErrInvalidParams.WithMessage("Title is required")
	}
	if !models.IsValidMaintenanceCategory(req.Category) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid maintenance category")
	}
	priority := req.Priority
	if priority == "" {
		priority = models.MaintenancePriorityMedium
	}
	if !models.IsValidMaintenancePriority(priority) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid maintenance priority")
	}

	tenant, err := s.tenantRepo.GetCurrentByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTenantNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if tenant.Bed == nil {
		return nil, errors.ErrTenantHasNoBed
	}

	request := &models.MaintenanceRequest{
		TenantID:    tenant.ID,
		RoomID:      tenant.Bed.RoomID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Status:      models.MaintenanceStatusOpen,
		Priority:    priority,
		Images:      req.Images,
	}
	if err := s.maintenanceRepo.Create(ctx, request); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("Maintenance request created",
		logger.TenantID(tenant.ID),
		zap.Int64("request_id", request.ID),
		zap.String("category", request.Category),
	)
	return s.Get(ctx, request.ID)
}

// Get 获取工单详情
func (s *MaintenanceService) Get(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	request, err := s.maintenanceRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrMaintenanceNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return request, nil
}

// ListMine 获取租客本人的工单
func (s *MaintenanceService) ListMine(ctx context.Context, userID int64, offset, limit int) ([]*models.MaintenanceRequest, int64, error) {
	tenant, err := s.tenantRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return []*models.MaintenanceRequest{}, 0, nil
		}
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return s.List(ctx, offset, limit, map[string]interface{}{"tenant_id": tenant.ID})
}

// List 获取工单列表
func (s *MaintenanceService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.MaintenanceRequest, int64, error) {
	list, total, err := s.maintenanceRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// Update 更新工单状态、优先级、处理人或处理说明
func (s *MaintenanceService) Update(ctx context.Context, id int64, req *UpdateRequest) (*models.MaintenanceRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Status != nil && *req.Status != request.Status {
		if !request.CanTransitionTo(*req.Status) {
			return nil, errors.ErrMaintenanceTransition.WithMessage(
				"Cannot move request from " + request.Status + " to " + *req.Status)
		}
		updates["status"] = *req.Status
		switch *req.Status {
		case models.MaintenanceStatusResolved:
			updates["resolved_at"] = s.now()
		case models.MaintenanceStatusInProgress:
			// 重新打开时清除解决时间
			updates["resolved_at"] = nil
		}
	}
	if req.Priority != nil {
		if !models.IsValidMaintenancePriority(*req.Priority) {
			return nil, errors.ErrInvalidParams.WithMessage("Invalid maintenance priority")
		}
		updates["priority"] = *req.Priority
	}
	if req.AssignedTo != nil {
		updates["assigned_to"] = strings.TrimSpace(*req.AssignedTo)
	}
	if req.ResolutionNotes != nil {
		updates["resolution_notes"] = strings.TrimSpace(*req.ResolutionNotes)
	}

	if len(updates) > 0 {
		if err := s.maintenanceRepo.UpdateFields(ctx, id, updates); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}
	return s.Get(ctx, id)
}
