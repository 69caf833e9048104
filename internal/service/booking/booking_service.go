// Package booking 提供公开预订与转租客服务
package booking

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
	tenantService "github.com/dumeirei/pg-manager-backend/internal/service/tenant"
)

// BookingService 预订服务
type BookingService struct {
	db            *gorm.DB
	bookingRepo   *repository.BookingRepository
	propertyRepo  *repository.PropertyRepository
	roomRepo      *repository.RoomRepository
	bedRepo       *repository.BedRepository
	tenantService *tenantService.TenantService
}

// NewBookingService 创建预订服务
func NewBookingService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	propertyRepo *repository.PropertyRepository,
	roomRepo *repository.RoomRepository,
	bedRepo *repository.BedRepository,
	tenantSvc *tenantService.TenantService,
) *BookingService {
	return &BookingService{
		db:            db,
		bookingRepo:   bookingRepo,
		propertyRepo:  propertyRepo,
		roomRepo:      roomRepo,
		bedRepo:       bedRepo,
		tenantService: tenantSvc,
	}
}

// CreateBookingRequest 公开预订请求
type CreateBookingRequest struct {
	PropertyID        int64  `json:"property_id" binding:"required"`
	RoomID            *int64 `json:"room_id"`
	Name              string `json:"name" binding:"required,max=100"`
	Phone             string `json:"phone" binding:"required"`
	Email             string `json:"email"`
	PreferredRoomType string `json:"preferred_room_type"`
	MoveInDate        string `json:"move_in_date"`
	Message           string `json:"message" binding:"max=2000"`
}

// UpdateStatusRequest 修改预订状态请求
type UpdateStatusRequest struct {
	Status     string  `json:"status" binding:"required"`
	AdminNotes *string `json:"admin_notes"`
}

// ConvertRequest 预订转租客请求
type ConvertRequest struct {
	BedID         int64            `json:"bed_id" binding:"required"`
	Email         string           `json:"email"`
	Password      string           `json:"password"`
	CheckInDate   string           `json:"check_in_date"`
	DepositAmount *decimal.Decimal `json:"deposit_amount"`
}

// ConvertResult 转租客结果
type ConvertResult struct {
	Booking           *models.Booking `json:"booking"`
	Tenant            *models.Tenant  `json:"tenant"`
	TemporaryPassword string          `json:"temporary_password,omitempty"`
}

// Create 创建预订，物业需处于营业状态
func (s *BookingService) Create(ctx context.Context, req *CreateBookingRequest) (*models.Booking, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.ErrInvalidParams.WithMessage("Name is required")
	}
	phone := utils.NormalizePhone(req.Phone)
	if !utils.ValidatePhone(phone) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid phone number")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != "" && !utils.ValidateEmail(email) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid email address")
	}
	if req.PreferredRoomType != "" && !models.IsValidRoomType(req.PreferredRoomType) {
		return nil, errors.ErrInvalidParams.WithMessage("Invalid room type")
	}

	property, err := s.propertyRepo.GetByID(ctx, req.PropertyID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPropertyNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !property.IsActive {
		return nil, errors.ErrPropertyInactive
	}

	if req.RoomID != nil {
		room, err := s.roomRepo.GetByID(ctx, *req.RoomID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ErrRoomNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if room.PropertyID != property.ID || !room.IsActive {
			return nil, errors.ErrRoomNotFound
		}
	}

	booking := &models.Booking{
		BookingNo:         utils.GenerateNo("BK"),
		PropertyID:        property.ID,
		RoomID:            req.RoomID,
		Name:              name,
		Phone:             phone,
		Email:             email,
		PreferredRoomType: req.PreferredRoomType,
		Message:           strings.TrimSpace(req.Message),
		Status:            models.BookingStatusPending,
	}
	if req.MoveInDate != "" {
		d, err := time.ParseInLocation("2006-01-02", req.MoveInDate, time.UTC)
		if err != nil {
			return nil, errors.ErrInvalidParams.WithMessage("Move-in date must be YYYY-MM-DD")
		}
		booking.MoveInDate = &d
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	logger.Info("Booking received",
		zap.String("booking_no", booking.BookingNo),
		zap.Int64("property_id", property.ID),
	)
	return booking, nil
}

// Get 获取预订
func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

// List 管理端预订列表
func (s *BookingService) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	list, total, err := s.bookingRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// UpdateStatus 修改预订状态，终态预订不可修改，CONVERTED 只能通过转租客产生
func (s *BookingService) UpdateStatus(ctx context.Context, id int64, req *UpdateStatusRequest) (*models.Booking, error) {
	switch req.Status {
	case models.BookingStatusPending, models.BookingStatusContacted, models.BookingStatusConfirmed,
		models.BookingStatusRejected, models.BookingStatusCancelled:
	case models.BookingStatusConverted:
		return nil, errors.ErrBookingStatusError.WithMessage("Use the convert action to create a tenant")
	default:
		return nil, errors.ErrInvalidParams.WithMessage("Invalid booking status")
	}

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusConverted {
		return nil, errors.ErrBookingConverted
	}
	if booking.IsFinal() {
		return nil, errors.ErrBookingStatusError
	}

	fields := map[string]interface{}{"status": req.Status}
	if req.AdminNotes != nil {
		fields["admin_notes"] = strings.TrimSpace(*req.AdminNotes)
	}
	if err := s.bookingRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.Get(ctx, id)
}

// Convert 将预订转为租客，创建租客与预订状态更新在同一事务中完成
func (s *BookingService) Convert(ctx context.Context, id int64, req *ConvertRequest) (*ConvertResult, error) {
	var created *tenantService.CreateTenantResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrBookingNotFound
			}
			return err
		}
		if booking.Status == models.BookingStatusConverted {
			return errors.ErrBookingConverted
		}
		if booking.IsFinal() {
			return errors.ErrBookingStatusError
		}

		bed, err := s.bedRepo.GetByIDWithRoom(ctx, tx, req.BedID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrBedNotFound
			}
			return err
		}
		if bed.Room == nil || bed.Room.PropertyID != booking.PropertyID {
			return errors.ErrBookingBedMismatch
		}

		email := strings.TrimSpace(req.Email)
		if email == "" {
			email = booking.Email
		}
		if email == "" {
			return errors.ErrInvalidParams.WithMessage("Email is required to create the tenant account")
		}
		checkIn := req.CheckInDate
		if checkIn == "" && booking.MoveInDate != nil {
			checkIn = booking.MoveInDate.Format("2006-01-02")
		}

		created, err = s.tenantService.CreateTenantInTx(ctx, tx, &tenantService.CreateTenantRequest{
			Name:          booking.Name,
			Email:         email,
			Phone:         booking.Phone,
			Password:      req.Password,
			BedID:         req.BedID,
			CheckInDate:   checkIn,
			DepositAmount: req.DepositAmount,
		})
		if err != nil {
			return err
		}

		return tx.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(map[string]interface{}{
			"status":              models.BookingStatusConverted,
			"bed_id":              req.BedID,
			"converted_tenant_id": created.Tenant.ID,
		}).Error
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.tenantService.InvalidateListings(ctx)
	logger.Info("Booking converted",
		zap.Int64("booking_id", id),
		logger.TenantID(created.Tenant.ID),
		logger.BedID(req.BedID),
	)

	booking, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ConvertResult{
		Booking:           booking,
		Tenant:            created.Tenant,
		TemporaryPassword: created.TemporaryPassword,
	}, nil
}
