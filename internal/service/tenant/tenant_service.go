// Package tenant 提供租客生命周期服务：入住、退租通知、退房、换床
package tenant

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/cache"
	"github.com/dumeirei/pg-manager-backend/internal/common/crypto"
	"github.com/dumeirei/pg-manager-backend/internal/common/errors"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/common/utils"
	"github.com/dumeirei/pg-manager-backend/internal/models"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
)

// temporaryPasswordLength 自动创建账号时生成的临时密码长度
const temporaryPasswordLength = 10

// TenantService 租客服务
type TenantService struct {
	db               *gorm.DB
	tenantRepo       *repository.TenantRepository
	bedRepo          *repository.BedRepository
	depositRepo      *repository.DepositRepository
	cipher           *crypto.AES
	cache            *cache.Store
	bcryptCost       int
	noticePeriodDays int
	now              func() time.Time
}

// NewTenantService 创建租客服务
// cipher 为 nil 时证件号明文存储
func NewTenantService(
	db *gorm.DB,
	tenantRepo *repository.TenantRepository,
	bedRepo *repository.BedRepository,
	depositRepo *repository.DepositRepository,
	cipher *crypto.AES,
	store *cache.Store,
	bcryptCost int,
	noticePeriodDays int,
) *TenantService {
	if noticePeriodDays <= 0 {
		noticePeriodDays = 30
	}
	return &TenantService{
		db:               db,
		tenantRepo:       tenantRepo,
		bedRepo:          bedRepo,
		depositRepo:      depositRepo,
		cipher:           cipher,
		cache:            store,
		bcryptCost:       bcryptCost,
		noticePeriodDays: noticePeriodDays,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// CreateTenantRequest 创建租客请求
// 邮箱已注册时复用该用户，否则新建租客账号
type CreateTenantRequest struct {
	Name                  string           `json:"name" binding:"required,max=100"`
	Email                 string           `json:"email" binding:"required,email"`
	Phone                 string           `json:"phone"`
	Password              string           `json:"password"`
	BedID                 int64            `json:"bed_id" binding:"required"`
	CheckInDate           string           `json:"check_in_date"`
	DepositAmount         *decimal.Decimal `json:"deposit_amount"`
	NoticePeriodDays      *int             `json:"notice_period_days"`
	EmergencyContactName  string           `json:"emergency_contact_name"`
	EmergencyContactPhone string           `json:"emergency_contact_phone"`
	IDProofType           string           `json:"id_proof_type"`
	IDProofNumber         string           `json:"id_proof_number"`
	Occupation            string           `json:"occupation"`
}

// CreateTenantResult 创建租客结果
type CreateTenantResult struct {
	Tenant *models.Tenant `json:"tenant"`
	// TemporaryPassword 新建账号且未指定密码时生成，仅返回一次
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

// UpdateTenantRequest 更新租客资料请求
type UpdateTenantRequest struct {
	Name                  *string `json:"name"`
	Phone                 *string `json:"phone"`
	NoticePeriodDays      *int    `json:"notice_period_days"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone"`
	IDProofType           *string `json:"id_proof_type"`
	IDProofNumber         *string `json:"id_proof_number"`
	Occupation            *string `json:"occupation"`
}

// ChangeBedRequest 换床请求
type ChangeBedRequest struct {
	BedID int64 `json:"bed_id" binding:"required"`
}

// CreateTenant 为用户分配床位并创建租客，同时创建押金记录
func (s *TenantService) CreateTenant(ctx context.Context, req *CreateTenantRequest) (*CreateTenantResult, error) {
	var result *CreateTenantResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.CreateTenantInTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateListings(ctx)
	logger.Info("Tenant created",
		logger.TenantID(result.Tenant.ID),
		logger.UserID(result.Tenant.UserID),
		logger.BedID(req.BedID),
	)
	return result, nil
}

// CreateTenantInTx 在调用方事务内创建租客
// 床位通过条件更新占用，并发分配同一床位时只有一个成功
func (s *TenantService) CreateTenantInTx(ctx context.Context, tx *gorm.DB, req *CreateTenantRequest) (*CreateTenantResult, error) {
	checkIn, err := s.parseCheckIn(req.CheckInDate)
	if err != nil {
		return nil, err
	}
	noticeDays := s.noticePeriodDays
	if req.NoticePeriodDays != nil {
		if *req.NoticePeriodDays <= 0 {
			return nil, errors.ErrInvalidParams.WithMessage("Notice period must be greater than zero")
		}
		noticeDays = *req.NoticePeriodDays
	}
	if req.DepositAmount != nil && req.DepositAmount.IsNegative() {
		return nil, errors.ErrInvalidParams.WithMessage("Deposit amount cannot be negative")
	}
	if req.DepositAmount != nil && !models.HasCentPrecision(*req.DepositAmount) {
		return nil, errors.ErrAmountPrecision
	}

	user, tempPassword, err := s.resolveUser(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	bed, err := s.bedRepo.GetByIDWithRoom(ctx, tx, req.BedID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBedNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	ok, err := s.bedRepo.Occupy(ctx, tx, bed.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !ok {
		return nil, errors.ErrBedNotAvailable
	}
	bed.Status = models.BedStatusOccupied

	idProof, err := s.encryptIDProof(req.IDProofNumber)
	if err != nil {
		return nil, err
	}

	tenant := &models.Tenant{
		UserID:                user.ID,
		BedID:                 &bed.ID,
		Status:                models.TenantStatusActive,
		CheckInDate:           checkIn,
		NoticePeriodDays:      noticeDays,
		EmergencyContactName:  strings.TrimSpace(req.EmergencyContactName),
		EmergencyContactPhone: utils.NormalizePhone(req.EmergencyContactPhone),
		IDProofType:           strings.TrimSpace(req.IDProofType),
		IDProofEncrypted:      idProof,
		Occupation:            strings.TrimSpace(req.Occupation),
	}
	if err := tx.WithContext(ctx).Create(tenant).Error; err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	amount := decimal.Zero
	if bed.Room != nil {
		amount = bed.Room.SecurityDeposit
	}
	if req.DepositAmount != nil {
		amount = *req.DepositAmount
	}
	deposit := &models.SecurityDeposit{
		TenantID:   tenant.ID,
		AmountPaid: amount,
		Status:     models.DepositStatusHeld,
	}
	if err := s.depositRepo.Create(ctx, tx, deposit); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	tenant.User = user
	tenant.Bed = bed
	tenant.Deposit = deposit
	tenant.IDProofNumber = strings.TrimSpace(req.IDProofNumber)
	return &CreateTenantResult{Tenant: tenant, TemporaryPassword: tempPassword}, nil
}

// resolveUser 查找或创建租客账号，并校验该用户没有未退房的租约
func (s *TenantService) resolveUser(ctx context.Context, tx *gorm.DB, req *CreateTenantRequest) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !utils.ValidateEmail(email) {
		return nil, "", errors.ErrInvalidParams.WithMessage("Invalid email address")
	}
	phone := utils.NormalizePhone(req.Phone)
	if phone != "" && !utils.ValidatePhone(phone) {
		return nil, "", errors.ErrInvalidParams.WithMessage("Invalid phone number")
	}

	var user models.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role != models.UserRoleTenant {
			return nil, "", errors.ErrInvalidParams.WithMessage("Email belongs to a non-tenant account")
		}
		current, err := s.tenantRepo.HasCurrentTenancy(ctx, tx, user.ID)
		if err != nil {
			return nil, "", errors.ErrDatabaseError.WithError(err)
		}
		if current {
			return nil, "", errors.ErrTenantAlreadyExists
		}
		return &user, "", nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", errors.ErrDatabaseError.WithError(err)
	}

	if phone != "" {
		var count int64
		if err := tx.WithContext(ctx).Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
			return nil, "", errors.ErrDatabaseError.WithError(err)
		}
		if count > 0 {
			return nil, "", errors.ErrPhoneExists
		}
	}

	password, tempPassword := req.Password, ""
	if password == "" {
		tempPassword = utils.GenerateRandomNumber(temporaryPasswordLength)
		password = tempPassword
	}
	if len(password) < 8 {
		return nil, "", errors.ErrPasswordTooShort
	}
	hash, err := crypto.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", errors.ErrInternalError.WithError(err)
	}

	user = models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleTenant,
		Status:       models.UserStatusActive,
	}
	if phone != "" {
		user.Phone = &phone
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", errors.ErrEmailExists
		}
		return nil, "", errors.ErrDatabaseError.WithError(err)
	}
	return &user, tempPassword, nil
}

// GiveNotice 租客提交退租通知，预计退房日 = 今天 + 通知期天数，床位不变
func (s *TenantService) GiveNotice(ctx context.Context, tenantID int64) (*models.Tenant, error) {
	today := utils.DateOnly(s.now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := s.lockTenant(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if tenant.Status != models.TenantStatusActive {
			return errors.ErrTenantNotActive
		}

		noticeDays := tenant.NoticePeriodDays
		if noticeDays <= 0 {
			noticeDays = s.noticePeriodDays
		}
		return tx.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Updates(map[string]interface{}{
			"status":            models.TenantStatusNoticePeriod,
			"notice_given_at":   s.now(),
			"expected_checkout": utils.AddDays(today, noticeDays),
		}).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	logger.Info("Tenant gave notice", logger.TenantID(tenantID))
	return s.GetTenant(ctx, tenantID)
}

// GiveNoticeByUser 当前登录租客提交退租通知
func (s *TenantService) GiveNoticeByUser(ctx context.Context, userID int64) (*models.Tenant, error) {
	tenant, err := s.currentTenancy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.GiveNotice(ctx, tenant.ID)
}

// WithdrawNotice 撤回退租通知，恢复为在住
func (s *TenantService) WithdrawNotice(ctx context.Context, tenantID int64) (*models.Tenant, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := s.lockTenant(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if tenant.Status != models.TenantStatusNoticePeriod {
			return errors.ErrTenantStatusError.WithMessage("Tenant has not given notice")
		}
		return tx.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Updates(map[string]interface{}{
			"status":            models.TenantStatusActive,
			"notice_given_at":   nil,
			"expected_checkout": nil,
		}).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return s.GetTenant(ctx, tenantID)
}

// Checkout 退房：释放所占床位并清空床位引用
func (s *TenantService) Checkout(ctx context.Context, tenantID int64) (*models.Tenant, error) {
	var releasedBed *int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := s.lockTenant(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if !tenant.HoldsBed() {
			return errors.ErrTenantStatusError.WithMessage("Tenant has already checked out")
		}

		if tenant.BedID != nil {
			if err := s.bedRepo.Release(ctx, tx, *tenant.BedID); err != nil {
				return err
			}
			releasedBed = tenant.BedID
		}

		return tx.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Updates(map[string]interface{}{
			"status":         models.TenantStatusCheckedOut,
			"bed_id":         nil,
			"checked_out_at": s.now(),
		}).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	s.InvalidateListings(ctx)
	fields := []zap.Field{logger.TenantID(tenantID)}
	if releasedBed != nil {
		fields = append(fields, logger.BedID(*releasedBed))
	}
	logger.Info("Tenant checked out", fields...)
	return s.GetTenant(ctx, tenantID)
}

// ChangeBed 换床：原子地释放旧床位并占用新床位
func (s *TenantService) ChangeBed(ctx context.Context, tenantID, newBedID int64) (*models.Tenant, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := s.lockTenant(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		if !tenant.HoldsBed() {
			return errors.ErrTenantStatusError
		}
		if tenant.BedID != nil && *tenant.BedID == newBedID {
			return errors.ErrTenantSameBed
		}

		if _, err := s.bedRepo.GetByIDWithRoom(ctx, tx, newBedID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrBedNotFound
			}
			return err
		}
		ok, err := s.bedRepo.Occupy(ctx, tx, newBedID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrBedNotAvailable
		}

		if tenant.BedID != nil {
			if err := s.bedRepo.Release(ctx, tx, *tenant.BedID); err != nil {
				return err
			}
		}
		return tx.Model(&models.Tenant{}).Where("id = ?", tenant.ID).
			Updates(map[string]interface{}{"bed_id": newBedID}).Error
	})
	if err != nil {
		return nil, wrapDBError(err)
	}

	s.InvalidateListings(ctx)
	logger.Info("Tenant changed bed", logger.TenantID(tenantID), logger.BedID(newBedID))
	return s.GetTenant(ctx, tenantID)
}

// GetTenant 获取租客详情（包含用户、床位、房间、物业、押金）
func (s *TenantService) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetByIDWithRelations(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTenantNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	tenant.IDProofNumber = s.decryptIDProof(tenant.IDProofEncrypted)
	return tenant, nil
}

// GetCurrentTenant 获取登录用户当前（或最近一次）租约，证件号脱敏返回
func (s *TenantService) GetCurrentTenant(ctx context.Context, userID int64) (*models.Tenant, error) {
	latest, err := s.tenantRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTenantNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	tenant, err := s.GetTenant(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	tenant.IDProofNumber = crypto.MaskIDProof(tenant.IDProofNumber)
	return tenant, nil
}

// ListTenants 获取租客列表
func (s *TenantService) ListTenants(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Tenant, int64, error) {
	list, total, err := s.tenantRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return list, total, nil
}

// UpdateTenant 更新租客资料
func (s *TenantService) UpdateTenant(ctx context.Context, id int64, req *UpdateTenantRequest) (*models.Tenant, error) {
	tenant, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	tenantFields := make(map[string]interface{})
	userFields := make(map[string]interface{})

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, errors.ErrInvalidParams.WithMessage("Name is required")
		}
		userFields["name"] = name
	}
	if req.Phone != nil {
		phone := utils.NormalizePhone(*req.Phone)
		if phone == "" {
			userFields["phone"] = nil
		} else {
			if !utils.ValidatePhone(phone) {
				return nil, errors.ErrInvalidParams.WithMessage("Invalid phone number")
			}
			userFields["phone"] = phone
		}
	}
	if req.NoticePeriodDays != nil {
		if *req.NoticePeriodDays <= 0 {
			return nil, errors.ErrInvalidParams.WithMessage("Notice period must be greater than zero")
		}
		tenantFields["notice_period_days"] = *req.NoticePeriodDays
	}
	if req.EmergencyContactName != nil {
		tenantFields["emergency_contact_name"] = strings.TrimSpace(*req.EmergencyContactName)
	}
	if req.EmergencyContactPhone != nil {
		tenantFields["emergency_contact_phone"] = utils.NormalizePhone(*req.EmergencyContactPhone)
	}
	if req.IDProofType != nil {
		tenantFields["id_proof_type"] = strings.TrimSpace(*req.IDProofType)
	}
	if req.IDProofNumber != nil {
		encrypted, err := s.encryptIDProof(*req.IDProofNumber)
		if err != nil {
			return nil, err
		}
		tenantFields["id_proof_number"] = encrypted
	}
	if req.Occupation != nil {
		tenantFields["occupation"] = strings.TrimSpace(*req.Occupation)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userFields) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", tenant.UserID).Updates(userFields).Error; err != nil {
				if stderrors.Is(err, gorm.ErrDuplicatedKey) {
					return errors.ErrPhoneExists
				}
				return err
			}
		}
		if len(tenantFields) > 0 {
			if err := tx.Model(&models.Tenant{}).Where("id = ?", tenant.ID).Updates(tenantFields).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapDBError(err)
	}
	return s.GetTenant(ctx, id)
}

// DeleteTenant 删除已退房租客及其账单、押金、报修记录
func (s *TenantService) DeleteTenant(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := s.lockTenant(ctx, tx, id)
		if err != nil {
			return err
		}
		if tenant.Status != models.TenantStatusCheckedOut {
			return errors.ErrTenantNotCheckedOut
		}

		billIDs := tx.Model(&models.Bill{}).Select("id").Where("tenant_id = ?", id)
		depositIDs := tx.Model(&models.SecurityDeposit{}).Select("id").Where("tenant_id = ?", id)
		steps := []func() error{
			func() error { return tx.Where("bill_id IN (?)", billIDs).Delete(&models.Payment{}).Error },
			func() error { return tx.Where("bill_id IN (?)", billIDs).Delete(&models.BillLineItem{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.Bill{}).Error },
			func() error { return tx.Where("deposit_id IN (?)", depositIDs).Delete(&models.DepositDeduction{}).Error },
			func() error { return tx.Where("deposit_id IN (?)", depositIDs).Delete(&models.DepositRefund{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.SecurityDeposit{}).Error },
			func() error { return tx.Where("tenant_id = ?", id).Delete(&models.MaintenanceRequest{}).Error },
			func() error { return tx.Delete(&models.Tenant{}, id).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapDBError(err)
	}
	logger.Info("Tenant deleted", logger.TenantID(id))
	return nil
}

// ==================== 内部方法 ====================

func (s *TenantService) lockTenant(ctx context.Context, tx *gorm.DB, id int64) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func (s *TenantService) currentTenancy(ctx context.Context, userID int64) (*models.Tenant, error) {
	tenant, err := s.tenantRepo.GetCurrentByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrTenantNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return tenant, nil
}

func (s *TenantService) parseCheckIn(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return utils.DateOnly(s.now()), nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, errors.ErrInvalidParams.WithMessage("Invalid check-in date, expected YYYY-MM-DD")
	}
	return utils.DateOnly(t), nil
}

func (s *TenantService) encryptIDProof(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" || s.cipher == nil {
		return number, nil
	}
	encrypted, err := s.cipher.Encrypt(number)
	if err != nil {
		return "", errors.ErrInternalError.WithError(err)
	}
	return encrypted, nil
}

// decryptIDProof 解密证件号，无法解密时按明文返回
func (s *TenantService) decryptIDProof(stored string) string {
	if stored == "" || s.cipher == nil {
		return stored
	}
	plain, err := s.cipher.Decrypt(stored)
	if err != nil {
		return stored
	}
	return plain
}

// InvalidateListings 清除物业列表缓存，床位占用变化后调用
func (s *TenantService) InvalidateListings(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cache.KeyPrefixProperty); err != nil {
		logger.Warn("Failed to invalidate property cache", zap.Error(err))
	}
}

// wrapDBError 应用错误原样返回，其余视为数据库错误
func wrapDBError(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.ErrDatabaseError.WithError(err)
}
