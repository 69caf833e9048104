// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(err, ErrBedNotAvailable) 对派生错误同样成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown            = New(1000, "Unknown error")
	ErrInvalidParams      = New(1001, "Invalid parameters")
	ErrNotFound           = New(1002, "Resource not found")
	ErrAlreadyExists      = New(1003, "Resource already exists")
	ErrDatabaseError      = New(1004, "Database error")
	ErrCacheError         = New(1005, "Cache error")
	ErrInternalError      = New(1006, "Internal error")
	ErrExternalService    = New(1007, "External service error")
	ErrRateLimitExceed    = New(1008, "Too many requests")
	ErrOperationFailed    = New(1009, "Operation failed")
	ErrFileTooLarge       = New(1010, "File is too large")
	ErrFileTypeNotAllowed = New(1011, "File type is not allowed")
	ErrUploadFailed       = New(1012, "Upload failed")
)

// 认证与账号错误码 (2000-2999)
var (
	ErrUnauthorized       = New(2000, "Authentication required")
	ErrTokenExpired       = New(2001, "Session has expired")
	ErrTokenInvalid       = New(2002, "Invalid token")
	ErrTokenRefreshFail   = New(2003, "Failed to refresh token")
	ErrPermissionDenied   = New(2004, "Permission denied")
	ErrAccountDisabled    = New(2005, "Account is disabled")
	ErrInvalidCredentials = New(2006, "Invalid email/phone or password")
	ErrPasswordIncorrect  = New(2007, "Current password is incorrect")
	ErrPasswordTooShort   = New(2008, "Password must be at least 8 characters")
	ErrUserNotFound       = New(2100, "User not found")
	ErrEmailExists        = New(2101, "Email is already registered")
	ErrPhoneExists        = New(2102, "Phone number is already registered")
)

// 房源库存错误码 (3000-3999)
var (
	ErrPropertyNotFound         = New(3000, "Property not found")
	ErrRoomNotFound             = New(3001, "Room not found")
	ErrBedNotFound              = New(3002, "Bed not found")
	ErrRoomNumberExists         = New(3003, "Room number already exists in this property")
	ErrBedNumberExists          = New(3004, "Bed number already exists in this room")
	ErrBedNotAvailable          = New(3005, "Selected bed is not available")
	ErrBedHasActiveTenant       = New(3006, "Cannot delete bed with active tenant")
	ErrBedStatusLocked          = New(3007, "Cannot change status of a bed with an active tenant")
	ErrBedOccupyDirect          = New(3008, "Beds can only be occupied by assigning a tenant")
	ErrRoomHasActiveTenants     = New(3009, "Cannot delete room with active tenants")
	ErrPropertyHasActiveTenants = New(3010, "Cannot delete property with active tenants")
	ErrPropertyInactive         = New(3011, "Property is not accepting bookings")
)

// 租客错误码 (4000-4999)
var (
	ErrTenantNotFound       = New(4000, "Tenant not found")
	ErrTenantStatusError    = New(4001, "Tenant status does not allow this action")
	ErrTenantNotActive      = New(4002, "Notice can only be given by an active tenant")
	ErrTenantAlreadyExists  = New(4003, "User already has an active tenancy")
	ErrTenantNotCheckedOut  = New(4004, "Only checked-out tenants can be deleted")
	ErrTenantSameBed        = New(4005, "Tenant already occupies this bed")
	ErrTenantHasNoBed       = New(4006, "Tenant has no assigned bed")
)

// 账单错误码 (5000-5999)
var (
	ErrBillNotFound          = New(5000, "Bill not found")
	ErrBillExists            = New(5001, "Bill already exists for this month")
	ErrBillStatusError       = New(5002, "Bill status does not allow this action")
	ErrBillBalanceNotZero    = New(5003, "Bill balance must be zero before it can be marked paid")
	ErrPaymentExceedsBalance = New(5004, "Payment amount exceeds bill balance")
	ErrInvalidAmount         = New(5005, "Amount must be greater than zero")
	ErrBillTotalBelowPaid    = New(5006, "Bill total cannot be less than the amount already paid")
	ErrBillHasPayments       = New(5007, "Cannot cancel a bill with payments")
	ErrPaymentNotConfigured  = New(5008, "UPI payment is not configured")
	ErrAmountPrecision       = New(5009, "Amount cannot have more than 2 decimal places")
)

// 押金错误码 (6000-6999)
var (
	ErrDepositNotFound         = New(6000, "Security deposit not found")
	ErrRefundExceedsBalance    = New(6001, "Refund amount exceeds refundable balance")
	ErrDeductionExceedsDeposit = New(6002, "Deductions cannot exceed the deposit amount")
	ErrDepositLocked           = New(6003, "Deposit amount cannot change after a refund")
)

// 报修与内容错误码 (7000-7999)
var (
	ErrMaintenanceNotFound   = New(7000, "Maintenance request not found")
	ErrMaintenanceTransition = New(7001, "Invalid maintenance status transition")
	ErrTestimonialNotFound   = New(7100, "Testimonial not found")
	ErrInvalidRating         = New(7101, "Rating must be between 1 and 5")
	ErrAnnouncementNotFound  = New(7200, "Announcement not found")
)

// 预约错误码 (8000-8999)
var (
	ErrBookingNotFound    = New(8000, "Booking not found")
	ErrBookingStatusError = New(8001, "Booking status does not allow this action")
	ErrBookingConverted   = New(8002, "Booking has already been converted")
	ErrBookingBedMismatch = New(8003, "Selected bed does not belong to the booked property")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
