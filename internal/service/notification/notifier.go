// Package notification 提供账单提醒的多渠道发送
package notification

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dumeirei/pg-manager-backend/internal/common/config"
	"github.com/dumeirei/pg-manager-backend/internal/common/crypto"
	"github.com/dumeirei/pg-manager-backend/internal/common/logger"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	"github.com/dumeirei/pg-manager-backend/pkg/sms"
	"github.com/dumeirei/pg-manager-backend/pkg/whatsapp"
)

// 通知渠道
const (
	ChannelLog      = "log"
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

// Reminder 账单到期提醒
type Reminder struct {
	BillID       int64           `json:"bill_id"`
	BillNo       string          `json:"bill_no"`
	TenantID     int64           `json:"tenant_id"`
	TenantName   string          `json:"tenant_name"`
	Phone        string          `json:"phone"`
	Balance      decimal.Decimal `json:"balance"`
	DueDate      time.Time       `json:"due_date"`
	DaysUntilDue int             `json:"days_until_due"`
}

// Notifier 提醒发送接口
type Notifier interface {
	Channel() string
	SendReminder(ctx context.Context, r *Reminder) error
}

// TemplateSender WhatsApp 模板消息发送接口
type TemplateSender interface {
	SendTemplate(ctx context.Context, phone, templateName string, params []string) (string, error)
}

// New 根据配置创建通知渠道
func New(cfg *config.Config, m *metrics.Metrics) (Notifier, error) {
	var n Notifier
	switch cfg.Notification.Channel {
	case "", ChannelLog:
		n = NewLogNotifier()
	case ChannelSMS:
		var sender sms.Sender
		if cfg.SMS.Provider == "aliyun" {
			aliyun, err := sms.NewAliyunSender(&sms.Config{
				AccessKeyID:     cfg.SMS.AccessKeyID,
				AccessKeySecret: cfg.SMS.AccessKeySecret,
				SignName:        cfg.SMS.SignName,
			})
			if err != nil {
				return nil, err
			}
			sender = aliyun
		} else {
			sender = sms.NewMockSender()
		}
		n = NewSMSNotifier(sender, cfg.SMS.ReminderTemplateID)
	case ChannelWhatsApp:
		client := whatsapp.NewClient(&whatsapp.Config{
			BaseURL:     cfg.WhatsApp.BaseURL,
			APIToken:    cfg.WhatsApp.APIToken,
			CountryCode: cfg.WhatsApp.CountryCode,
			Timeout:     time.Duration(cfg.WhatsApp.Timeout) * time.Second,
		})
		n = NewWhatsAppNotifier(client, cfg.WhatsApp.TemplateName)
	default:
		return nil, fmt.Errorf("unsupported notification channel: %s", cfg.Notification.Channel)
	}
	return WithMetrics(n, m), nil
}

// LogNotifier 仅写日志的通知渠道
type LogNotifier struct{}

// NewLogNotifier 创建日志通知渠道
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Channel 渠道名
func (n *LogNotifier) Channel() string { return ChannelLog }

// SendReminder 记录提醒日志
func (n *LogNotifier) SendReminder(ctx context.Context, r *Reminder) error {
	logger.Info("Bill reminder",
		logger.BillID(r.BillID),
		logger.BillNo(r.BillNo),
		logger.TenantID(r.TenantID),
		zap.String("phone", crypto.MaskPhone(r.Phone)),
		zap.String("balance", r.Balance.StringFixed(2)),
		zap.Time("due_date", r.DueDate),
		zap.Int("days_until_due", r.DaysUntilDue),
	)
	return nil
}

// SMSNotifier 短信通知渠道
type SMSNotifier struct {
	sender       sms.Sender
	templateCode string
}

// NewSMSNotifier 创建短信通知渠道
func NewSMSNotifier(sender sms.Sender, templateCode string) *SMSNotifier {
	return &SMSNotifier{sender: sender, templateCode: templateCode}
}

// Channel 渠道名
func (n *SMSNotifier) Channel() string { return ChannelSMS }

// SendReminder 发送短信提醒
func (n *SMSNotifier) SendReminder(ctx context.Context, r *Reminder) error {
	if r.Phone == "" {
		return fmt.Errorf("tenant %d has no phone number", r.TenantID)
	}
	return n.sender.Send(ctx, r.Phone, n.templateCode, map[string]string{
		"name":     r.TenantName,
		"bill_no":  r.BillNo,
		"amount":   r.Balance.StringFixed(2),
		"due_date": r.DueDate.Format("2006-01-02"),
		"days":     strconv.Itoa(r.DaysUntilDue),
	})
}

// WhatsAppNotifier WhatsApp 通知渠道
type WhatsAppNotifier struct {
	client       TemplateSender
	templateName string
}

// NewWhatsAppNotifier 创建 WhatsApp 通知渠道
func NewWhatsAppNotifier(client TemplateSender, templateName string) *WhatsAppNotifier {
	return &WhatsAppNotifier{client: client, templateName: templateName}
}

// Channel 渠道名
func (n *WhatsAppNotifier) Channel() string { return ChannelWhatsApp }

// SendReminder 发送 WhatsApp 模板提醒
func (n *WhatsAppNotifier) SendReminder(ctx context.Context, r *Reminder) error {
	if r.Phone == "" {
		return fmt.Errorf("tenant %d has no phone number", r.TenantID)
	}
	_, err := n.client.SendTemplate(ctx, r.Phone, n.templateName, []string{
		r.TenantName,
		r.BillNo,
		r.Balance.StringFixed(2),
		r.DueDate.Format("02 Jan 2006"),
	})
	return err
}

type meteredNotifier struct {
	Notifier
	metrics *metrics.Metrics
}

// WithMetrics 为通知渠道附加发送计数
func WithMetrics(n Notifier, m *metrics.Metrics) Notifier {
	if m == nil {
		return n
	}
	return &meteredNotifier{Notifier: n, metrics: m}
}

func (n *meteredNotifier) SendReminder(ctx context.Context, r *Reminder) error {
	err := n.Notifier.SendReminder(ctx, r)
	n.metrics.RecordNotification(n.Channel(), err)
	return err
}
