// Package whatsapp WhatsApp Cloud API 模板消息客户端
package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Config WhatsApp 配置
type Config struct {
	BaseURL     string // 如 https://graph.facebook.com/v19.0/<phone-number-id>
	APIToken    string
	CountryCode string
	Timeout     time.Duration
	RetryCount  int
}

// Client WhatsApp 客户端
type Client struct {
	httpClient  *resty.Client
	countryCode string
}

type textParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type component struct {
	Type       string          `json:"type"`
	Parameters []textParameter `json:"parameters"`
}

type language struct {
	Code string `json:"code"`
}

type template struct {
	Name       string      `json:"name"`
	Language   language    `json:"language"`
	Components []component `json:"components,omitempty"`
}

type messageRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         template `json:"template"`
}

type messageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// NewClient 创建 WhatsApp 客户端
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetAuthToken(cfg.APIToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient:  client,
		countryCode: cfg.CountryCode,
	}
}

// SendTemplate 发送模板消息，返回消息 ID
func (c *Client) SendTemplate(ctx context.Context, phone, templateName string, params []string) (string, error) {
	body := messageRequest{
		MessagingProduct: "whatsapp",
		To:               c.recipient(phone),
		Type:             "template",
		Template: template{
			Name:     templateName,
			Language: language{Code: "en"},
		},
	}
	if len(params) > 0 {
		parameters := make([]textParameter, 0, len(params))
		for _, p := range params {
			parameters = append(parameters, textParameter{Type: "text", Text: p})
		}
		body.Template.Components = []component{{Type: "body", Parameters: parameters}}
	}

	var result messageResponse
	var apiErr errorResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/messages")
	if err != nil {
		return "", fmt.Errorf("failed to call whatsapp api: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("whatsapp api error: %s (code: %d)", apiErr.Error.Message, apiErr.Error.Code)
		}
		return "", fmt.Errorf("whatsapp api error: status %d", resp.StatusCode())
	}
	if len(result.Messages) == 0 {
		return "", fmt.Errorf("whatsapp api returned no message id")
	}
	return result.Messages[0].ID, nil
}

// recipient 拼接国家码，号码已带国家码时原样返回
func (c *Client) recipient(phone string) string {
	digits := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if c.countryCode == "" || len(digits) > 10 {
		return digits
	}
	return c.countryCode + digits
}
