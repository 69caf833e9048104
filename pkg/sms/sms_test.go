// Package sms 短信服务单元测试
package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSender_Send(t *testing.T) {
	sender := NewMockSender()
	ctx := context.Background()

	t.Run("发送短信", func(t *testing.T) {
		err := sender.Send(ctx, "9876543210", "SMS_REMINDER", map[string]string{
			"bill_no": "BILL001",
		})
		require.NoError(t, err)

		require.Len(t, sender.SentMessages, 1)
		msg := sender.GetLastMessage()
		assert.Equal(t, "9876543210", msg.Phone)
		assert.Equal(t, "SMS_REMINDER", msg.TemplateCode)
		assert.Equal(t, "BILL001", msg.Params["bill_no"])
		assert.NotZero(t, msg.SentAt)
	})

	t.Run("清空记录", func(t *testing.T) {
		sender.Clear()
		assert.Nil(t, sender.GetLastMessage())
	})

	t.Run("发送失败", func(t *testing.T) {
		sender.Err = errors.New("gateway down")
		err := sender.Send(ctx, "9876543210", "SMS_REMINDER", nil)
		assert.EqualError(t, err, "gateway down")
		assert.Empty(t, sender.SentMessages)
	})
}

func TestNewAliyunSender(t *testing.T) {
	sender, err := NewAliyunSender(&Config{
		AccessKeyID:     "test-key",
		AccessKeySecret: "test-secret",
		SignName:        "PG Manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "PG Manager", sender.signName)
}
