// Package utils 通用工具函数单元测试
package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNo(t *testing.T) {
	for _, prefix := range []string{"BL", "BK", ""} {
		t.Run("prefix_"+prefix, func(t *testing.T) {
			no := GenerateNo(prefix)
			assert.True(t, strings.HasPrefix(no, prefix))
			// 前缀 + 14位时间戳 + 6位随机数
			assert.Len(t, no, len(prefix)+20)
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"+919876543210", true},
		{"98765 43210", true},
		{"1234567890", false},
		{"98765", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePhone(tt.phone))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("tenant@example.com"))
	assert.False(t, ValidateEmail("tenant@"))
	assert.False(t, ValidateEmail(""))
}

func TestDateHelpers(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, 3, 17, 22, 45, 0, 0, time.UTC)

	t.Run("DateOnly 截断到UTC零点", func(t *testing.T) {
		assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), DateOnly(now))
		// IST 凌晨 1 点对应 UTC 前一天
		local := time.Date(2026, 3, 18, 1, 0, 0, 0, ist)
		assert.Equal(t, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), DateOnly(local))
	})

	t.Run("FirstDayOfMonth", func(t *testing.T) {
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), FirstDayOfMonth(now))
	})

	t.Run("AddDays 跨月", func(t *testing.T) {
		assert.Equal(t, time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC), AddDays(DateOnly(now), 30))
	})

	t.Run("ParseMonth/FormatMonth", func(t *testing.T) {
		m, err := ParseMonth("2026-02")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), m)
		assert.Equal(t, "2026-02", FormatMonth(m))

		_, err = ParseMonth("2026/02")
		assert.Error(t, err)
	})
}

func TestDaysUntil(t *testing.T) {
	due := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"整三天", time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC), 3},
		{"不足三天向上取整", time.Date(2026, 3, 17, 10, 0, 0, 0, time.UTC), 3},
		{"当天早些时候", time.Date(2026, 3, 19, 23, 0, 0, 0, time.UTC), 1},
		{"已过期不为负", time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(due, tt.now))
		})
	}
}

func TestMapLink(t *testing.T) {
	lat, lng := 12.9715987, 77.5945627

	t.Run("优先经纬度", func(t *testing.T) {
		link := MapLink(&lat, &lng, "MG Road, Bengaluru")
		assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=12.971599%2C77.594563", link)
	})

	t.Run("退回地址", func(t *testing.T) {
		link := MapLink(nil, nil, "MG Road, Bengaluru")
		assert.Equal(t, "https://www.google.com/maps/search/?api=1&query=MG+Road%2C+Bengaluru", link)
	})

	t.Run("无地址", func(t *testing.T) {
		assert.Empty(t, MapLink(nil, &lng, " "))
	})
}

func TestPointersAndContains(t *testing.T) {
	assert.Equal(t, "x", SafeString(StringPtr("x")))
	assert.Equal(t, "", SafeString(nil))
	assert.Equal(t, int64(7), SafeInt64(Int64Ptr(7)))
	assert.Equal(t, int64(0), SafeInt64(nil))
	assert.True(t, Contains([]string{"SENT", "PARTIAL"}, "PARTIAL"))
	assert.False(t, Contains([]int{1, 2}, 3))
}

func TestPagination(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)

	p = Pagination{Page: 3, PageSize: 20}
	assert.Equal(t, 40, p.GetOffset())
	assert.Equal(t, 20, p.GetLimit())
}
