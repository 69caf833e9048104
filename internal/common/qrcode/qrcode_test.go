// Package qrcode 二维码生成功能单元测试
package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	gen := NewGenerator()
	assert.Equal(t, 256, gen.size)
	assert.Equal(t, Medium, gen.recoveryLevel)

	gen = NewGenerator(WithSize(512), WithRecoveryLevel(High))
	assert.Equal(t, 512, gen.size)
	assert.Equal(t, High, gen.recoveryLevel)
}

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator(WithSize(300))
	img, err := gen.Generate("upi://pay?pa=pg@okaxis&am=100.00&cu=INR")
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, 300, bounds.Dx())
	assert.Equal(t, bounds.Dx(), bounds.Dy())
}

func TestGenerator_GeneratePNG(t *testing.T) {
	gen := NewGenerator()
	data, err := gen.GeneratePNG("BILL20240301001")
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	again, err := gen.GeneratePNG("BILL20240301001")
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestGenerator_GenerateDataURL(t *testing.T) {
	gen := NewGenerator(WithRecoveryLevel(Low))
	dataURL, err := gen.GenerateDataURL("hello")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(raw))
	assert.NoError(t, err)
}

func TestGenerator_EmptyContent(t *testing.T) {
	_, err := NewGenerator().GeneratePNG("")
	assert.Error(t, err)
}

func TestUPIPayment_Link(t *testing.T) {
	p := &UPIPayment{
		VPA:       "pgmanager@okaxis",
		PayeeName: "Sunrise PG",
		Amount:    decimal.RequireFromString("6500.5"),
		Note:      "Rent Mar 2024",
		Reference: "BILL20240301001",
	}
	assert.Equal(t,
		"upi://pay?pa=pgmanager%40okaxis&pn=Sunrise%20PG&am=6500.50&tr=BILL20240301001&tn=Rent%20Mar%202024&cu=INR",
		p.Link(),
	)

	p = &UPIPayment{VPA: "pg@upi", PayeeName: "PG", Amount: decimal.NewFromInt(10), Currency: "INR"}
	assert.Equal(t, "upi://pay?pa=pg%40upi&pn=PG&am=10.00&cu=INR", p.Link())
}
