// Package crypto 加密工具单元测试
package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewAES_KeySize(t *testing.T) {
	for _, key := range []string{"1234567890123456", "123456789012345678901234", "12345678901234567890123456789012"} {
		_, err := NewAES(key)
		assert.NoError(t, err)
	}

	_, err := NewAES("short")
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestAES_EncryptDecrypt(t *testing.T) {
	a, err := NewAES("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	plaintext := "ABCDE1234F"
	c1, err := a.Encrypt(plaintext)
	require.NoError(t, err)
	c2, err := a.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c2, "随机 nonce 应产生不同密文")

	got, err := a.Decrypt(c1)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestAES_Decrypt_Failures(t *testing.T) {
	a, err := NewAES("0123456789abcdef")
	require.NoError(t, err)

	t.Run("非base64", func(t *testing.T) {
		_, err := a.Decrypt("%%%")
		assert.Error(t, err)
	})

	t.Run("过短", func(t *testing.T) {
		_, err := a.Decrypt("YWJj")
		assert.ErrorIs(t, err, ErrCiphertextShort)
	})

	t.Run("密钥不同", func(t *testing.T) {
		ciphertext, err := a.Encrypt("secret")
		require.NoError(t, err)

		other, err := NewAES("fedcba9876543210")
		require.NoError(t, err)
		_, err = other.Decrypt(ciphertext)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword("s3cret-pass", hash))
	assert.False(t, VerifyPassword("wrong-pass", hash))
	assert.False(t, VerifyPassword("s3cret-pass", "not-a-hash"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	t.Run("非法cost使用默认值", func(t *testing.T) {
		hash, err := HashPassword("x", 0)
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.DefaultCost, cost)
	})
}

func TestMasking(t *testing.T) {
	assert.Equal(t, "******3210", MaskPhone("9876543210"))
	assert.Equal(t, "123", MaskPhone("123"))
	assert.Equal(t, "XXXXXXXX9012", MaskIDProof("123456789012"))
	assert.Equal(t, "1234", MaskIDProof("1234"))
}
