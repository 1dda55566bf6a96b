package upi

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayURL(t *testing.T) {
	got := PayURL("shop@okhdfc", "Udyog Traders", decimal.RequireFromString("1064.20"), "INV-202601-0007")
	assert.Equal(t, "upi://pay?pa=shop%40okhdfc&pn=Udyog+Traders&am=1064.20&tn=INV-202601-0007&cu=INR", got)
}

func TestPayURLOmitsAmountWhenNotPositive(t *testing.T) {
	for _, amt := range []string{"0", "-5"} {
		got := PayURL("shop@okhdfc", "Udyog Traders", decimal.RequireFromString(amt), "")
		assert.NotContains(t, got, "&am=", "amount %s", amt)
		assert.True(t, strings.HasSuffix(got, "&cu=INR"))
	}
}

func TestPayURLOmitsEmptyNote(t *testing.T) {
	got := PayURL("shop@okhdfc", "Udyog Traders", decimal.NewFromInt(10), "  ")
	assert.NotContains(t, got, "&tn=")
}

func TestQRPNGProducesValidPNG(t *testing.T) {
	payload := PayURL("shop@okhdfc", "Udyog Traders", decimal.NewFromInt(500), "test")
	img, err := QRPNG(payload)
	require.NoError(t, err)
	require.NotEmpty(t, img)
	assert.Equal(t, "\x89PNG", string(img[:4]))
}
