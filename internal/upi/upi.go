// Package upi builds UPI payment deep links and scannable QR images for
// invoice payment collection. UPI is INR-only; there is no multi-currency
// variant of the pay URI.
package upi

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/shopspring/decimal"
)

// qrSize is the rendered QR edge in pixels.
const qrSize = 256

// PayURL builds a upi://pay deep link. The am parameter is omitted entirely
// when the amount is zero or negative; several UPI apps reject a zero amount
// field outright. Parameter order follows the conventional pa, pn, am, tn,
// cu sequence.
func PayURL(upiID, payeeName string, amount decimal.Decimal, note string) string {
	var b strings.Builder
	b.WriteString("upi://pay?pa=")
	b.WriteString(url.QueryEscape(strings.TrimSpace(upiID)))
	b.WriteString("&pn=")
	b.WriteString(url.QueryEscape(strings.TrimSpace(payeeName)))
	if amount.IsPositive() {
		b.WriteString("&am=")
		b.WriteString(amount.Round(2).StringFixed(2))
	}
	if note = strings.TrimSpace(note); note != "" {
		b.WriteString("&tn=")
		b.WriteString(url.QueryEscape(note))
	}
	b.WriteString("&cu=INR")
	return b.String()
}

// QRPNG encodes a payload as a PNG QR code at medium error correction.
// Callers must treat a failure here as a non-fatal degradation: the document
// renders without its QR block.
func QRPNG(payload string) ([]byte, error) {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("upi: encode qr: %w", err)
	}
	code, err = barcode.Scale(code, qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("upi: scale qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("upi: png encode: %w", err)
	}
	return buf.Bytes(), nil
}
