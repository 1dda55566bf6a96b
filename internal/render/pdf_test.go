package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageCount(out []byte) int {
	// Every page object carries "/Type /Page"; the pages tree adds one
	// "/Type /Pages" which contains the shorter marker as a substring.
	return bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
}

func TestPDFRenderSinglePage(t *testing.T) {
	r := NewPDF(nil)
	out, err := r.Render(context.Background(), sampleDocument(t, 3))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, 1, pageCount(out))
}

func TestPDFRenderPaginatesLongDocuments(t *testing.T) {
	r := NewPDF(nil)
	out, err := r.Render(context.Background(), sampleDocument(t, 60))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pageCount(out), 2, "sixty wrapped rows must overflow one A4 page")
}

func TestPDFRenderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPDF(nil).Render(ctx, sampleDocument(t, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFRenderSurvivesBrokenLogo(t *testing.T) {
	doc := sampleDocument(t, 2)
	doc.Company.LogoPNG = []byte("not a png")
	out, err := NewPDF(nil).Render(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
