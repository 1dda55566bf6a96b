package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLRenderIncludesComputedBlocks(t *testing.T) {
	r, err := NewHTML(nil)
	require.NoError(t, err)

	doc := sampleDocument(t, 2)
	out, err := r.Render(context.Background(), doc)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "INV-202601-0007")
	assert.Contains(t, html, "TAX INVOICE")
	assert.Contains(t, html, "Amount in Words: "+doc.AmountInWords())
	assert.Contains(t, html, "GST @ 18%")
	// Indian digit grouping from the shared formatter, not template logic.
	assert.Contains(t, html, "₹")
}

func TestHTMLRenderEmbedsUPIQRForInvoices(t *testing.T) {
	r, err := NewHTML(nil)
	require.NoError(t, err)

	out, err := r.Render(context.Background(), sampleDocument(t, 1))
	require.NoError(t, err)
	assert.Contains(t, string(out), "data:image/png;base64,")
}

func TestHTMLRenderOmitsQRForProposals(t *testing.T) {
	r, err := NewHTML(nil)
	require.NoError(t, err)

	doc := sampleDocument(t, 1)
	doc.Meta.Kind = KindProposal
	out, err := r.Render(context.Background(), doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Scan to pay")
	assert.Contains(t, string(out), "PROPOSAL")
}

func TestHTMLRenderHonoursCancellation(t *testing.T) {
	r, err := NewHTML(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, sampleDocument(t, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
