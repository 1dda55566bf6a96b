package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/udyogbooks/udyogbooks/internal/render"

	jobmetrics "github.com/udyogbooks/udyogbooks/internal/jobs"
)

type stubSource struct {
	doc render.Document
	err error
}

func (s *stubSource) RenderDocument(ctx context.Context, id int64) (render.Document, error) {
	return s.doc, s.err
}

type stubRenderer struct {
	format render.Format
	output []byte
}

func (s *stubRenderer) Format() render.Format { return s.format }

func (s *stubRenderer) Render(ctx context.Context, doc render.Document) ([]byte, error) {
	return s.output, nil
}

func newRenderJob(t *testing.T, invoices, proposals DocumentSource) (*DocumentRenderJob, string) {
	t.Helper()
	dir := t.TempDir()
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewDocumentRenderJob(nil, metrics, dir, invoices, proposals, []render.Renderer{
		&stubRenderer{format: render.FormatPDF, output: []byte("%PDF-stub")},
	})
	return job, dir
}

func renderTask(t *testing.T, payload DocumentRenderPayload) *asynq.Task {
	t.Helper()
	task, err := NewDocumentRenderTask(payload)
	require.NoError(t, err)
	return task
}

func TestHandleWritesRenderedFile(t *testing.T) {
	source := &stubSource{doc: render.Document{
		Meta: render.Meta{Kind: render.KindInvoice, Number: "INV-202603-0007"},
	}}
	job, dir := newRenderJob(t, source, nil)

	err := job.Handle(context.Background(), renderTask(t, DocumentRenderPayload{Kind: "invoice", ID: 7, Format: "pdf"}))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "invoices", "inv-202603-0007.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-stub", string(data))
}

func TestHandleSkipsRetryOnBadInput(t *testing.T) {
	job, _ := newRenderJob(t, &stubSource{}, nil)

	err := job.Handle(context.Background(), renderTask(t, DocumentRenderPayload{Kind: "receipt", ID: 1, Format: "pdf"}))
	require.True(t, errors.Is(err, asynq.SkipRetry))

	err = job.Handle(context.Background(), renderTask(t, DocumentRenderPayload{Kind: "invoice", ID: 1, Format: "docx"}))
	require.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandlePropagatesLoadError(t *testing.T) {
	loadErr := errors.New("invoice gone")
	job, _ := newRenderJob(t, &stubSource{err: loadErr}, nil)

	err := job.Handle(context.Background(), renderTask(t, DocumentRenderPayload{Kind: "invoice", ID: 1, Format: "pdf"}))
	require.ErrorIs(t, err, loadErr)
}
