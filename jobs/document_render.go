package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/udyogbooks/udyogbooks/internal/observability"
	"github.com/udyogbooks/udyogbooks/internal/render"

	jobmetrics "github.com/udyogbooks/udyogbooks/internal/jobs"
)

// DocumentSource loads a renderable document by ID. Both the invoice and
// proposal services satisfy it.
type DocumentSource interface {
	RenderDocument(ctx context.Context, id int64) (render.Document, error)
}

// DocumentRenderJob renders invoices and proposals to files under the
// configured storage directory.
type DocumentRenderJob struct {
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	StorageDir string

	sources   map[string]DocumentSource
	renderers map[render.Format]render.Renderer
}

// NewDocumentRenderJob initialises the render handler.
func NewDocumentRenderJob(logger *slog.Logger, metrics *jobmetrics.Metrics, storageDir string, invoices, proposals DocumentSource, renderers []render.Renderer) *DocumentRenderJob {
	if logger == nil {
		logger = slog.Default()
	}
	byFormat := make(map[render.Format]render.Renderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &DocumentRenderJob{
		Logger:     logger,
		Metrics:    metrics,
		StorageDir: storageDir,
		sources: map[string]DocumentSource{
			"invoice":  invoices,
			"proposal": proposals,
		},
		renderers: byFormat,
	}
}

// Handle processes TaskTypeDocumentRender tasks.
func (j *DocumentRenderJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload DocumentRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track("document_render")
	return tracker.End(j.renderToDisk(ctx, payload))
}

func (j *DocumentRenderJob) renderToDisk(ctx context.Context, payload DocumentRenderPayload) error {
	source, ok := j.sources[payload.Kind]
	if !ok || source == nil {
		return fmt.Errorf("render: unknown document kind %q: %w", payload.Kind, asynq.SkipRetry)
	}
	renderer, ok := j.renderers[render.Format(payload.Format)]
	if !ok {
		return fmt.Errorf("render: unsupported format %q: %w", payload.Format, asynq.SkipRetry)
	}

	doc, err := source.RenderDocument(ctx, payload.ID)
	if err != nil {
		return fmt.Errorf("load %s %d: %w", payload.Kind, payload.ID, err)
	}
	for _, warning := range doc.ConsistencyWarnings() {
		j.Logger.Warn("document consistency", slog.String("warning", warning))
	}

	start := time.Now()
	data, err := renderer.Render(ctx, doc)
	if err != nil {
		return fmt.Errorf("render %s %d as %s: %w", payload.Kind, payload.ID, payload.Format, err)
	}
	observability.ObserveRender(payload.Format, time.Since(start))

	dir := filepath.Join(j.StorageDir, payload.Kind+"s")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	path := filepath.Join(dir, doc.FileName(renderer.Format()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	j.Logger.Info("document rendered",
		slog.String("kind", payload.Kind),
		slog.Int64("id", payload.ID),
		slog.String("format", payload.Format),
		slog.String("path", path),
		slog.Int("bytes", len(data)))
	return nil
}
