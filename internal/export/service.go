// Package export renders a stored CV into a downloadable document.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cvio-backend/cv/model"
	"cvio-backend/cv/render"
	"cvio-backend/cv/skills"
	"cvio-backend/internal/cvs"
	"cvio-backend/internal/shared/metrics"
	"cvio-backend/internal/shared/storage/object"
	"cvio-backend/internal/shared/telemetry"
	"cvio-backend/internal/shared/tracing"
)

// ProfileSource reads CV profiles. Unknown ids yield cvs.ErrNotFound.
type ProfileSource interface {
	Profile(ctx context.Context, id string) (model.CVProfile, error)
}

// CatalogSource reads the full skill catalog.
type CatalogSource interface {
	GetAllSkills(ctx context.Context) ([]model.SkillCatalogEntry, error)
}

// Request identifies one export.
type Request struct {
	CVID          string
	Authenticated bool
	UserID        string
}

// Service generates CV documents and stages them for download.
type Service struct {
	CVs      ProfileSource
	Skills   CatalogSource
	Engine   *render.Engine
	Template render.TemplateHandle
	Store    object.ObjectStore
}

// Artifact is a staged document. Close releases the stored copy.
type Artifact struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser

	once    sync.Once
	release func() error
}

// Close closes the body and deletes the staged document. It is safe to call
// more than once.
func (a *Artifact) Close() error {
	var err error
	a.once.Do(func() {
		closeErr := a.Body.Close()
		releaseErr := a.release()
		err = errors.Join(closeErr, releaseErr)
	})
	return err
}

// Generate fetches the CV and the catalog from one snapshot each, resolves
// the skill ratings and renders the document.
func (s *Service) Generate(ctx context.Context, req Request) (model.GeneratedDocument, error) {
	ctx, span := tracing.Tracer().Start(ctx, "export.generate",
		trace.WithAttributes(attribute.String("cv.id", req.CVID)))
	defer span.End()

	var (
		profile model.CVProfile
		catalog []model.SkillCatalogEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.CVs.Profile(gctx, req.CVID)
		if err != nil {
			if errors.Is(err, cvs.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load cv: %w", err)
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		c, err := s.Skills.GetAllSkills(gctx)
		if err != nil {
			return fmt.Errorf("load skill catalog: %w", err)
		}
		catalog = c
		return nil
	})
	if err := g.Wait(); err != nil {
		failSpan(span, err)
		return model.GeneratedDocument{}, err
	}

	resolved, report := skills.ResolveWithReport(profile.Skills, catalog)
	s.logReport(req.CVID, report)
	span.SetAttributes(
		attribute.Int("cv.skills.resolved", len(resolved)),
		attribute.Int("cv.skills.stale", len(report.Stale)),
	)

	doc, err := s.Engine.Render(profile.Fields(), resolved, s.Template)
	if err != nil {
		err = classifyRenderError(err)
		failSpan(span, err)
		return model.GeneratedDocument{}, err
	}
	return doc, nil
}

// Export generates the document and stages it in the object store. The
// caller must Close the artifact once the response has been written.
func (s *Service) Export(ctx context.Context, req Request) (*Artifact, error) {
	start := time.Now()
	metrics.IncExportStarted()

	artifact, err := s.export(ctx, req)
	metrics.ObserveExportDuration(start)
	if err != nil {
		reason := failureReason(err)
		metrics.IncExportFailed(reason)
		fields := map[string]any{
			"cv_id":         req.CVID,
			"authenticated": req.Authenticated,
			"reason":        reason,
			"error":         err,
		}
		if reason == metrics.ReasonNotFound {
			telemetry.Warn("export.failed", fields)
		} else {
			telemetry.Error("export.failed", fields)
		}
		return nil, err
	}

	metrics.IncExportCompleted()
	telemetry.Info("export.completed", map[string]any{
		"cv_id":         req.CVID,
		"authenticated": req.Authenticated,
		"user_id":       req.UserID,
		"bytes":         artifact.Size,
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	return artifact, nil
}

func (s *Service) export(ctx context.Context, req Request) (*Artifact, error) {
	doc, err := s.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Tracer().Start(ctx, "export.stage")
	defer span.End()

	key, size, _, err := s.Store.Save(ctx, req.CVID, doc.FileName, bytes.NewReader(doc.Content))
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("stage document: %w", err)
	}
	release := func() error {
		// The request context may already be cancelled.
		return s.Store.Delete(context.WithoutCancel(ctx), key)
	}

	body, err := s.Store.Open(ctx, key)
	if err != nil {
		if delErr := release(); delErr != nil {
			telemetry.Warn("export.cleanup_failed", map[string]any{"cv_id": req.CVID, "error": delErr})
		}
		failSpan(span, err)
		return nil, fmt.Errorf("open staged document: %w", err)
	}

	return &Artifact{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Size:        size,
		Body:        body,
		release:     release,
	}, nil
}

// logReport logs recovered resolution problems. Only ids are logged.
func (s *Service) logReport(cvID string, report skills.Report) {
	metrics.AddStaleSkills(len(report.Stale))
	metrics.AddMalformedRatings(len(report.Malformed))
	for _, id := range report.Stale {
		telemetry.Debug("export.stale_skill", map[string]any{"cv_id": cvID, "skill_id": id})
	}
	for _, id := range report.Malformed {
		telemetry.Warn("export.malformed_rating", map[string]any{"cv_id": cvID, "skill_id": id})
	}
}

func classifyRenderError(err error) error {
	switch {
	case errors.Is(err, render.ErrTemplateUnavailable):
		return fmt.Errorf("%w: %v", ErrTemplateUnavailable, err)
	case errors.Is(err, render.ErrRenderFailure):
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	default:
		return fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return metrics.ReasonNotFound
	case errors.Is(err, ErrTemplateUnavailable):
		return metrics.ReasonTemplateUnavailable
	case errors.Is(err, ErrRenderFailed):
		return metrics.ReasonRenderFailed
	default:
		return metrics.ReasonInternal
	}
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
