package cvs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvio-backend/cv/model"
	"cvio-backend/internal/shared/schemas"
)

const suggestionLimit = 10

// Service implements CV CRUD and is the CV data accessor of the export.
type Service struct {
	Repo  Repo
	now   func() time.Time
	newID func() string
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{
		Repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create validates and stores a new CV document and returns its id.
func (s *Service) Create(ctx context.Context, raw []byte) (string, error) {
	id := s.newID()
	doc, err := normalizeDocument(id, raw)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	cv := CV{ID: id, Document: doc, CreatedAt: now, UpdatedAt: now}
	if err := s.Repo.Create(ctx, cv); err != nil {
		return "", fmt.Errorf("create cv: %w", err)
	}
	return id, nil
}

// Get returns the stored JSON document.
func (s *Service) Get(ctx context.Context, id string) (json.RawMessage, error) {
	cv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return cv.Document, nil
}

// Update overwrites the CV document.
func (s *Service) Update(ctx context.Context, id string, raw []byte) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	doc, err := normalizeDocument(id, raw)
	if err != nil {
		return err
	}
	cv := CV{ID: id, Document: doc, UpdatedAt: s.now().UTC()}
	if err := s.Repo.Update(ctx, cv); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update cv: %w", err)
	}
	return nil
}

// Delete removes a CV.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete cv: %w", err)
	}
	return nil
}

// List returns the matching CVs as field maps restricted to fields. The id
// is always included; no fields means the full document.
func (s *Service) List(ctx context.Context, fields []string, searchTerm string) ([]map[string]any, error) {
	cvs, err := s.Repo.List(ctx, searchTerm)
	if err != nil {
		return nil, fmt.Errorf("list cvs: %w", err)
	}
	wanted := map[string]bool{}
	for _, f := range fields {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				wanted[part] = true
			}
		}
	}

	out := make([]map[string]any, 0, len(cvs))
	for _, cv := range cvs {
		all, err := cv.Fields()
		if err != nil {
			return nil, fmt.Errorf("decode cv %s: %w", cv.ID, err)
		}
		if len(wanted) == 0 {
			out = append(out, all)
			continue
		}
		projected := map[string]any{"id": cv.ID}
		for key, value := range all {
			if wanted[key] {
				projected[key] = value
			}
		}
		out = append(out, projected)
	}
	return out, nil
}

// Suggestions returns field values starting with term.
func (s *Service) Suggestions(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	out, err := s.Repo.Suggestions(ctx, term, suggestionLimit)
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	return out, nil
}

// GetFieldsByID returns the CV's field mapping, skill ratings included.
func (s *Service) GetFieldsByID(ctx context.Context, id string) (map[string]any, error) {
	cv, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	fields, err := cv.Fields()
	if err != nil {
		return nil, fmt.Errorf("decode cv %s: %w", id, err)
	}
	return fields, nil
}

// Profile returns the typed view of a CV with ratings in document order.
func (s *Service) Profile(ctx context.Context, id string) (model.CVProfile, error) {
	cv, err := s.get(ctx, id)
	if err != nil {
		return model.CVProfile{}, err
	}
	profile, err := model.ParseProfile(cv.ID, cv.Document)
	if err != nil {
		return model.CVProfile{}, fmt.Errorf("decode cv %s: %w", id, err)
	}
	return profile, nil
}

func (s *Service) get(ctx context.Context, id string) (CV, error) {
	if strings.TrimSpace(id) == "" {
		return CV{}, ErrNotFound
	}
	cv, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CV{}, ErrNotFound
		}
		return CV{}, fmt.Errorf("get cv: %w", err)
	}
	return cv, nil
}

// normalizeDocument validates raw against the CV schema, sets its id and
// drops the read-only ref. Values are kept byte for byte so the order of the
// skill ratings survives.
func normalizeDocument(id string, raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: body is required", ErrInvalidInput)
	}
	if err := schemas.ValidateCV(raw); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &InputError{Validation: validationErr}
		}
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	delete(doc, "ref")
	idJSON, _ := json.Marshal(id)
	doc["id"] = idJSON

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode cv: %w", err)
	}
	return out, nil
}

// InputError carries schema violations. It matches ErrInvalidInput.
type InputError struct {
	Validation *schemas.ValidationError
}

func (e *InputError) Error() string {
	return ErrInvalidInput.Error() + ": " + e.Validation.Error()
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
