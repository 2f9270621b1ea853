package skills

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cvio-backend/cv/model"
)

// CreateSkillRequest is the payload for a new catalog entry.
type CreateSkillRequest struct {
	ID       string `json:"id,omitempty" yaml:"id" validate:"omitempty,max=64,excludesall=/?#"`
	Name     string `json:"name" yaml:"name" validate:"required,max=200"`
	Category string `json:"category" yaml:"category" validate:"required,max=100"`
}

// Service implements the skill catalog and is the catalog accessor of the
// export.
type Service struct {
	Repo     Repo
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{
		Repo:     repo,
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create validates and stores a new skill. Without an id one is assigned.
func (s *Service) Create(ctx context.Context, req CreateSkillRequest) (Skill, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := s.validate.Struct(req); err != nil {
		return Skill{}, &InputError{Fields: validationFields(err)}
	}

	id := req.ID
	if id == "" {
		id = s.newID()
	}

	skill := Skill{ID: id, Name: req.Name, Category: req.Category, CreatedAt: s.now().UTC()}
	if err := s.Repo.Create(ctx, skill); err != nil {
		if errors.Is(err, ErrConflict) {
			return Skill{}, ErrConflict
		}
		return Skill{}, fmt.Errorf("create skill: %w", err)
	}
	return skill, nil
}

// Seed upserts skills keeping their ids. It stops at the first invalid entry.
func (s *Service) Seed(ctx context.Context, reqs []CreateSkillRequest) (int, error) {
	for i, req := range reqs {
		req.ID = strings.TrimSpace(req.ID)
		if req.ID == "" {
			return i, fmt.Errorf("%w: entry %d has no id", ErrInvalidInput, i)
		}
		if err := s.validate.Struct(req); err != nil {
			return i, fmt.Errorf("entry %d: %w", i, &InputError{Fields: validationFields(err)})
		}
		skill := Skill{ID: req.ID, Name: strings.TrimSpace(req.Name), Category: strings.TrimSpace(req.Category), CreatedAt: s.now().UTC()}
		if err := s.Repo.Save(ctx, skill); err != nil {
			return i, fmt.Errorf("save skill %s: %w", req.ID, err)
		}
	}
	return len(reqs), nil
}

// Get returns a skill by id.
func (s *Service) Get(ctx context.Context, id string) (Skill, error) {
	skill, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Skill{}, ErrNotFound
		}
		return Skill{}, fmt.Errorf("get skill: %w", err)
	}
	return skill, nil
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Skill, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return list, nil
}

// GetAllSkills returns the catalog snapshot used to resolve CV ratings.
func (s *Service) GetAllSkills(ctx context.Context) ([]model.SkillCatalogEntry, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.SkillCatalogEntry, 0, len(list))
	for _, skill := range list {
		out = append(out, skill.Entry())
	}
	return out, nil
}

// Categories returns the distinct categories, sorted.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, skill := range list {
		if skill.Category == "" {
			continue
		}
		if _, ok := seen[skill.Category]; ok {
			continue
		}
		seen[skill.Category] = struct{}{}
		out = append(out, skill.Category)
	}
	sort.Strings(out)
	return out, nil
}

// InputError lists failed validation rules per field. It matches
// ErrInvalidInput.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, ", ")
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func validationFields(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[strings.ToLower(fe.Field()[:1])+fe.Field()[1:]] = fe.Tag()
		}
		return out
	}
	out["request"] = "invalid"
	return out
}
