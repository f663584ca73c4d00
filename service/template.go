package service

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/contractmind/backend/model"
	"github.com/contractmind/backend/store"
)

// TableTemplates is the record-store table for contract templates.
const TableTemplates = "templates"

// TemplateService manages reusable contract templates and LLM-backed
// template drafting. Generated drafts are memoized in a bounded LRU so
// repeated requests for the same category/description pair don't burn
// model tokens.
type TemplateService struct {
	store    store.Store
	llm      ChatCompleter
	genCache *lru.Cache[string, string]
}

func NewTemplateService(st store.Store, llm ChatCompleter, cacheSize int) (*TemplateService, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create template cache: %w", err)
	}
	return &TemplateService{store: st, llm: llm, genCache: cache}, nil
}

// List returns templates, newest first, optionally filtered by category.
func (s *TemplateService) List(ctx context.Context, category string, limit, offset int) ([]model.Template, error) {
	filter := store.Filter{}
	if category != "" {
		filter["category"] = category
	}
	opts := &store.QueryOptions{
		Limit:      limit,
		Offset:     offset,
		OrderBy:    "created_at",
		Descending: true,
	}

	var templates []model.Template
	if err := s.store.Select(ctx, TableTemplates, filter, opts, &templates); err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (s *TemplateService) GetByID(ctx context.Context, id string) (*model.Template, error) {
	var templates []model.Template
	if err := s.store.Select(ctx, TableTemplates, store.Filter{"id": id}, &store.QueryOptions{Limit: 1}, &templates); err != nil {
		return nil, fmt.Errorf("failed to look up template: %w", err)
	}
	if len(templates) == 0 {
		return nil, ErrNotFound
	}
	return &templates[0], nil
}

func (s *TemplateService) Create(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	var saved model.Template
	if err := s.store.Insert(ctx, TableTemplates, tpl, &saved); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return &saved, nil
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, TableTemplates, id)
}

// Generate drafts template content for a category/description pair,
// returning cached content when the same pair was drafted recently.
func (s *TemplateService) Generate(ctx context.Context, category, description string) (string, bool, error) {
	key := category + "\x00" + description
	if content, ok := s.genCache.Get(key); ok {
		return content, true, nil
	}

	result, err := s.llm.SendMessage(ctx, TemplateGenerationPrompt(category, description), nil, nil)
	if err != nil {
		return "", false, err
	}

	s.genCache.Add(key, result.Content)
	return result.Content, false, nil
}
