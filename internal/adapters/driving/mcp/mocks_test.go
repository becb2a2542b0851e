package mcp

import (
	"context"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
	"github.com/custodia-labs/convo-analyzer/internal/core/ports/driving"
)

// mockItemService is a mock implementation of driving.ItemService.
type mockItemService struct {
	items   []domain.Item
	related []driving.RelatedItem
	stats   *domain.Stats
	err     error

	lastFilter domain.ItemFilter
}

func (m *mockItemService) Get(_ context.Context, id int64) (*domain.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockItemService) List(_ context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	m.lastFilter = filter
	return m.items, m.err
}

func (m *mockItemService) Related(_ context.Context, _ int64) ([]driving.RelatedItem, error) {
	return m.related, m.err
}

func (m *mockItemService) Stats(_ context.Context) (*domain.Stats, error) {
	if m.stats == nil {
		return &domain.Stats{}, m.err
	}
	return m.stats, m.err
}

// mockAnalyzer is a mock implementation of driving.Analyzer.
type mockAnalyzer struct {
	discovered map[string][]string
	result     *domain.AnalysisResult
	groups     []domain.DuplicateGroup
	err        error

	analyzed []string
}

func (m *mockAnalyzer) AnalyzeFiles(_ context.Context, paths []string) (*domain.AnalysisResult, error) {
	m.analyzed = paths
	return m.result, m.err
}

func (m *mockAnalyzer) AnalyzeGit(_ context.Context, _ string) (*domain.AnalysisResult, error) {
	return m.result, m.err
}

func (m *mockAnalyzer) Discover(root string) ([]string, error) {
	if files, ok := m.discovered[root]; ok {
		return files, nil
	}
	return []string{root}, nil
}

func (m *mockAnalyzer) FindDuplicates(_ context.Context) ([]domain.DuplicateGroup, error) {
	return m.groups, m.err
}

func sampleItems() []domain.Item {
	return []domain.Item{
		{
			ID: 1, Type: domain.ItemTypeBug, Description: "Login times out",
			Priority: domain.PriorityHigh, PriorityScore: 0.9, Confidence: 0.8,
			Status: domain.StatusOpen, SourceFile: "chats/standup.md",
			Entities: domain.Entities{domain.EntityComponents: {"login"}},
		},
		{
			ID: 2, Type: domain.ItemTypeTODO, Description: "Add input validation",
			Priority: domain.PriorityMedium, PriorityScore: 0.5, Confidence: 0.7,
			Status: domain.StatusOpen, SourceFile: "app/auth.py", SourceLine: domain.IntPtr(12),
		},
	}
}
