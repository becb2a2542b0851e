package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/convo-analyzer/internal/core/domain"
)

var (
	filePattern      = regexp.MustCompile(`\b[\w/\-\.]+\.\w+\b`)
	functionPattern  = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\(\)`)
	componentPattern = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9]+(?:Component|Service|Controller|Manager|Handler|Class))\b`)
)

var domainKeywords = []string{
	"login", "auth", "authentication", "password", "security",
	"payment", "checkout", "user", "admin", "api",
	"database", "cache", "session", "token", "email",
	"notification", "validation", "sanitization", "encryption", "logging",
}

// EntityLinker finds shared mentions between items.
type EntityLinker struct {
	cfg domain.EntityLinkingConfig
}

// NewEntityLinker creates a linker.
func NewEntityLinker(cfg domain.EntityLinkingConfig) *EntityLinker {
	if cfg.MinEntitiesShared < 1 {
		cfg.MinEntitiesShared = 1
	}
	return &EntityLinker{cfg: cfg}
}

// Enabled reports whether linking is switched on.
func (l *EntityLinker) Enabled() bool {
	return l.cfg.Enabled
}

// ExtractEntities returns the entities mentioned in text. Empty categories
// are omitted and values are sorted.
func (l *EntityLinker) ExtractEntities(text string) domain.Entities {
	entities := domain.Entities{}

	var files []string
	for _, m := range filePattern.FindAllString(text, -1) {
		if strings.Contains(m, "/") || strings.Count(m, ".") > 1 {
			files = append(files, m)
		}
	}
	addEntities(entities, domain.EntityFiles, files)

	var functions []string
	for _, m := range functionPattern.FindAllStringSubmatch(text, -1) {
		functions = append(functions, m[1])
	}
	addEntities(entities, domain.EntityFunctions, functions)

	var components []string
	for _, m := range componentPattern.FindAllStringSubmatch(text, -1) {
		components = append(components, m[1])
	}
	addEntities(entities, domain.EntityComponents, components)

	lower := strings.ToLower(text)
	var keywords []string
	for _, kw := range domainKeywords {
		if strings.Contains(lower, kw) {
			keywords = append(keywords, kw)
		}
	}
	addEntities(entities, domain.EntityKeywords, keywords)

	return entities
}

// Link is the outcome of linking one item.
type Link struct {
	Entities domain.Entities

	// RelatedTo holds the ids of linked items in ascending order.
	RelatedTo []int64
}

// LinkItems computes entities and related ids for every item with an id.
// Each item's links are computed independently from the same index.
func (l *EntityLinker) LinkItems(items []domain.Item) map[int64]Link {
	if !l.cfg.Enabled {
		return nil
	}

	entities := make(map[int64]domain.Entities, len(items))
	index := make(map[string][]int64)
	for _, item := range items {
		if !item.HasID() {
			continue
		}
		e := l.ExtractEntities(item.Description + " " + item.SourceContext)
		entities[item.ID] = e
		for _, key := range entityKeys(e) {
			index[key] = append(index[key], item.ID)
		}
	}

	links := make(map[int64]Link, len(entities))
	for _, item := range items {
		if !item.HasID() {
			continue
		}
		e := entities[item.ID]
		candidates := make(map[int64]struct{})
		for _, key := range entityKeys(e) {
			for _, id := range index[key] {
				if id != item.ID {
					candidates[id] = struct{}{}
				}
			}
		}

		related := make([]int64, 0, len(candidates))
		for id := range candidates {
			if l.cfg.MinEntitiesShared > 1 && CountSharedEntities(e, entities[id]) < l.cfg.MinEntitiesShared {
				continue
			}
			related = append(related, id)
		}
		sort.Slice(related, func(i, j int) bool { return related[i] < related[j] })
		links[item.ID] = Link{Entities: e, RelatedTo: related}
	}
	return links
}

// CountSharedEntities sums the per-category intersection sizes of a and b.
func CountSharedEntities(a, b domain.Entities) int {
	shared := 0
	for category, values := range a {
		other := make(map[string]struct{}, len(b[category]))
		for _, v := range b[category] {
			other[v] = struct{}{}
		}
		for _, v := range values {
			if _, ok := other[v]; ok {
				shared++
			}
		}
	}
	return shared
}

func entityKeys(e domain.Entities) []string {
	var keys []string
	for _, category := range e.Keys() {
		for _, v := range e[category] {
			keys = append(keys, category+":"+v)
		}
	}
	return keys
}

func addEntities(entities domain.Entities, category string, values []string) {
	if len(values) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	sort.Strings(unique)
	entities[category] = unique
}
