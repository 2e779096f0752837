// Package listing narrows the quest list by search term and category.
package listing

import (
	"strings"
	"sync"

	"github.com/dmitrijs2005/questboard/internal/models"
)

// Filter keeps quests whose title or content contains search (case
// insensitive) and whose category matches. models.CategoryAll matches any
// category. Input order is preserved and quests is not modified.
func Filter(quests []models.Quest, search, category string) []models.Quest {
	needle := strings.ToLower(search)
	out := make([]models.Quest, 0, len(quests))
	for _, q := range quests {
		if !matchesText(q, needle) {
			continue
		}
		if category != models.CategoryAll && q.Category != category {
			continue
		}
		out = append(out, q)
	}
	return out
}

func matchesText(q models.Quest, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(q.Title), needle) ||
		strings.Contains(strings.ToLower(q.Content), needle)
}

// Listing keeps the visible quest list in step with its three inputs.
type Listing struct {
	mu       sync.Mutex
	all      []models.Quest
	search   string
	category string
	visible  []models.Quest
	onChange func([]models.Quest)
}

// New returns an empty Listing showing every category. onChange, if not
// nil, receives the recomputed visible list after each change.
func New(onChange func([]models.Quest)) *Listing {
	return &Listing{category: models.CategoryAll, visible: []models.Quest{}, onChange: onChange}
}

func (l *Listing) SetQuests(quests []models.Quest) {
	l.update(func() { l.all = quests })
}

func (l *Listing) SetSearch(search string) {
	l.update(func() { l.search = search })
}

// SetCategory selects a category; an empty value means models.CategoryAll.
func (l *Listing) SetCategory(category string) {
	if category == "" {
		category = models.CategoryAll
	}
	l.update(func() { l.category = category })
}

// Visible returns a copy of the current visible list.
func (l *Listing) Visible() []models.Quest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Quest(nil), l.visible...)
}

func (l *Listing) update(apply func()) {
	l.mu.Lock()
	apply()
	l.visible = Filter(l.all, l.search, l.category)
	visible := append([]models.Quest(nil), l.visible...)
	cb := l.onChange
	l.mu.Unlock()

	if cb != nil {
		cb(visible)
	}
}
