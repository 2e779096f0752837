// Package models defines the Quest Board records as they are stored in the
// record store and exchanged with clients, together with the input checks
// both the CLI and the server apply before anything is written.
package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/questboard/internal/common"
)

// CategoryAll is the selector that matches every quest category.
const CategoryAll = "ALL"

// QuestStatusPending is the status every quest is created with.
const QuestStatusPending = "pending"

// DateLayout is the deadline and birthday format.
const DateLayout = "2006-01-02"

// Categories is the fixed set a quest category must belong to.
var Categories = []string{
	"Personal",
	"Event Assistant",
	"Printing",
	"Pick-up & Delivery",
	"Lost & Found",
	"Tutoring",
}

// IsCategory reports whether c is one of Categories. CategoryAll is not.
func IsCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Quest is a posted, paid task. Stored at quests/{ID}.
type Quest struct {
	ID              string `json:"questId"`
	Title           string `json:"title,omitempty"`
	Content         string `json:"content"`
	Category        string `json:"category"`
	SkillRequired   string `json:"skillRequired"`
	Amount          string `json:"amount"`
	Deadline        string `json:"deadline"`
	ReferenceNumber string `json:"referenceNumber"`
	UserID          string `json:"userId"`
	DisplayName     string `json:"displayName"`
	Status          string `json:"status"`
	CreatedAt       string `json:"createdAt"`
}

// Heading is what lists show for a quest: the title, or the content when
// the quest was posted without one.
func (q Quest) Heading() string {
	if q.Title != "" {
		return q.Title
	}
	return q.Content
}

// QuestDraft is the posting form.
type QuestDraft struct {
	Title           string `json:"title,omitempty"`
	Content         string `json:"content"`
	SkillRequired   string `json:"skillRequired"`
	Deadline        string `json:"deadline"`
	Amount          string `json:"amount"`
	Category        string `json:"category"`
	ReferenceNumber string `json:"referenceNumber"`
}

var (
	digitsRe          = regexp.MustCompile(`^\d+$`)
	referenceNumberRe = regexp.MustCompile(`^\d{13}$`)
)

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (d QuestDraft) Trimmed() QuestDraft {
	return QuestDraft{
		Title:           strings.TrimSpace(d.Title),
		Content:         strings.TrimSpace(d.Content),
		SkillRequired:   strings.TrimSpace(d.SkillRequired),
		Deadline:        strings.TrimSpace(d.Deadline),
		Amount:          strings.TrimSpace(d.Amount),
		Category:        strings.TrimSpace(d.Category),
		ReferenceNumber: strings.TrimSpace(d.ReferenceNumber),
	}
}

// Validate checks a trimmed draft. now decides what "today" is for the
// deadline. Every failure wraps common.ErrValidation.
func (d QuestDraft) Validate(now time.Time) error {
	if d.Content == "" || d.SkillRequired == "" || d.Deadline == "" ||
		d.Amount == "" || d.Category == "" || d.ReferenceNumber == "" {
		return fmt.Errorf("%w: please fill in all fields", common.ErrValidation)
	}

	var errs []error

	if err := ValidateAmount(d.Amount); err != nil {
		errs = append(errs, err)
	}

	if _, err := time.Parse(DateLayout, d.Deadline); err != nil {
		errs = append(errs, fmt.Errorf("%w: deadline must be a date in YYYY-MM-DD format", common.ErrValidation))
	} else if d.Deadline < now.Format(DateLayout) {
		errs = append(errs, fmt.Errorf("%w: the deadline must be today or in the future", common.ErrValidation))
	}

	if !IsCategory(d.Category) {
		errs = append(errs, fmt.Errorf("%w: unknown category %q", common.ErrValidation, d.Category))
	}

	if !referenceNumberRe.MatchString(d.ReferenceNumber) {
		errs = append(errs, fmt.Errorf("%w: reference number must be exactly 13 digits", common.ErrValidation))
	}

	return errors.Join(errs...)
}

// ValidateAmount accepts whole numbers of at least common.MinQuestAmount.
func ValidateAmount(amount string) error {
	if !digitsRe.MatchString(amount) {
		return fmt.Errorf("%w: amount must contain digits only", common.ErrValidation)
	}
	n, err := strconv.Atoi(amount)
	if err != nil || n < common.MinQuestAmount {
		return fmt.Errorf("%w: the amount must be at least %d", common.ErrValidation, common.MinQuestAmount)
	}
	return nil
}

// QuestEdit is the owner's edit form; both fields are required.
type QuestEdit struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (e QuestEdit) Validate() error {
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("%w: please fill out both the title and content", common.ErrValidation)
	}
	return nil
}
