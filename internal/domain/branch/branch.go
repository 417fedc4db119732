// Package branch models the configured question sets ("branches") an
// applicant moves through, and the open/close schedules attached to them.
//
// A Branch is one of three variants: *ApplicationBranch, *ConfirmationBranch
// or *NoopBranch. Only the application and confirmation variants carry a
// schedule; each variant carries only the flags that apply to it.
package branch

import (
	"slices"
	"strings"
	"time"
)

// Kind names a branch variant.
type Kind string

// Branch kinds as they appear in the catalog.
const (
	KindApplication  Kind = "Application"
	KindConfirmation Kind = "Confirmation"
	KindNoop         Kind = "Noop"
)

// ParseKind accepts any casing of a known kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{KindApplication, KindConfirmation, KindNoop} {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, true
		}
	}
	return "", false
}

// Question types understood by the forms and the statistics aggregator.
const (
	TypeText     = "text"
	TypeTextArea = "textarea"
	TypeEmail    = "email"
	TypeNumber   = "number"
	TypeDate     = "date"
	TypeTel      = "tel"
	TypeCheckbox = "checkbox"
	TypeRadio    = "radio"
	TypeSelect   = "select"
	TypeFile     = "file"
)

// IsChoiceType reports whether answers of type t are picked from a list of options.
func IsChoiceType(t string) bool {
	return t == TypeCheckbox || t == TypeRadio || t == TypeSelect
}

// Question is one configured form question. Options are in canonical order.
type Question struct {
	Name     string   `yaml:"name" json:"name"`
	Label    string   `yaml:"label" json:"label"`
	Type     string   `yaml:"type" json:"type"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
	HasOther bool     `yaml:"hasOther,omitempty" json:"hasOther,omitempty"`
	Required bool     `yaml:"required,omitempty" json:"required,omitempty"`
}

// IsChoice reports whether the question is a checkbox, radio or select question.
func (q Question) IsChoice() bool { return IsChoiceType(q.Type) }

// IsMulti reports whether the question accepts more than one answer.
func (q Question) IsMulti() bool { return q.Type == TypeCheckbox }

// OptionIndex returns the canonical position of option, or -1.
func (q Question) OptionIndex(option string) int {
	return slices.Index(q.Options, option)
}

// TextBlock is markdown shown above the question named For, or after the
// last question when For is "end". Type is the wrapping element (h1-h6, p).
type TextBlock struct {
	For     string `yaml:"for" json:"for"`
	Type    string `yaml:"type" json:"type"`
	Content string `yaml:"content" json:"content"`
}

// EndBlock is the TextBlock.For value rendered after the last question.
const EndBlock = "end"

// Base holds what every variant shares.
type Base struct {
	Name       string
	Questions  []Question
	TextBlocks []TextBlock
}

// Question looks up a question by exact name.
func (b Base) Question(name string) (Question, bool) {
	for _, q := range b.Questions {
		if q.Name == name {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionIndex returns the canonical position of the named question, or -1.
func (b Base) QuestionIndex(name string) int {
	return slices.IndexFunc(b.Questions, func(q Question) bool { return q.Name == name })
}

// BlocksFor returns the text blocks attached to the named question, in order.
func (b Base) BlocksFor(name string) []TextBlock {
	var out []TextBlock
	for _, tb := range b.TextBlocks {
		if tb.For == name {
			out = append(out, tb)
		}
	}
	return out
}

// Branch is the sealed variant interface.
type Branch interface {
	Kind() Kind
	Common() Base
	sealed()
}

// ApplicationBranch is a question set applicants fill in to apply.
type ApplicationBranch struct {
	Base
	Open           time.Time
	Close          time.Time
	AllowAnonymous bool
	AutoAccept     bool
}

// ConfirmationBranch is assigned by administrators after a decision.
type ConfirmationBranch struct {
	Base
	Open                time.Time
	Close               time.Time
	UsesRollingDeadline bool
	AutoConfirm         bool
	IsAcceptance        bool
}

// NoopBranch holds questions that are never offered to applicants.
type NoopBranch struct {
	Base
}

func (*ApplicationBranch) Kind() Kind  { return KindApplication }
func (*ConfirmationBranch) Kind() Kind { return KindConfirmation }
func (*NoopBranch) Kind() Kind         { return KindNoop }

func (b *ApplicationBranch) Common() Base  { return b.Base }
func (b *ConfirmationBranch) Common() Base { return b.Base }
func (b *NoopBranch) Common() Base         { return b.Base }

func (*ApplicationBranch) sealed()  {}
func (*ConfirmationBranch) sealed() {}
func (*NoopBranch) sealed()         {}

// IsOpen reports whether t lies in [Open, Close).
func (b *ApplicationBranch) IsOpen(t time.Time) bool { return within(b.Open, b.Close, t) }

// IsOpen reports whether t lies in [Open, Close).
func (b *ConfirmationBranch) IsOpen(t time.Time) bool { return within(b.Open, b.Close, t) }

func within(open, closeAt, t time.Time) bool {
	return !t.Before(open) && t.Before(closeAt)
}

// Scheduled reports whether b carries a stored schedule. Join leaves
// unscheduled branches with a zero window.
func (b *ApplicationBranch) Scheduled() bool { return scheduled(b.Open, b.Close) }

// Scheduled reports whether b carries a stored schedule.
func (b *ConfirmationBranch) Scheduled() bool { return scheduled(b.Open, b.Close) }

func scheduled(open, closeAt time.Time) bool {
	return !open.IsZero() || !closeAt.IsZero()
}

// Name returns the branch's configured name.
func Name(b Branch) string { return b.Common().Name }

// Schedule is the administrator-edited part of a branch: its window and
// flags. Flags that do not apply to a branch's kind are ignored.
type Schedule struct {
	Open                time.Time `json:"open"`
	Close               time.Time `json:"close"`
	AllowAnonymous      bool      `json:"allowAnonymous"`
	AutoAccept          bool      `json:"autoAccept"`
	UsesRollingDeadline bool      `json:"usesRollingDeadline"`
	AutoConfirm         bool      `json:"autoConfirm"`
	IsAcceptance        bool      `json:"isAcceptance"`
}

// ScheduleOf extracts the schedule carried by b. Noop branches have none.
func ScheduleOf(b Branch) Schedule {
	switch v := b.(type) {
	case *ApplicationBranch:
		return Schedule{Open: v.Open, Close: v.Close, AllowAnonymous: v.AllowAnonymous, AutoAccept: v.AutoAccept}
	case *ConfirmationBranch:
		return Schedule{
			Open: v.Open, Close: v.Close,
			UsesRollingDeadline: v.UsesRollingDeadline, AutoConfirm: v.AutoConfirm, IsAcceptance: v.IsAcceptance,
		}
	default:
		return Schedule{}
	}
}
