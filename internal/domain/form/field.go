// Package form turns branch question definitions into per-request form
// view-models and validates submitted answers against them.
//
// Definitions are never mutated; each request builds fresh Field values.
package form

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
)

// OtherOption is the label of the synthetic option appended to questions
// that accept free-text answers.
const OtherOption = "Other"

// Option is one choice as rendered.
type Option struct {
	Value    string
	Selected bool
	Other    bool
}

// Field is the view-model of one question with the user's saved answer.
type Field struct {
	Question      branch.Question
	Multi         bool
	Options       []Option
	OtherSelected bool
	OtherValue    string
	HasResponse   bool
	Value         string
	TextContent   template.HTML
}

// Form is a whole branch form.
type Form struct {
	Branch  string
	Fields  []Field
	EndText template.HTML
}

// Renderer converts text-block markdown to HTML. Raw HTML in the source is
// dropped.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a Renderer with goldmark's safe defaults.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// Inline renders markdown and unwraps a lone paragraph so the output can
// sit inside a heading element.
func (r *Renderer) Inline(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return out, nil
}

var blockTypes = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "p": true, "div": true}

func (r *Renderer) blocks(tbs []branch.TextBlock, attrs string) (template.HTML, error) {
	parts := make([]string, 0, len(tbs))
	for _, tb := range tbs {
		tag := strings.ToLower(tb.Type)
		if !blockTypes[tag] {
			tag = "p"
		}
		body, err := r.Inline(tb.Content)
		if err != nil {
			return "", err
		}
		parts = append(parts, "<"+tag+attrs+">"+body+"</"+tag+">")
	}
	return template.HTML(strings.Join(parts, "\n")), nil //nolint:gosec // goldmark output without raw HTML
}

// Build assembles the form for def, prefilled from saved.
func Build(def branch.Base, saved []model.FormItem, r *Renderer) (Form, error) {
	f := Form{Branch: def.Name, Fields: make([]Field, 0, len(def.Questions))}
	for _, q := range def.Questions {
		item, found := model.FindItem(saved, q.Name)
		field := NewField(q, item, found)
		text, err := r.blocks(def.BlocksFor(q.Name), "")
		if err != nil {
			return Form{}, err
		}
		field.TextContent = text
		f.Fields = append(f.Fields, field)
	}
	end, err := r.blocks(def.BlocksFor(branch.EndBlock), ` style="font-size: 90%; text-align: center;"`)
	if err != nil {
		return Form{}, err
	}
	f.EndText = end
	return f, nil
}

// NewField builds the view-model for q. found reports whether saved holds a
// recorded answer.
func NewField(q branch.Question, saved model.FormItem, found bool) Field {
	field := Field{Question: q, Multi: q.IsChoice()}
	if found && !saved.Value.IsNull() {
		field.Value = saved.Value.String()
	}
	if !field.Multi {
		return field
	}

	field.Options = make([]Option, 0, len(q.Options)+1)
	for _, opt := range q.Options {
		field.Options = append(field.Options, Option{Value: opt, Selected: found && saved.Value.Contains(opt)})
	}
	if q.HasOther {
		other := Option{Value: OtherOption, Other: true}
		if found {
			for _, v := range saved.Value.Values() {
				if q.OptionIndex(v) == -1 {
					other.Selected = true
					field.OtherSelected = true
					field.OtherValue = v
				}
			}
		}
		field.Options = append(field.Options, other)
	}
	field.HasResponse = found && !saved.Value.IsEmpty()
	return field
}
