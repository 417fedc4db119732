package form

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
)

// OtherSuffix names the free-text input paired with an "Other" option.
const OtherSuffix = "-other"

// FromValues decodes an HTML form post for def. Selecting the Other option
// substitutes the text typed into the "<name>-other" input.
func FromValues(def branch.Base, values url.Values) []model.FormItem {
	items := make([]model.FormItem, 0, len(def.Questions))
	for _, q := range def.Questions {
		raw, present := values[q.Name]
		if !present {
			continue
		}
		var vals []string
		for _, v := range raw {
			if q.HasOther && v == OtherOption {
				v = strings.TrimSpace(values.Get(q.Name + OtherSuffix))
			}
			if v != "" {
				vals = append(vals, v)
			}
		}
		item := model.FormItem{Name: q.Name, Type: q.Type}
		switch {
		case q.IsMulti():
			item.Value = model.Multi(vals...)
		case len(vals) == 0:
			item.Value = model.NullAnswer()
		default:
			item.Value = model.Single(vals[0])
		}
		items = append(items, item)
	}
	return items
}

// Validate checks items against def and returns one item per question in
// canonical order, typed from the definition. Unanswered optional questions
// are recorded as null.
func Validate(def branch.Base, items []model.FormItem) ([]model.FormItem, error) {
	byName := make(map[string]model.FormItem, len(items))
	for _, it := range items {
		if _, dup := byName[it.Name]; dup {
			return nil, fmt.Errorf("%w: %q answered twice", ErrInvalidAnswer, it.Name)
		}
		if _, ok := def.Question(it.Name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownQuestion, it.Name)
		}
		byName[it.Name] = it
	}

	out := make([]model.FormItem, 0, len(def.Questions))
	for _, q := range def.Questions {
		it, ok := byName[q.Name]
		if !ok || it.Value.IsNull() || it.Value.IsEmpty() {
			if q.Required {
				return nil, fmt.Errorf("%w: %q", ErrMissingAnswer, q.Name)
			}
			out = append(out, model.FormItem{Name: q.Name, Type: q.Type, Value: model.NullAnswer()})
			continue
		}
		value, err := normalise(q, it.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, model.FormItem{Name: q.Name, Type: q.Type, Value: value})
	}
	return out, nil
}

func normalise(q branch.Question, a model.Answer) (model.Answer, error) {
	vals := a.Values()
	if !q.IsMulti() && len(vals) > 1 {
		return model.Answer{}, fmt.Errorf("%w: %q accepts one value", ErrInvalidAnswer, q.Name)
	}
	if q.IsChoice() && !q.HasOther {
		for _, v := range vals {
			if q.OptionIndex(v) == -1 {
				return model.Answer{}, fmt.Errorf("%w: %q is not an option of %q", ErrInvalidAnswer, v, q.Name)
			}
		}
	}
	if q.IsMulti() {
		return model.Multi(vals...), nil
	}
	return model.Single(vals[0]), nil
}
