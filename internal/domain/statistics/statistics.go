// Package statistics aggregates per-question response counts across
// submitted applications for the admin dashboard.
package statistics

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/sanitize"
)

// Response is one answer bucket.
type Response struct {
	Response string `json:"response"`
	Count    int    `json:"count"`
}

// Entry counts the answers to one question within one branch.
type Entry struct {
	QuestionName  string     `json:"questionName"`
	QuestionLabel string     `json:"questionLabel"`
	Branch        string     `json:"branch"`
	Responses     []Response `json:"responses"`
}

// Total returns the sum of all response counts.
func (e Entry) Total() int {
	n := 0
	for _, r := range e.Responses {
		n += r.Count
	}
	return n
}

// Result is an aggregation run with its bookkeeping.
type Result struct {
	Entries      []Entry
	Users        int
	SkippedUsers int
}

type entryKey struct {
	branch   string
	question string
}

type accumulator struct {
	entry *Entry
	index map[string]int
}

// Aggregate counts the choice answers of applied users. Users whose
// application branch is missing from branches are skipped, as are answers
// to questions no longer defined on the branch. The result is sorted by
// order.
func Aggregate(users []*model.User, branches map[string]*branch.ApplicationBranch, order Order) []Entry {
	return Run(users, branches, order).Entries
}

// Run is Aggregate plus the number of users considered and skipped.
func Run(users []*model.User, branches map[string]*branch.ApplicationBranch, order Order) Result {
	var res Result
	byKey := make(map[entryKey]*accumulator)
	var keys []entryKey

	for _, u := range users {
		if u == nil || !u.Applied {
			continue
		}
		applied, ok := branches[u.ApplicationBranch]
		if !ok {
			res.SkippedUsers++
			continue
		}
		res.Users++
		for _, item := range u.ApplicationData {
			if item.Value.IsNull() {
				continue
			}
			q, ok := applied.Question(item.Name)
			if !ok || !q.IsChoice() {
				continue
			}
			key := entryKey{branch: applied.Name, question: q.Name}
			acc, ok := byKey[key]
			if !ok {
				acc = &accumulator{
					entry: &Entry{
						QuestionName:  q.Name,
						QuestionLabel: sanitize.StripTags(q.Label),
						Branch:        applied.Name,
						Responses:     []Response{},
					},
					index: make(map[string]int),
				}
				byKey[key] = acc
				keys = append(keys, key)
			}
			for _, raw := range item.Value.Values() {
				answer := sanitize.StripTags(raw)
				if i, seen := acc.index[answer]; seen {
					acc.entry.Responses[i].Count++
					continue
				}
				acc.index[answer] = len(acc.entry.Responses)
				acc.entry.Responses = append(acc.entry.Responses, Response{Response: answer, Count: 1})
			}
		}
	}

	res.Entries = make([]Entry, 0, len(keys))
	for _, k := range keys {
		e := *byKey[k].entry
		order.sortResponses(e.Branch, e.QuestionName, e.Responses)
		res.Entries = append(res.Entries, e)
	}
	slices.SortFunc(res.Entries, order.compareEntries)
	return res
}

// Order is the canonical ordering of branches, their questions and the
// options of choice questions.
type Order struct {
	branches  map[string]int
	questions map[string]map[string]branch.Question
	positions map[string]map[string]int
}

// NewOrder builds an Order from branches given in canonical order.
func NewOrder(branches ...branch.Branch) Order {
	o := Order{
		branches:  make(map[string]int, len(branches)),
		questions: make(map[string]map[string]branch.Question, len(branches)),
		positions: make(map[string]map[string]int, len(branches)),
	}
	for i, b := range branches {
		base := b.Common()
		if _, dup := o.branches[base.Name]; dup {
			continue
		}
		o.branches[base.Name] = i
		qs := make(map[string]branch.Question, len(base.Questions))
		pos := make(map[string]int, len(base.Questions))
		for j, q := range base.Questions {
			qs[q.Name] = q
			pos[q.Name] = j
		}
		o.questions[base.Name] = qs
		o.positions[base.Name] = pos
	}
	return o
}

// unknown sorts after every configured position.
const unknown = math.MaxInt

func (o Order) branchIndex(name string) int {
	if i, ok := o.branches[name]; ok {
		return i
	}
	return unknown
}

func (o Order) questionIndex(branchName, question string) int {
	if i, ok := o.positions[branchName][question]; ok {
		return i
	}
	return unknown
}

func (o Order) compareEntries(a, b Entry) int {
	if c := cmp.Compare(o.branchIndex(a.Branch), o.branchIndex(b.Branch)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Branch, b.Branch); c != 0 {
		return c
	}
	if c := cmp.Compare(o.questionIndex(a.Branch, a.QuestionName), o.questionIndex(b.Branch, b.QuestionName)); c != 0 {
		return c
	}
	return strings.Compare(a.QuestionName, b.QuestionName)
}

// sortResponses orders by canonical option position; answers that match no
// option go last, alphabetically ignoring case.
func (o Order) sortResponses(branchName, question string, rs []Response) {
	q := o.questions[branchName][question]
	index := func(s string) int {
		if i := q.OptionIndex(s); i >= 0 {
			return i
		}
		return unknown
	}
	slices.SortFunc(rs, func(a, b Response) int {
		ia, ib := index(a.Response), index(b.Response)
		if ia != unknown || ib != unknown {
			return cmp.Compare(ia, ib)
		}
		if c := strings.Compare(strings.ToLower(a.Response), strings.ToLower(b.Response)); c != 0 {
			return c
		}
		return strings.Compare(a.Response, b.Response)
	})
}
