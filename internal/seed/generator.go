package seed

import (
	"fmt"
	"math/rand/v2"
	"strconv"
)

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Linus", "Barbara", "Ken", "Margaret", "Dennis", "Radia", "Guido"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Torvalds", "Liskov", "Thompson", "Hamilton", "Ritchie", "Perlman", "Rossum"}
)

// applicant is one generated registrant.
type applicant struct {
	index int
	name  string
	email string
	rng   *rand.Rand
}

// newApplicant derives applicant i deterministically from seed.
func newApplicant(seed uint64, i int, domain string) applicant {
	rng := rand.New(rand.NewPCG(seed, uint64(i)))
	first := firstNames[rng.IntN(len(firstNames))]
	last := lastNames[rng.IntN(len(lastNames))]
	return applicant{
		index: i,
		name:  first + " " + last,
		email: fmt.Sprintf("applicant%05d@%s", i, domain),
		rng:   rng,
	}
}

// answers fills every question of f. Optional questions are skipped one
// time in five.
func (a applicant) answers(f formDoc) map[string]any {
	out := make(map[string]any, len(f.Fields))
	for _, q := range f.Fields {
		if !q.Required && a.rng.IntN(5) == 0 {
			continue
		}
		if v, ok := a.answer(q); ok {
			out[q.Name] = v
		}
	}
	return out
}

func (a applicant) answer(q field) (any, bool) {
	switch q.Type {
	case "checkbox":
		if len(q.Options) == 0 {
			return nil, false
		}
		n := 1 + a.rng.IntN(min(maxCheckboxAnswers, len(q.Options)))
		picked := make([]string, 0, n)
		for _, i := range a.rng.Perm(len(q.Options))[:n] {
			picked = append(picked, q.Options[i])
		}
		if q.HasOther && a.rng.IntN(100) < otherAnswerPercent {
			picked = append(picked, "something else")
		}
		return picked, true
	case "radio", "select":
		if q.HasOther && a.rng.IntN(100) < otherAnswerPercent {
			return "something else", true
		}
		if len(q.Options) == 0 {
			return nil, false
		}
		return q.Options[a.rng.IntN(len(q.Options))], true
	case "email":
		return a.email, true
	case "number":
		return strconv.Itoa(1 + a.rng.IntN(99)), true
	case "tel":
		return fmt.Sprintf("555-%04d", a.rng.IntN(10000)), true
	case "date":
		return fmt.Sprintf("2026-%02d-%02d", 1+a.rng.IntN(12), 1+a.rng.IntN(28)), true
	case "file":
		return fmt.Sprintf("resume-%05d.pdf", a.index), true
	default:
		return fmt.Sprintf("%s answer from %s", q.Name, a.name), true
	}
}
