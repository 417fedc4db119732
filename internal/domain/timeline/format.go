package timeline

import (
	"time"

	"github.com/dustin/go-humanize"
)

// NoBranchesConfigured is displayed in place of a date for undefined bounds.
const NoBranchesConfigured = "(No branches configured)"

// closedSuffix marks a branch whose window does not contain now.
const closedSuffix = " (Closed)"

// FormatTime renders t in loc as "Monday, January 2nd 2006 at 3:04 pm MST".
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return t.Format("Monday, January ") + humanize.Ordinal(t.Day()) + t.Format(" 2006 at 3:04 pm MST")
}

// Display formats the aggregated bounds.
func (b Bounds) Display(loc *time.Location) (openAt, closeAt string) {
	if !b.Defined {
		return NoBranchesConfigured, NoBranchesConfigured
	}
	return FormatTime(b.Open, loc), FormatTime(b.Close, loc)
}

// BranchTimes is one row of the per-branch schedule list.
type BranchTimes struct {
	Name  string `json:"name"`
	Open  string `json:"open"`
	Close string `json:"close"`
}

// DisplayWindows formats each window, suffixing the close time with
// " (Closed)" when now is outside it.
func DisplayWindows(ws []Window, now time.Time, loc *time.Location) []BranchTimes {
	out := make([]BranchTimes, 0, len(ws))
	for _, w := range ws {
		bt := BranchTimes{Name: w.Name, Open: FormatTime(w.Open, loc), Close: FormatTime(w.Close, loc)}
		if !w.Contains(now) {
			bt.Close += closedSuffix
		}
		out = append(out, bt)
	}
	return out
}
