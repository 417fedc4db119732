// Package timeline derives an applicant's dashboard status and per-phase
// progress markers from their record and the configured branch windows.
//
// Everything here is a pure function of its inputs; missing configuration
// degrades to a default value and never fails.
package timeline

import "time"

// Window is a named open/close interval. A time t is inside the window
// when open <= t < close.
type Window struct {
	Name  string    `json:"name"`
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
}

// Contains reports whether t lies in [Open, Close).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Open) && t.Before(w.Close)
}

// State classifies t against this single window.
func (w Window) State(t time.Time) WindowState {
	return Bounds{Open: w.Open, Close: w.Close, Defined: true}.State(t)
}

// Bounds is the aggregate of a list of windows. Defined is false when the
// list was empty.
type Bounds struct {
	Open    time.Time
	Close   time.Time
	Defined bool
}

// WindowState places "now" relative to a window. For defined bounds exactly
// one field is true.
type WindowState struct {
	IsOpenNow    bool `json:"isOpenNow"`
	IsBeforeOpen bool `json:"isBeforeOpen"`
	IsAfterClose bool `json:"isAfterClose"`
}

// Aggregate returns the earliest open and the latest close among ws.
func Aggregate(ws []Window) Bounds {
	if len(ws) == 0 {
		return Bounds{}
	}
	b := Bounds{Open: ws[0].Open, Close: ws[0].Close, Defined: true}
	for _, w := range ws[1:] {
		if w.Open.Before(b.Open) {
			b.Open = w.Open
		}
		if w.Close.After(b.Close) {
			b.Close = w.Close
		}
	}
	return b
}

// State classifies now. Undefined bounds read as "not yet open".
func (b Bounds) State(now time.Time) WindowState {
	if !b.Defined {
		return WindowState{IsBeforeOpen: true}
	}
	switch {
	case now.Before(b.Open):
		return WindowState{IsBeforeOpen: true}
	case now.Before(b.Close):
		return WindowState{IsOpenNow: true}
	default:
		return WindowState{IsAfterClose: true}
	}
}
