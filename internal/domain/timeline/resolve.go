package timeline

import (
	"time"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
)

// Input is everything the resolver reads. ConfirmationWindows lists the
// user's confirmation records with the per-user deadline first when present.
type Input struct {
	User                *model.User
	ApplicationWindows  []Window
	ConfirmationWindows []Window
	AutoConfirm         bool
	Now                 time.Time
}

// Dashboard is the derived view of one user's progress.
type Dashboard struct {
	Status              string      `json:"status"`
	Rule                Rule        `json:"rule"`
	Timeline            Timeline    `json:"timeline"`
	AutoConfirm         bool        `json:"autoConfirm"`
	Application         Bounds      `json:"-"`
	ApplicationState    WindowState `json:"applicationStatus"`
	Confirmation        Bounds      `json:"-"`
	ConfirmationState   WindowState `json:"confirmationStatus"`
	ApplicationWindows  []Window    `json:"-"`
	ConfirmationWindows []Window    `json:"-"`
}

// Resolve computes the status label, window states and markers for in.User.
func Resolve(in Input) Dashboard {
	app := Aggregate(in.ApplicationWindows)
	conf := Aggregate(in.ConfirmationWindows)

	var first *Window
	if len(in.ConfirmationWindows) > 0 {
		w := in.ConfirmationWindows[0]
		first = &w
	}
	rule := Classify(in.User, first, in.Now)

	d := Dashboard{
		Status:              rule.Label(in.User.ConfirmationBranch),
		Rule:                rule,
		AutoConfirm:         in.AutoConfirm,
		Application:         app,
		ApplicationState:    app.State(in.Now),
		Confirmation:        conf,
		ConfirmationState:   conf.State(in.Now),
		ApplicationWindows:  in.ApplicationWindows,
		ConfirmationWindows: in.ConfirmationWindows,
	}
	d.Timeline = Markers(in.User, d.ApplicationState, d.ConfirmationState)
	return d
}

// BuildInput selects the windows relevant to u from the branch snapshot.
func BuildInput(u *model.User, set *branch.Set, now time.Time) Input {
	return Input{
		User:                u,
		ApplicationWindows:  ApplicationWindows(u, set),
		ConfirmationWindows: ConfirmationWindows(u, set),
		AutoConfirm:         AutoConfirm(u, set),
		Now:                 now,
	}
}

// ApplicationWindows returns the user's applied branch, or every configured
// application branch when the user has not picked one. A reference to a
// branch that no longer exists yields no windows, and branches without a
// schedule are left out.
func ApplicationWindows(u *model.User, set *branch.Set) []Window {
	if u.ApplicationBranch != "" {
		b, ok := set.Application(u.ApplicationBranch)
		if !ok || !b.Scheduled() {
			return nil
		}
		return []Window{{Name: b.Name, Open: b.Open, Close: b.Close}}
	}
	apps := set.Applications()
	out := make([]Window, 0, len(apps))
	for _, b := range apps {
		if b.Scheduled() {
			out = append(out, Window{Name: b.Name, Open: b.Open, Close: b.Close})
		}
	}
	return out
}

// ConfirmationWindows returns the assigned confirmation branch's window, when
// it is scheduled, merged with the user's deadline override. An override with
// the branch's name replaces it; any other override is placed first.
func ConfirmationWindows(u *model.User, set *branch.Set) []Window {
	var out []Window
	if u.HasConfirmationBranch() {
		if b, ok := set.Confirmation(u.ConfirmationBranch); ok && b.Scheduled() {
			out = append(out, Window{Name: b.Name, Open: b.Open, Close: b.Close})
		}
	}
	d := u.ConfirmationDeadline
	if d == nil || d.Name == "" {
		return out
	}
	override := Window{Name: d.Name, Open: d.Open, Close: d.Close}
	for i := range out {
		if out[i].Name == d.Name {
			out[i] = override
			return out
		}
	}
	return append([]Window{override}, out...)
}

// AutoConfirm is the assigned confirmation branch's flag, false when none.
func AutoConfirm(u *model.User, set *branch.Set) bool {
	if !u.HasConfirmationBranch() {
		return false
	}
	b, ok := set.Confirmation(u.ConfirmationBranch)
	return ok && b.AutoConfirm
}
