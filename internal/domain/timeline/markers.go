package timeline

import "github.com/okian/hackreg/internal/domain/model"

// Marker tags one phase of the progress indicator.
type Marker string

// Marker values. None renders as an empty class.
const (
	None     Marker = ""
	Complete Marker = "complete"
	Warning  Marker = "warning"
	Rejected Marker = "rejected"
)

// Timeline holds one marker per phase.
type Timeline struct {
	Application   Marker `json:"application"`
	Decision      Marker `json:"decision"`
	Confirmation  Marker `json:"confirmation"`
	TeamFormation Marker `json:"teamFormation"`
}

// Markers derives each phase independently from the user and the aggregated
// application and confirmation window states.
func Markers(u *model.User, application, confirmation WindowState) Timeline {
	var tl Timeline
	if u.Applied {
		tl.Application = Complete
	} else {
		tl.Application = pending(application)
	}
	if u.Applied && u.HasConfirmationBranch() {
		if u.Accepted {
			tl.Decision = Complete
		} else {
			tl.Decision = Rejected
		}
	}
	if u.HasConfirmationBranch() {
		if u.Confirmed {
			tl.Confirmation = Complete
		} else {
			tl.Confirmation = pending(confirmation)
		}
	}
	if u.HasTeam() {
		tl.TeamFormation = Complete
	}
	return tl
}

func pending(s WindowState) Marker {
	switch {
	case s.IsBeforeOpen:
		return Warning
	case s.IsAfterClose:
		return Rejected
	default:
		return None
	}
}
