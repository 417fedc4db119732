package timeline

import (
	"time"

	"github.com/okian/hackreg/internal/domain/model"
)

// Rule identifies which status rule produced a label.
type Rule string

// Status rules in priority order.
const (
	RuleIncomplete             Rule = "incomplete"
	RulePendingDecision        Rule = "pending_decision"
	RuleAttending              Rule = "attending"
	RuleConfirmedBranch        Rule = "confirmed_branch"
	RuleConfirmationIncomplete Rule = "confirmation_incomplete"
	RuleConfirmationOpensSoon  Rule = "confirmation_opens_soon"
	RulePleaseConfirm          Rule = "please_confirm"
)

// Label renders the rule for the given confirmation branch.
func (r Rule) Label(confirmationBranch string) string {
	switch r {
	case RuleIncomplete:
		return "Incomplete"
	case RulePendingDecision:
		return "Pending Decision"
	case RuleAttending:
		return "Attending - " + confirmationBranch
	case RuleConfirmedBranch:
		return confirmationBranch
	case RuleConfirmationIncomplete:
		return "Confirmation Incomplete - " + confirmationBranch
	case RuleConfirmationOpensSoon:
		return "Confirmation Opens Soon - " + confirmationBranch
	default:
		return "Please Confirm - " + confirmationBranch
	}
}

// Classify picks the first matching status rule. first is the first
// confirmation record associated with the user (the per-user deadline when
// present); a nil record counts as not yet open.
func Classify(u *model.User, first *Window, now time.Time) Rule {
	switch {
	case !u.Applied:
		return RuleIncomplete
	case !u.HasConfirmationBranch():
		return RulePendingDecision
	case u.Confirmed && u.Accepted:
		return RuleAttending
	case u.Confirmed:
		return RuleConfirmedBranch
	}
	state := WindowState{IsBeforeOpen: true}
	if first != nil {
		state = first.State(now)
	}
	switch {
	case state.IsAfterClose:
		return RuleConfirmationIncomplete
	case state.IsBeforeOpen:
		return RuleConfirmationOpensSoon
	default:
		return RulePleaseConfirm
	}
}

// StatusLabel returns the dashboard status label for u at now.
func StatusLabel(u *model.User, first *Window, now time.Time) string {
	return Classify(u, first, now).Label(u.ConfirmationBranch)
}
