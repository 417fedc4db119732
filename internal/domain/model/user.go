// Package model contains domain models passed between layers.
package model

import "time"

// FormItem is one recorded answer. Type is the question type at the time
// the answer was recorded.
type FormItem struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value Answer `json:"value"`
}

// Deadline overrides the confirmation window for a single user.
type Deadline struct {
	Name  string    `json:"name"`
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
}

// User is an applicant account. Branch fields are weak references by name;
// the named branch may have been removed from configuration since.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`

	Applied   bool `json:"applied"`
	Accepted  bool `json:"accepted"`
	Confirmed bool `json:"confirmed"`

	ApplicationBranch    string    `json:"applicationBranch,omitempty"`
	ConfirmationBranch   string    `json:"confirmationBranch,omitempty"`
	ConfirmationDeadline *Deadline `json:"confirmationDeadline,omitempty"`

	ApplicationData  []FormItem `json:"applicationData,omitempty"`
	ConfirmationData []FormItem `json:"confirmationData,omitempty"`

	ApplicationStartTime   *time.Time `json:"applicationStartTime,omitempty"`
	ApplicationSubmitTime  *time.Time `json:"applicationSubmitTime,omitempty"`
	ConfirmationStartTime  *time.Time `json:"confirmationStartTime,omitempty"`
	ConfirmationSubmitTime *time.Time `json:"confirmationSubmitTime,omitempty"`

	TeamID    string    `json:"teamId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasTeam reports whether the user belongs to a team.
func (u *User) HasTeam() bool { return u.TeamID != "" }

// HasConfirmationBranch reports whether a confirmation branch was assigned.
func (u *User) HasConfirmationBranch() bool { return u.ConfirmationBranch != "" }

// FindItem looks up a recorded answer by question name.
func FindItem(items []FormItem, name string) (FormItem, bool) {
	for _, it := range items {
		if it.Name == name {
			return it, true
		}
	}
	return FormItem{}, false
}

// Settings are the site-wide toggles administrators control.
type Settings struct {
	TeamsEnabled bool `json:"teamsEnabled"`
	QREnabled    bool `json:"qrEnabled"`
}
