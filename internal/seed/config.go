package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL            string        // Base URL of the service
	Applicants         int           // Number of applicants to register
	Workers            int           // Number of concurrent workers
	Timeout            time.Duration // HTTP request timeout
	AdminKey           string        // Bearer key for the admin API; empty skips decisions
	AcceptEvery        int           // Accept every Nth applicant; 0 accepts none
	ConfirmationBranch string        // Assigned to accepted applicants when set
	Seed               uint64        // Seed for generated answers
	EmailDomain        string        // Domain of generated applicant emails
	Verbose            bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	Applicants   int
	Applied      int
	Failed       int
	Accepted     int
	Assigned     int
	StatsEntries int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}

// user mirrors the API user representation.
type user struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Applied            bool   `json:"applied"`
	Accepted           bool   `json:"accepted"`
	ApplicationBranch  string `json:"applicationBranch"`
	ConfirmationBranch string `json:"confirmationBranch"`
}

type choices struct {
	Branches []string `json:"branches"`
}

type field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
	HasOther bool     `json:"hasOther"`
	Required bool     `json:"required"`
}

type formDoc struct {
	Branch string  `json:"branch"`
	Fields []field `json:"fields"`
}

type submission struct {
	Answers map[string]any `json:"answers"`
}

type overview struct {
	TotalUsers     int `json:"totalUsers"`
	AppliedUsers   int `json:"appliedUsers"`
	AcceptedUsers  int `json:"acceptedUsers"`
	ConfirmedUsers int `json:"confirmedUsers"`
}
