package model

import "time"

// ResearchStatus represents the lifecycle state of a research run.
type ResearchStatus string

const (
	ResearchStatusPending    ResearchStatus = "PENDING"
	ResearchStatusInProgress ResearchStatus = "IN_PROGRESS"
	ResearchStatusCompleted  ResearchStatus = "COMPLETED"
	ResearchStatusFailed     ResearchStatus = "FAILED"
)

// ProgressStatus is the outcome of a single pipeline step.
type ProgressStatus string

const (
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// ProgressEvent is one logged step transition, shown to polling clients.
// Details carries free-form diagnostic metadata and has no fixed schema.
type ProgressEvent struct {
	Step      string         `json:"step"`
	Status    ProgressStatus `json:"status"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// ProgressLog is the append-only event sequence for a research run.
type ProgressLog struct {
	Progress []ProgressEvent `json:"progress"`
}

// ListItem is one entry of a structured report section (competitor,
// opportunity, threat, or recommendation). Description may be empty.
type ListItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ResearchRecord is one market-research run and its outcome. The raw
// provider payloads are kept opaque; nil means the stage produced nothing.
type ResearchRecord struct {
	ID        string         `json:"id"`
	CompanyID string         `json:"company_id"`
	Status    ResearchStatus `json:"status"`

	ProgressLog ProgressLog `json:"progress_log"`

	SearchResults  map[string]any `json:"search_results,omitempty"`
	FinancialData  map[string]any `json:"financial_data,omitempty"`
	CompetitorData map[string]any `json:"competitor_data,omitempty"`

	ExecutiveSummary string     `json:"executive_summary,omitempty"`
	MarketPosition   string     `json:"market_position,omitempty"`
	Competitors      []ListItem `json:"competitors,omitempty"`
	Opportunities    []ListItem `json:"opportunities,omitempty"`
	Threats          []ListItem `json:"threats,omitempty"`
	Recommendations  []ListItem `json:"recommendations,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// ResearchOutcome holds the data written once when a run finishes.
type ResearchOutcome struct {
	SearchResults    map[string]any
	FinancialData    map[string]any
	CompetitorData   map[string]any
	ExecutiveSummary string
	MarketPosition   string
	Competitors      []ListItem
	Opportunities    []ListItem
	Threats          []ListItem
	Recommendations  []ListItem
}

// ResearchUpdate is a partial update of the user-editable report fields.
// Nil pointers mean "leave unchanged".
type ResearchUpdate struct {
	ExecutiveSummary *string     `json:"executive_summary,omitempty"`
	MarketPosition   *string     `json:"market_position,omitempty"`
	Competitors      *[]ListItem `json:"competitors,omitempty"`
	Opportunities    *[]ListItem `json:"opportunities,omitempty"`
	Threats          *[]ListItem `json:"threats,omitempty"`
	Recommendations  *[]ListItem `json:"recommendations,omitempty"`
}

// Empty reports whether the update carries no recognized field.
func (u ResearchUpdate) Empty() bool {
	return u.ExecutiveSummary == nil &&
		u.MarketPosition == nil &&
		u.Competitors == nil &&
		u.Opportunities == nil &&
		u.Threats == nil &&
		u.Recommendations == nil
}
