package report

import "time"

// Status tracks the lifecycle of a stored bug report.
type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusConfirmed           Status = "confirmed"
)

// BugSubmission is the raw user input to the analysis pipeline. It is
// immutable once received; the pipeline only reads from it.
type BugSubmission struct {
	Description       string   `json:"description"`
	Logs              string   `json:"logs,omitempty"`
	Steps             string   `json:"steps,omitempty"`
	AdditionalContext string   `json:"additionalContext,omitempty"`
	Screenshots       []string `json:"screenshots,omitempty"`
	RepoPath          string   `json:"repoPath"`
	ReporterEmail     string   `json:"email,omitempty"`
	ReporterName      string   `json:"name,omitempty"`
}

// StructuredReport is the four-field analysis result produced by the
// synthesizer. AdditionalInfo is appended later from follow-up answers.
type StructuredReport struct {
	Title              string            `json:"title"`
	SuspectedRootCause string            `json:"suspected_root_cause"`
	Evidence           []string          `json:"evidence"`
	NextSteps          []string          `json:"next_steps"`
	AdditionalInfo     map[string]string `json:"additional_info,omitempty"`
}

// FollowUpType identifies the category of a follow-up question.
type FollowUpType string

const (
	FollowUpReproductionSteps FollowUpType = "reproduction_steps"
	FollowUpEnvironment       FollowUpType = "environment"
	FollowUpVersion           FollowUpType = "version"
	FollowUpUserContext       FollowUpType = "user_context"
	FollowUpDataContext       FollowUpType = "data_context"
	FollowUpScreenshot        FollowUpType = "screenshot"
)

// FollowUpRequest is a single question asked back to the reporter. It is
// transient; only the answers are persisted, inside AdditionalInfo.
type FollowUpRequest struct {
	Type     FollowUpType `json:"type"`
	Question string       `json:"question"`
}

// InfoAssessment is the gate verdict when a report needs more information.
// A nil assessment means the report is good enough to file as-is.
type InfoAssessment struct {
	Confidence string            `json:"confidence"`
	Questions  []FollowUpRequest `json:"questions"`
}

// TicketRef points at the tracker issue created for a confirmed report.
type TicketRef struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title"`
}

// Reporter is the optional identity attached to a submission.
type Reporter struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// ReportRecord is the persisted form of a report. The identity never
// changes once assigned, and ContentJSON/ContentMarkdown always describe
// the same logical report.
type ReportRecord struct {
	ID              string           `json:"id"`
	Report          StructuredReport `json:"content_json"`
	Markdown        string           `json:"content_markdown"`
	FilesAnalyzed   []string         `json:"files_analyzed"`
	Screenshots     []string         `json:"screenshots"`
	Status          Status           `json:"status"`
	Ticket          *TicketRef       `json:"linear_issue"`
	Reporter        *Reporter        `json:"reporter,omitempty"`
	FeedbackRequest *InfoAssessment  `json:"feedback_request,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
