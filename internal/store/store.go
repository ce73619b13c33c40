package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

// ErrNotFound is returned when a report id is unknown to the store.
var ErrNotFound = errors.New("Bug report not found")

// CreateParams carries everything needed to persist a new report.
type CreateParams struct {
	Report          report.StructuredReport
	Markdown        string
	FilesAnalyzed   []string
	Screenshots     []string
	Reporter        *report.Reporter
	FeedbackRequest *report.InfoAssessment
}

// UpdateParams is a partial update: nil fields are left untouched.
type UpdateParams struct {
	Report               *report.StructuredReport
	Markdown             *string
	Status               *report.Status
	Ticket               *report.TicketRef
	ClearFeedbackRequest bool
}

// Storage persists report records. Implementations are selected at startup
// and passed by reference into the orchestrator; there is no ambient store
// state.
type Storage interface {
	Create(ctx context.Context, params CreateParams) (*report.ReportRecord, error)
	Get(ctx context.Context, id string) (*report.ReportRecord, error)
	Update(ctx context.Context, id string, params UpdateParams) (*report.ReportRecord, error)
}

// NewID generates a report identity. Collisions are not safety-critical
// here; a timestamp plus a short random suffix is enough within a process.
func NewID() string {
	return fmt.Sprintf("br_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func newRecord(id string, params CreateParams) *report.ReportRecord {
	now := time.Now().UTC()
	return &report.ReportRecord{
		ID:              id,
		Report:          params.Report,
		Markdown:        params.Markdown,
		FilesAnalyzed:   params.FilesAnalyzed,
		Screenshots:     params.Screenshots,
		Status:          report.StatusPendingConfirmation,
		Reporter:        params.Reporter,
		FeedbackRequest: params.FeedbackRequest,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func applyUpdate(rec *report.ReportRecord, params UpdateParams) {
	if params.Report != nil {
		rec.Report = *params.Report
	}
	if params.Markdown != nil {
		rec.Markdown = *params.Markdown
	}
	if params.Status != nil {
		rec.Status = *params.Status
	}
	if params.Ticket != nil {
		rec.Ticket = params.Ticket
	}
	if params.ClearFeedbackRequest {
		rec.FeedbackRequest = nil
	}
	rec.UpdatedAt = time.Now().UTC()
}

// cloneRecord copies a record so callers never share mutable state with
// the store.
func cloneRecord(rec *report.ReportRecord) *report.ReportRecord {
	clone := *rec
	clone.FilesAnalyzed = append([]string(nil), rec.FilesAnalyzed...)
	clone.Screenshots = append([]string(nil), rec.Screenshots...)
	if rec.Report.Evidence != nil {
		clone.Report.Evidence = append([]string(nil), rec.Report.Evidence...)
	}
	if rec.Report.NextSteps != nil {
		clone.Report.NextSteps = append([]string(nil), rec.Report.NextSteps...)
	}
	if rec.Report.AdditionalInfo != nil {
		info := make(map[string]string, len(rec.Report.AdditionalInfo))
		for k, v := range rec.Report.AdditionalInfo {
			info[k] = v
		}
		clone.Report.AdditionalInfo = info
	}
	if rec.Ticket != nil {
		ticket := *rec.Ticket
		clone.Ticket = &ticket
	}
	if rec.Reporter != nil {
		reporter := *rec.Reporter
		clone.Reporter = &reporter
	}
	if rec.FeedbackRequest != nil {
		fb := *rec.FeedbackRequest
		fb.Questions = append([]report.FollowUpRequest(nil), rec.FeedbackRequest.Questions...)
		clone.FeedbackRequest = &fb
	}
	return &clone
}
