package triage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/otron-io/bug-report-autopilot/internal/analysis"
	"github.com/otron-io/bug-report-autopilot/internal/repo"
	"github.com/otron-io/bug-report-autopilot/internal/report"
	"github.com/otron-io/bug-report-autopilot/internal/store"
)

// Publisher files a ticket in the external tracker. A nil Publisher means
// no tracker is configured and confirm leaves the ticket reference null.
type Publisher interface {
	PublishTicket(ctx context.Context, r report.StructuredReport, markdown string, files, screenshots []string) (*report.TicketRef, error)
}

// Service sequences the analysis pipeline per request:
// analyze -> maybe-ask-follow-up -> confirm -> publish.
type Service struct {
	store     store.Storage
	selector  *analysis.Selector
	synth     *analysis.Synthesizer
	publisher Publisher
}

// NewService wires the orchestrator. publisher may be nil.
func NewService(st store.Storage, selector *analysis.Selector, synth *analysis.Synthesizer, publisher Publisher) *Service {
	return &Service{
		store:     st,
		selector:  selector,
		synth:     synth,
		publisher: publisher,
	}
}

// Analyze runs the full pipeline over a submission and persists the result
// in pending_confirmation state.
func (s *Service) Analyze(ctx context.Context, sub report.BugSubmission) (*report.ReportRecord, error) {
	if sub.Description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if sub.RepoPath == "" {
		return nil, fmt.Errorf("repoPath is required")
	}

	candidates := repo.ListSourceFiles(sub.RepoPath)
	shortlist := s.selector.Select(ctx, sub.Description, candidates)
	snippets := repo.LoadSnippets(sub.RepoPath, shortlist)

	rep := s.synth.Synthesize(ctx, sub, shortlist, snippets)
	markdown := report.RenderMarkdown(rep)
	assessment := report.Evaluate(rep)

	var reporter *report.Reporter
	if sub.ReporterEmail != "" || sub.ReporterName != "" {
		reporter = &report.Reporter{Email: sub.ReporterEmail, Name: sub.ReporterName}
	}

	rec, err := s.store.Create(ctx, store.CreateParams{
		Report:          rep,
		Markdown:        markdown,
		FilesAnalyzed:   shortlist,
		Screenshots:     sub.Screenshots,
		Reporter:        reporter,
		FeedbackRequest: assessment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	log.Info().
		Str("id", rec.ID).
		Int("files_analyzed", len(shortlist)).
		Bool("needs_more_info", assessment != nil).
		Msg("Bug report analyzed")

	return rec, nil
}

// SubmitAdditionalInfo merges follow-up answers into the report, re-renders
// the markdown, and clears the pending feedback request. The lifecycle
// status is untouched.
func (s *Service) SubmitAdditionalInfo(ctx context.Context, id string, responses map[string]string) (*report.ReportRecord, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("responses are required")
	}

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := rec.Report
	if updated.AdditionalInfo == nil {
		updated.AdditionalInfo = make(map[string]string, len(responses))
	}
	for k, v := range responses {
		updated.AdditionalInfo[k] = v
	}
	markdown := report.RenderMarkdown(updated)

	rec, err = s.store.Update(ctx, id, store.UpdateParams{
		Report:               &updated,
		Markdown:             &markdown,
		ClearFeedbackRequest: true,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("id", id).Int("responses", len(responses)).Msg("Additional info recorded")
	return rec, nil
}

// Confirm transitions a report to confirmed and files a tracker ticket.
// Re-confirming an already confirmed report re-runs ticket creation; the
// tracker may end up with duplicate tickets, which is tolerated at this
// volume.
func (s *Service) Confirm(ctx context.Context, id string) (*report.ReportRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var ticket *report.TicketRef
	if s.publisher != nil {
		ticket, err = s.publisher.PublishTicket(ctx, rec.Report, rec.Markdown, rec.FilesAnalyzed, rec.Screenshots)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracker ticket: %w", err)
		}
	}

	status := report.StatusConfirmed
	params := store.UpdateParams{Status: &status}
	if ticket != nil {
		params.Ticket = ticket
	}

	rec, err = s.store.Update(ctx, id, params)
	if err != nil {
		return nil, err
	}

	log.Info().Str("id", id).Bool("ticket_created", ticket != nil).Msg("Bug report confirmed")
	return rec, nil
}

// Get returns the stored record for id.
func (s *Service) Get(ctx context.Context, id string) (*report.ReportRecord, error) {
	return s.store.Get(ctx, id)
}
