package triage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otron-io/bug-report-autopilot/internal/analysis"
	"github.com/otron-io/bug-report-autopilot/internal/report"
	"github.com/otron-io/bug-report-autopilot/internal/store"
)

// stubPublisher records publish calls.
type stubPublisher struct {
	ticket *report.TicketRef
	err    error
	calls  int
}

func (p *stubPublisher) PublishTicket(ctx context.Context, r report.StructuredReport, markdown string, files, screenshots []string) (*report.TicketRef, error) {
	p.calls++
	return p.ticket, p.err
}

func newTestService(publisher Publisher) *Service {
	return NewService(
		store.NewFallback(nil, store.NewMemory()),
		analysis.NewSelector(nil),
		analysis.NewSynthesizer(nil),
		publisher,
	)
}

func tempRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	content := "export function onLoginClick() {}\n"
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "login.ts"), []byte(content), 0644))
	return root
}

func TestAnalyzeWithNoIntegrationsConfigured(t *testing.T) {
	svc := newTestService(nil)

	rec, err := svc.Analyze(context.Background(), report.BugSubmission{
		Description: "Login button does nothing on click",
		RepoPath:    tempRepo(t),
	})
	require.NoError(t, err)

	assert.Equal(t, report.StatusPendingConfirmation, rec.Status)
	assert.Equal(t, "Login button does nothing on click", rec.Report.Title)
	assert.Equal(t, "Unable to automatically analyze the root cause. Manual investigation is required.", rec.Report.SuspectedRootCause)
	assert.Contains(t, rec.FilesAnalyzed, "src/login.ts")
	assert.NotEmpty(t, rec.Markdown)
	assert.NotNil(t, rec.FeedbackRequest, "the fallback report is always flagged for follow-up")
}

func TestAnalyzeValidation(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.Analyze(context.Background(), report.BugSubmission{RepoPath: "/tmp"})
	assert.ErrorContains(t, err, "description is required")

	_, err = svc.Analyze(context.Background(), report.BugSubmission{Description: "broken"})
	assert.ErrorContains(t, err, "repoPath is required")
}

func TestConfirmUnknownReport(t *testing.T) {
	publisher := &stubPublisher{}
	svc := newTestService(publisher)

	_, err := svc.Confirm(context.Background(), "br_missing")

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, publisher.calls, "no ticket may be created for an unknown report")
}

func TestConfirmWithoutPublisher(t *testing.T) {
	svc := newTestService(nil)
	rec := analyzeFixture(t, svc)

	confirmed, err := svc.Confirm(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, report.StatusConfirmed, confirmed.Status)
	assert.Nil(t, confirmed.Ticket)
	assert.Equal(t, rec.Report, confirmed.Report, "report content is unchanged by confirmation")
}

func TestConfirmPublishesTicket(t *testing.T) {
	publisher := &stubPublisher{ticket: &report.TicketRef{ID: "iss_1", Number: 42, URL: "https://linear.app/i/42"}}
	svc := newTestService(publisher)
	rec := analyzeFixture(t, svc)

	confirmed, err := svc.Confirm(context.Background(), rec.ID)
	require.NoError(t, err)

	require.NotNil(t, confirmed.Ticket)
	assert.Equal(t, 42, confirmed.Ticket.Number)
	assert.Equal(t, 1, publisher.calls)
}

func TestConfirmTwiceRepublishes(t *testing.T) {
	// Confirm is deliberately not idempotent with respect to ticket
	// creation; duplicates in the tracker are tolerated.
	publisher := &stubPublisher{ticket: &report.TicketRef{ID: "iss_1"}}
	svc := newTestService(publisher)
	rec := analyzeFixture(t, svc)

	_, err := svc.Confirm(context.Background(), rec.ID)
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, publisher.calls)
}

func TestConfirmPublishFailurePropagates(t *testing.T) {
	publisher := &stubPublisher{err: fmt.Errorf("tracker rejected the issue")}
	svc := newTestService(publisher)
	rec := analyzeFixture(t, svc)

	_, err := svc.Confirm(context.Background(), rec.ID)
	assert.ErrorContains(t, err, "tracker rejected the issue")

	// The report stays pending when ticket creation fails.
	current, getErr := svc.Get(context.Background(), rec.ID)
	require.NoError(t, getErr)
	assert.Equal(t, report.StatusPendingConfirmation, current.Status)
}

func TestSubmitAdditionalInfoMerges(t *testing.T) {
	svc := newTestService(nil)
	rec := analyzeFixture(t, svc)

	_, err := svc.SubmitAdditionalInfo(context.Background(), rec.ID, map[string]string{"environment": "Chrome 126"})
	require.NoError(t, err)
	updated, err := svc.SubmitAdditionalInfo(context.Background(), rec.ID, map[string]string{"version": "v2.3.1"})
	require.NoError(t, err)

	assert.Equal(t, "Chrome 126", updated.Report.AdditionalInfo["environment"])
	assert.Equal(t, "v2.3.1", updated.Report.AdditionalInfo["version"])
	assert.Nil(t, updated.FeedbackRequest, "pending follow-up is cleared")
	assert.Equal(t, report.StatusPendingConfirmation, updated.Status, "status is untouched")
	assert.Contains(t, updated.Markdown, "Chrome 126", "markdown is re-rendered with the answers")
}

func TestSubmitAdditionalInfoOverwritesKeys(t *testing.T) {
	svc := newTestService(nil)
	rec := analyzeFixture(t, svc)

	_, err := svc.SubmitAdditionalInfo(context.Background(), rec.ID, map[string]string{"environment": "Firefox"})
	require.NoError(t, err)
	updated, err := svc.SubmitAdditionalInfo(context.Background(), rec.ID, map[string]string{"environment": "Chrome 126"})
	require.NoError(t, err)

	assert.Len(t, updated.Report.AdditionalInfo, 1)
	assert.Equal(t, "Chrome 126", updated.Report.AdditionalInfo["environment"])
}

func TestSubmitAdditionalInfoValidation(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.SubmitAdditionalInfo(context.Background(), "br_any", nil)
	assert.ErrorContains(t, err, "responses are required")

	_, err = svc.SubmitAdditionalInfo(context.Background(), "br_missing", map[string]string{"a": "b"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func analyzeFixture(t *testing.T, svc *Service) *report.ReportRecord {
	t.Helper()
	rec, err := svc.Analyze(context.Background(), report.BugSubmission{
		Description: "Login button does nothing on click",
		RepoPath:    tempRepo(t),
	})
	require.NoError(t, err)
	return rec
}
