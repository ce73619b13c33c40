package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

func testParams() CreateParams {
	return CreateParams{
		Report: report.StructuredReport{
			Title:              "Login button unresponsive",
			SuspectedRootCause: "Handler detaches on unmount",
			Evidence:           []string{"src/auth/login.ts:42 uses a stale ref"},
			NextSteps:          []string{"Attach handler after mount"},
		},
		Markdown:      "# Login button unresponsive",
		FilesAnalyzed: []string{"src/auth/login.ts"},
		Screenshots:   []string{"https://example.com/shot.png"},
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.Create(ctx, testParams())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.ID, "br_"))
	assert.Equal(t, report.StatusPendingConfirmation, created.Status)

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Report, got.Report)
	assert.Equal(t, created.Markdown, got.Markdown)
	assert.Equal(t, created.FilesAnalyzed, got.FilesAnalyzed)
}

func TestMemoryGetUnknownID(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), "br_missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.Create(ctx, testParams())
	require.NoError(t, err)

	status := report.StatusConfirmed
	ticket := &report.TicketRef{ID: "lin_1", Number: 7, URL: "https://linear.app/i/7", Title: "Login button unresponsive"}
	updated, err := m.Update(ctx, created.ID, UpdateParams{Status: &status, Ticket: ticket})
	require.NoError(t, err)

	assert.Equal(t, report.StatusConfirmed, updated.Status)
	require.NotNil(t, updated.Ticket)
	assert.Equal(t, 7, updated.Ticket.Number)
	assert.Equal(t, created.ID, updated.ID, "identity never changes")
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestMemoryUpdateUnknownID(t *testing.T) {
	m := NewMemory()
	status := report.StatusConfirmed

	_, err := m.Update(context.Background(), "br_missing", UpdateParams{Status: &status})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	created, err := m.Create(ctx, testParams())
	require.NoError(t, err)

	created.Report.Title = "mutated by caller"
	created.FilesAnalyzed[0] = "mutated.go"

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Login button unresponsive", got.Report.Title)
	assert.Equal(t, "src/auth/login.ts", got.FilesAnalyzed[0])
}

func TestNewIDUniqueEnough(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
