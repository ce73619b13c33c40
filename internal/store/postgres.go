package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS bug_reports (
	id               TEXT PRIMARY KEY,
	content_json     JSONB NOT NULL,
	content_markdown TEXT NOT NULL,
	files_analyzed   JSONB NOT NULL DEFAULT '[]',
	screenshots      JSONB NOT NULL DEFAULT '[]',
	status           TEXT NOT NULL,
	ticket           JSONB,
	reporter         JSONB,
	feedback_request JSONB,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
)`

// Postgres is the remote store, backed by a Supabase-hosted database.
type Postgres struct {
	db *sql.DB
}

// NewPostgres connects to the remote store and ensures the bug_reports
// table exists. supabaseURL may be a project URL (https://<ref>.supabase.co)
// or a full postgres:// connection string.
func NewPostgres(supabaseURL, serviceRoleKey string) (*Postgres, error) {
	dsn, err := buildDSN(supabaseURL, serviceRoleKey)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure bug_reports table: %w", err)
	}

	log.Info().Msg("Connected to remote report store")
	return &Postgres{db: db}, nil
}

func buildDSN(supabaseURL, serviceRoleKey string) (string, error) {
	if strings.HasPrefix(supabaseURL, "postgres://") || strings.HasPrefix(supabaseURL, "postgresql://") {
		return supabaseURL, nil
	}

	u, err := url.Parse(supabaseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid supabase url %q", supabaseURL)
	}
	ref, _, found := strings.Cut(u.Host, ".")
	if !found || ref == "" {
		return "", fmt.Errorf("cannot derive project ref from supabase url %q", supabaseURL)
	}

	return fmt.Sprintf("postgres://postgres:%s@db.%s.supabase.co:5432/postgres?sslmode=require",
		url.QueryEscape(serviceRoleKey), ref), nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Create inserts a new record under a freshly generated identity.
func (p *Postgres) Create(ctx context.Context, params CreateParams) (*report.ReportRecord, error) {
	rec := newRecord(NewID(), params)

	cols, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	query := `
	INSERT INTO bug_reports (
		id, content_json, content_markdown, files_analyzed, screenshots,
		status, ticket, reporter, feedback_request, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = p.db.ExecContext(ctx, query,
		rec.ID, cols.content, rec.Markdown, cols.files, cols.screenshots,
		string(rec.Status), cols.ticket, cols.reporter, cols.feedback,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return rec, nil
}

// Get retrieves a record by id, or ErrNotFound.
func (p *Postgres) Get(ctx context.Context, id string) (*report.ReportRecord, error) {
	query := `
	SELECT id, content_json, content_markdown, files_analyzed, screenshots,
	       status, ticket, reporter, feedback_request, created_at, updated_at
	FROM bug_reports
	WHERE id = $1
	`
	return p.scanRecord(p.db.QueryRowContext(ctx, query, id))
}

// Update applies a partial update and returns the updated record, or
// ErrNotFound.
func (p *Postgres) Update(ctx context.Context, id string, params UpdateParams) (*report.ReportRecord, error) {
	rec, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(rec, params)

	cols, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE bug_reports
	SET content_json = $1, content_markdown = $2, status = $3, ticket = $4,
	    feedback_request = $5, updated_at = $6
	WHERE id = $7
	`
	result, err := p.db.ExecContext(ctx, query,
		cols.content, rec.Markdown, string(rec.Status), cols.ticket,
		cols.feedback, rec.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}
	if rows, rowsErr := result.RowsAffected(); rowsErr == nil && rows == 0 {
		return nil, ErrNotFound
	}

	return rec, nil
}

type encodedColumns struct {
	content     []byte
	files       []byte
	screenshots []byte
	ticket      interface{}
	reporter    interface{}
	feedback    interface{}
}

func encodeRecord(rec *report.ReportRecord) (encodedColumns, error) {
	var cols encodedColumns
	var err error

	if cols.content, err = json.Marshal(rec.Report); err != nil {
		return cols, fmt.Errorf("failed to encode report: %w", err)
	}
	if cols.files, err = json.Marshal(stringsOrEmpty(rec.FilesAnalyzed)); err != nil {
		return cols, fmt.Errorf("failed to encode files: %w", err)
	}
	if cols.screenshots, err = json.Marshal(stringsOrEmpty(rec.Screenshots)); err != nil {
		return cols, fmt.Errorf("failed to encode screenshots: %w", err)
	}
	if cols.ticket, err = marshalNullable(rec.Ticket == nil, rec.Ticket); err != nil {
		return cols, err
	}
	if cols.reporter, err = marshalNullable(rec.Reporter == nil, rec.Reporter); err != nil {
		return cols, err
	}
	if cols.feedback, err = marshalNullable(rec.FeedbackRequest == nil, rec.FeedbackRequest); err != nil {
		return cols, err
	}
	return cols, nil
}

func marshalNullable(isNil bool, v interface{}) (interface{}, error) {
	if isNil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode column: %w", err)
	}
	return data, nil
}

func stringsOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (p *Postgres) scanRecord(row *sql.Row) (*report.ReportRecord, error) {
	var rec report.ReportRecord
	var content, files, screenshots []byte
	var ticket, reporter, feedback []byte
	var status string

	err := row.Scan(
		&rec.ID, &content, &rec.Markdown, &files, &screenshots,
		&status, &ticket, &reporter, &feedback, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	rec.Status = report.Status(status)
	if err := json.Unmarshal(content, &rec.Report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	if err := json.Unmarshal(files, &rec.FilesAnalyzed); err != nil {
		return nil, fmt.Errorf("failed to decode files: %w", err)
	}
	if err := json.Unmarshal(screenshots, &rec.Screenshots); err != nil {
		return nil, fmt.Errorf("failed to decode screenshots: %w", err)
	}
	if ticket != nil {
		rec.Ticket = &report.TicketRef{}
		if err := json.Unmarshal(ticket, rec.Ticket); err != nil {
			return nil, fmt.Errorf("failed to decode ticket: %w", err)
		}
	}
	if reporter != nil {
		rec.Reporter = &report.Reporter{}
		if err := json.Unmarshal(reporter, rec.Reporter); err != nil {
			return nil, fmt.Errorf("failed to decode reporter: %w", err)
		}
	}
	if feedback != nil {
		rec.FeedbackRequest = &report.InfoAssessment{}
		if err := json.Unmarshal(feedback, rec.FeedbackRequest); err != nil {
			return nil, fmt.Errorf("failed to decode feedback request: %w", err)
		}
	}

	return &rec, nil
}
