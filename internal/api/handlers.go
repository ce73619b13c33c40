package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/otron-io/bug-report-autopilot/internal/report"
	"github.com/otron-io/bug-report-autopilot/internal/store"
)

type analyzeResponse struct {
	ID                  string                  `json:"id"`
	ReportJSON          report.StructuredReport `json:"report_json"`
	ReportMarkdown      string                  `json:"report_markdown"`
	FilesAnalyzed       []string                `json:"files_analyzed"`
	Screenshots         []string                `json:"screenshots"`
	NeedsMoreInfo       *report.InfoAssessment  `json:"needs_more_info"`
	Timestamp           string                  `json:"timestamp"`
	PendingConfirmation bool                    `json:"pending_confirmation"`
}

type confirmRequest struct {
	ReportID string `json:"reportId"`
}

type confirmResponse struct {
	ID             string                  `json:"id"`
	ReportJSON     report.StructuredReport `json:"report_json"`
	ReportMarkdown string                  `json:"report_markdown"`
	FilesAnalyzed  []string                `json:"files_analyzed"`
	Screenshots    []string                `json:"screenshots"`
	LinearIssue    *report.TicketRef       `json:"linear_issue"`
	Timestamp      string                  `json:"timestamp"`
	Confirmed      bool                    `json:"confirmed"`
}

type additionalInfoRequest struct {
	Responses map[string]string `json:"responses"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Bug report autopilot is running",
	})
}

func (s *Server) analyze(c echo.Context) error {
	var sub report.BugSubmission
	if err := c.Bind(&sub); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}

	rec, err := s.svc.Analyze(c.Request().Context(), sub)
	if err != nil {
		// Validation failures surface as 500 with a descriptive message,
		// matching the long-standing behavior clients depend on.
		return s.internalError(c, err)
	}

	return c.JSON(http.StatusOK, analyzeResponse{
		ID:                  rec.ID,
		ReportJSON:          rec.Report,
		ReportMarkdown:      rec.Markdown,
		FilesAnalyzed:       emptyIfNil(rec.FilesAnalyzed),
		Screenshots:         emptyIfNil(rec.Screenshots),
		NeedsMoreInfo:       rec.FeedbackRequest,
		Timestamp:           timestamp(),
		PendingConfirmation: true,
	})
}

func (s *Server) confirm(c echo.Context) error {
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if req.ReportID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "reportId is required"})
	}

	rec, err := s.svc.Confirm(c.Request().Context(), req.ReportID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: store.ErrNotFound.Error()})
		}
		return s.internalError(c, err)
	}

	return c.JSON(http.StatusOK, confirmResponse{
		ID:             rec.ID,
		ReportJSON:     rec.Report,
		ReportMarkdown: rec.Markdown,
		FilesAnalyzed:  emptyIfNil(rec.FilesAnalyzed),
		Screenshots:    emptyIfNil(rec.Screenshots),
		LinearIssue:    rec.Ticket,
		Timestamp:      timestamp(),
		Confirmed:      true,
	})
}

func (s *Server) additionalInfo(c echo.Context) error {
	id := c.Param("id")

	var req additionalInfoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
	}
	if len(req.Responses) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "responses are required"})
	}

	rec, err := s.svc.SubmitAdditionalInfo(c.Request().Context(), id, req.Responses)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: store.ErrNotFound.Error()})
		}
		return s.internalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Additional information recorded",
		"id":      rec.ID,
	})
}

func (s *Server) getReport(c echo.Context) error {
	rec, err := s.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse{Error: store.ErrNotFound.Error()})
		}
		return s.internalError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// internalError reports a 500. The underlying message is only exposed
// outside production.
func (s *Server) internalError(c echo.Context, err error) error {
	log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")

	message := "Internal server error"
	if s.environment != "production" {
		message = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: message})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
