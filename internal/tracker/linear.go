package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

const defaultEndpoint = "https://api.linear.app/graphql"

// Client talks to the Linear GraphQL API directly over HTTP.
type Client struct {
	endpoint string
	apiKey   string
	teamID   string
	client   *http.Client
}

// New creates a Linear client. teamID may be empty, in which case the
// first available team is discovered at publish time.
func New(apiKey, teamID string) *Client {
	return &Client{
		endpoint: defaultEndpoint,
		apiKey:   apiKey,
		teamID:   teamID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// WithEndpoint overrides the GraphQL endpoint. Used by tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// PublishTicket creates a Linear issue from a finalized report. A missing
// team resolves to nil without error; failures while fetching teams or
// labels degrade gracefully. Only the final create call returns an error.
func (c *Client) PublishTicket(ctx context.Context, r report.StructuredReport, markdown string, files, screenshots []string) (*report.TicketRef, error) {
	teamID := c.teamID
	if teamID == "" {
		discovered, err := c.firstTeam(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Linear team discovery failed, skipping ticket creation")
			return nil, nil
		}
		if discovered == "" {
			log.Warn().Msg("No Linear team available, skipping ticket creation")
			return nil, nil
		}
		teamID = discovered
	}

	labelIDs := c.resolveLabels(ctx, teamID, r.SuspectedRootCause)

	return c.createIssue(ctx, teamID, r.Title, buildDescription(markdown, files, screenshots), labelIDs)
}

func buildDescription(markdown string, files, screenshots []string) string {
	var b strings.Builder
	b.WriteString(markdown)

	if len(files) > 0 {
		b.WriteString("\n\n## Files Examined\n\n")
		for _, f := range files {
			b.WriteString("- `" + f + "`\n")
		}
	}
	if len(screenshots) > 0 {
		b.WriteString("\n## Screenshots\n\n")
		for _, url := range screenshots {
			b.WriteString("- " + url + "\n")
		}
	}
	return b.String()
}

// resolveLabels picks a "bug" label when the team has one, plus a priority
// label when the root cause sounds severe. Label fetch failures just mean
// no labels.
func (c *Client) resolveLabels(ctx context.Context, teamID, rootCause string) []string {
	labels, err := c.teamLabels(ctx, teamID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch Linear labels, creating ticket without labels")
		return nil
	}

	var ids []string
	for _, l := range labels {
		if strings.EqualFold(l.Name, "bug") {
			ids = append(ids, l.ID)
			break
		}
	}

	lower := strings.ToLower(rootCause)
	if strings.Contains(lower, "crash") || strings.Contains(lower, "critical") {
		for _, l := range labels {
			if strings.EqualFold(l.Name, "high") || strings.EqualFold(l.Name, "urgent") {
				ids = append(ids, l.ID)
				break
			}
		}
	}
	return ids
}

type label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) firstTeam(ctx context.Context) (string, error) {
	var resp struct {
		Teams struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	err := c.do(ctx, `query { teams(first: 1) { nodes { id } } }`, nil, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Teams.Nodes) == 0 {
		return "", nil
	}
	return resp.Teams.Nodes[0].ID, nil
}

func (c *Client) teamLabels(ctx context.Context, teamID string) ([]label, error) {
	var resp struct {
		Team struct {
			Labels struct {
				Nodes []label `json:"nodes"`
			} `json:"labels"`
		} `json:"team"`
	}
	query := `query($id: String!) { team(id: $id) { labels { nodes { id name } } } }`
	if err := c.do(ctx, query, map[string]interface{}{"id": teamID}, &resp); err != nil {
		return nil, err
	}
	return resp.Team.Labels.Nodes, nil
}

func (c *Client) createIssue(ctx context.Context, teamID, title, description string, labelIDs []string) (*report.TicketRef, error) {
	input := map[string]interface{}{
		"teamId":      teamID,
		"title":       title,
		"description": description,
	}
	if len(labelIDs) > 0 {
		input["labelIds"] = labelIDs
	}

	var resp struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   struct {
				ID     string `json:"id"`
				Number int    `json:"number"`
				URL    string `json:"url"`
				Title  string `json:"title"`
			} `json:"issue"`
		} `json:"issueCreate"`
	}
	mutation := `mutation($input: IssueCreateInput!) {
		issueCreate(input: $input) { success issue { id number url title } }
	}`
	err := c.do(ctx, mutation, map[string]interface{}{"input": input}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to create Linear issue: %w", err)
	}
	if !resp.IssueCreate.Success {
		return nil, fmt.Errorf("Linear rejected the issue creation")
	}

	issue := resp.IssueCreate.Issue
	log.Info().Str("issue", issue.ID).Int("number", issue.Number).Msg("Created Linear ticket")
	return &report.TicketRef{
		ID:     issue.ID,
		Number: issue.Number,
		URL:    issue.URL,
		Title:  issue.Title,
	}, nil
}

// do executes a single GraphQL request and decodes the data field into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Linear API returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("Linear API error: %s", envelope.Errors[0].Message)
	}

	return json.Unmarshal(envelope.Data, out)
}
