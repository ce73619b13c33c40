package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// fakeLinear answers team discovery, label listing, and issue creation.
type fakeLinear struct {
	createInputs []map[string]interface{}
	labelNames   []string
	teamsFail    bool
	labelsFail   bool
}

func (f *fakeLinear) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		switch {
		case strings.Contains(req.Query, "teams("):
			if f.teamsFail {
				http.Error(w, "upstream error", http.StatusInternalServerError)
				return
			}
			writeData(w, `{"teams": {"nodes": [{"id": "team_1"}]}}`)
		case strings.Contains(req.Query, "team("):
			if f.labelsFail {
				http.Error(w, "upstream error", http.StatusInternalServerError)
				return
			}
			var nodes []map[string]string
			for i, name := range f.labelNames {
				nodes = append(nodes, map[string]string{"id": "label_" + string(rune('a'+i)), "name": name})
			}
			payload, _ := json.Marshal(map[string]interface{}{
				"team": map[string]interface{}{"labels": map[string]interface{}{"nodes": nodes}},
			})
			writeData(w, string(payload))
		case strings.Contains(req.Query, "issueCreate"):
			input, _ := req.Variables["input"].(map[string]interface{})
			f.createInputs = append(f.createInputs, input)
			writeData(w, `{"issueCreate": {"success": true, "issue": {"id": "iss_1", "number": 42, "url": "https://linear.app/team/issue/42", "title": "Login button unresponsive"}}}`)
		default:
			http.Error(w, "unexpected query", http.StatusBadRequest)
		}
	}
}

func writeData(w http.ResponseWriter, data string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"data": ` + data + `}`))
}

func sampleTicketReport() report.StructuredReport {
	return report.StructuredReport{
		Title:              "Login button unresponsive",
		SuspectedRootCause: "Handler detaches on unmount",
		Evidence:           []string{"src/auth/login.ts:42 uses a stale ref"},
		NextSteps:          []string{"Attach handler after mount"},
	}
}

func TestPublishTicketWithDiscoveredTeam(t *testing.T) {
	fake := &fakeLinear{labelNames: []string{"Bug", "Feature"}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New("lin_api_key", "").WithEndpoint(srv.URL)
	ticket, err := c.PublishTicket(context.Background(), sampleTicketReport(), "# markdown", []string{"src/auth/login.ts"}, nil)

	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, "iss_1", ticket.ID)
	assert.Equal(t, 42, ticket.Number)
	assert.Equal(t, "https://linear.app/team/issue/42", ticket.URL)

	require.Len(t, fake.createInputs, 1)
	input := fake.createInputs[0]
	assert.Equal(t, "team_1", input["teamId"])
	assert.Contains(t, input["description"], "## Files Examined")

	labels, _ := input["labelIds"].([]interface{})
	assert.Len(t, labels, 1, "only the bug label applies to a non-critical report")
}

func TestPublishTicketPriorityLabelOnCrash(t *testing.T) {
	fake := &fakeLinear{labelNames: []string{"Bug", "Urgent"}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	r := sampleTicketReport()
	r.SuspectedRootCause = "A crash in the session refresh path"

	c := New("lin_api_key", "team_custom").WithEndpoint(srv.URL)
	_, err := c.PublishTicket(context.Background(), r, "# markdown", nil, nil)

	require.NoError(t, err)
	require.Len(t, fake.createInputs, 1)
	labels, _ := fake.createInputs[0]["labelIds"].([]interface{})
	assert.Len(t, labels, 2)
}

func TestPublishTicketTeamDiscoveryFailureReturnsNil(t *testing.T) {
	fake := &fakeLinear{teamsFail: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New("lin_api_key", "").WithEndpoint(srv.URL)
	ticket, err := c.PublishTicket(context.Background(), sampleTicketReport(), "# markdown", nil, nil)

	assert.NoError(t, err)
	assert.Nil(t, ticket)
	assert.Empty(t, fake.createInputs)
}

func TestPublishTicketLabelFailureProceedsWithoutLabels(t *testing.T) {
	fake := &fakeLinear{labelsFail: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New("lin_api_key", "team_1").WithEndpoint(srv.URL)
	ticket, err := c.PublishTicket(context.Background(), sampleTicketReport(), "# markdown", nil, nil)

	require.NoError(t, err)
	require.NotNil(t, ticket)
	require.Len(t, fake.createInputs, 1)
	_, hasLabels := fake.createInputs[0]["labelIds"]
	assert.False(t, hasLabels)
}

func TestPublishTicketScreenshotsSection(t *testing.T) {
	fake := &fakeLinear{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New("lin_api_key", "team_1").WithEndpoint(srv.URL)
	_, err := c.PublishTicket(context.Background(), sampleTicketReport(), "# markdown", nil,
		[]string{"https://example.com/shot.png"})

	require.NoError(t, err)
	require.Len(t, fake.createInputs, 1)
	assert.Contains(t, fake.createInputs[0]["description"], "## Screenshots")
}
