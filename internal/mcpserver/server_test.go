package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/testutil"
	"github.com/ashgrove/hauntmap/internal/view"
)

func testServer(t *testing.T, seed ...models.Sighting) *Server {
	t.Helper()

	st := testutil.TestStore(t)
	testutil.Seed(t, st, seed...)

	session := view.NewSession(st)
	if err := session.Load(context.Background(), models.LocationDrop); err != nil {
		t.Fatal(err)
	}
	return New(session)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper; invoke the handler
	// functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "sighting_stats":
		result, err = srv.sightingStats(ctx, req)
	case "query_sightings":
		result, err = srv.querySightings(ctx, req)
	case "add_sighting":
		result, err = srv.addSighting(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSightingStats(t *testing.T) {
	srv := testServer(t,
		testutil.Sighting(t, "2024-01-01", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-05", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-03", "Salem", "MA"),
	)

	r := callTool(t, srv, "sighting_stats", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, `"total": 3`) {
		t.Errorf("stats = %s", text)
	}
	if !strings.Contains(text, `"mostGhostlyCity": "Austin, TX"`) {
		t.Errorf("stats = %s", text)
	}
}

func TestQuerySightings(t *testing.T) {
	srv := testServer(t,
		testutil.Sighting(t, "2024-01-01", "Austin", "TX"),
		testutil.Sighting(t, "2024-01-02", "Salem", "MA"),
	)

	r := callTool(t, srv, "query_sightings", map[string]interface{}{"city": "salem"})
	text := resultText(r)
	if !strings.Contains(text, `"total": 1`) {
		t.Errorf("result = %s", text)
	}
	if !strings.Contains(text, "Salem") || strings.Contains(text, "Austin") {
		t.Errorf("result = %s", text)
	}
}

func TestAddSighting(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "add_sighting", map[string]interface{}{
		"date":           "2024-01-01",
		"latitude":       30.27,
		"longitude":      -97.74,
		"city":           "Austin",
		"state":          "TX",
		"notes":          "saw a shape",
		"time_of_day":    "Night",
		"apparition_tag": "Shadow Figure",
	})
	if r.IsError {
		t.Fatalf("add_sighting failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"city": "Austin"`) {
		t.Errorf("result = %s", resultText(r))
	}

	// The new record shows up in stats immediately.
	r = callTool(t, srv, "sighting_stats", map[string]interface{}{})
	if !strings.Contains(resultText(r), `"total": 1`) {
		t.Errorf("stats = %s", resultText(r))
	}
}

func TestAddSightingMissingArgument(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "add_sighting", map[string]interface{}{
		"date": "2024-01-01",
	})
	if !r.IsError {
		t.Error("expected error for missing arguments")
	}
}

func TestAddSightingBadDate(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "add_sighting", map[string]interface{}{
		"date":           "January 1st",
		"latitude":       30.27,
		"longitude":      -97.74,
		"city":           "Austin",
		"state":          "TX",
		"notes":          "saw a shape",
		"time_of_day":    "Night",
		"apparition_tag": "Shadow Figure",
	})
	if !r.IsError {
		t.Error("expected error for unparseable date")
	}
}
