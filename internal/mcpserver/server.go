// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes sighting tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ashgrove/hauntmap/internal/models"
	"github.com/ashgrove/hauntmap/internal/table"
	"github.com/ashgrove/hauntmap/internal/view"
)

// Server wraps the MCP server with hauntmap tools.
type Server struct {
	mcp     *server.MCPServer
	session *view.Session
}

// New creates a new MCP server with all sighting tools registered.
func New(session *view.Session) *Server {
	s := &Server{session: session}

	s.mcp = server.NewMCPServer(
		"Hauntmap",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sighting_stats",
		mcp.WithDescription("Summary statistics over the loaded sightings: total count, most recent report, days since it, and the city with the most reports."),
	), s.sightingStats)

	s.mcp.AddTool(mcp.NewTool("query_sightings",
		mcp.WithDescription("Filter the sightings table by city, state, apparition tag, and time of day (case-insensitive substrings, combined with AND) and return one page of results."),
		mcp.WithString("city", mcp.Description("City substring filter")),
		mcp.WithString("state", mcp.Description("State substring filter")),
		mcp.WithString("tag", mcp.Description("Apparition tag substring filter")),
		mcp.WithString("time_of_day", mcp.Description("Time-of-day substring filter")),
		mcp.WithNumber("page", mcp.Description("Page number (50 rows per page, defaults to 1)")),
	), s.querySightings)

	s.mcp.AddTool(mcp.NewTool("add_sighting",
		mcp.WithDescription("Submit a new ghost sighting report. The record is persisted to the shared store and appears in stats and table queries immediately."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date of the sighting (YYYY-MM-DD)")),
		mcp.WithNumber("latitude", mcp.Required(), mcp.Description("Latitude of the sighting")),
		mcp.WithNumber("longitude", mcp.Required(), mcp.Description("Longitude of the sighting")),
		mcp.WithString("city", mcp.Required(), mcp.Description("Nearest approximate city")),
		mcp.WithString("state", mcp.Required(), mcp.Description("US state")),
		mcp.WithString("notes", mcp.Required(), mcp.Description("Free-text description of the sighting")),
		mcp.WithString("time_of_day", mcp.Required(), mcp.Description("One of Dawn, Morning, Afternoon, Evening, Night, Midnight")),
		mcp.WithString("apparition_tag", mcp.Required(), mcp.Description("Category label for the apparition")),
		mcp.WithString("image_link", mcp.Description("Optional image URL")),
	), s.addSighting)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) sightingStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.session.Stats(time.Now()), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) querySightings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria := table.Criteria{
		City:          req.GetString("city", ""),
		State:         req.GetString("state", ""),
		ApparitionTag: req.GetString("tag", ""),
		TimeOfDay:     req.GetString("time_of_day", ""),
	}
	page := req.GetInt("page", 0)

	res := s.session.Table(criteria, page)
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addSighting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parsed, err := models.ParseDate(date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lat, err := req.RequireFloat("latitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lng, err := req.RequireFloat("longitude")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	city, err := req.RequireString("city")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := req.RequireString("state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := req.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeOfDay, err := req.RequireString("time_of_day")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, err := req.RequireString("apparition_tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	saved, err := s.session.Submit(ctx, models.FormData{
		Date:          parsed,
		Latitude:      lat,
		Longitude:     lng,
		City:          city,
		State:         state,
		Notes:         notes,
		TimeOfDay:     timeOfDay,
		ApparitionTag: tag,
		ImageLink:     req.GetString("image_link", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.MarshalIndent(saved, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
