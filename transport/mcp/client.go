package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/padlink/padlink/session"
)

// Client is a thin MCP client that proxies to the REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"PadLink Relay",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`PadLink Relay - MCP Interface

This is a thin client that proxies all requests to the REST API server.

The relay pairs a desktop display with phone controllers into sessions and
forwards control and score events between them over WebSockets.

AVAILABLE TOOLS:
- create_session: Create a new pairing session
- get_session: Get status and members of a session
- list_sessions: List all live sessions`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new pairing session and return its ID and join address",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the status and member list of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live pairing sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)
}

// GetMCPServer returns the underlying MCP server for serving over HTTP or
// stdio.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var created struct {
		SessionID string `json:"sessionId"`
		IP        string `json:"ip"`
		Port      int    `json:"port"`
	}
	if err := c.apiCall("POST", "/api/session", nil, &created); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nDisplay client: http://%s:%d\n",
		created.SessionID, created.IP, created.Port)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var sess session.Session
	if err := c.apiCall("GET", "/api/sessions/"+sessionID, nil, &sess); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\nStatus: %s\nMembers: %d\n", sess.ID, sess.Status, len(sess.Members))
	for _, m := range sess.Members {
		if m.Name != "" {
			fmt.Fprintf(&sb, "  - %s (%s)\n", m.Name, m.Role)
		} else {
			fmt.Fprintf(&sb, "  - %s\n", m.Role)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var listing struct {
		Count    int               `json:"count"`
		Sessions []session.Session `json:"sessions"`
	}
	if err := c.apiCall("GET", "/api/sessions", nil, &listing); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if listing.Count == 0 {
		return mcp.NewToolResultText("No live sessions"), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Live sessions: %d\n", listing.Count)
	for _, sess := range listing.Sessions {
		fmt.Fprintf(&sb, "  %s  status=%s members=%d\n", sess.ID, sess.Status, len(sess.Members))
	}
	return mcp.NewToolResultText(sb.String()), nil
}
