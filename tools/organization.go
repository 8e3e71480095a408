package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (t *Toolset) registerOrganizationTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("asana_list_workspaces",
		mcp.WithDescription("List the workspaces visible to the authenticated user"),
		sessionArg(),
	), t.handleListWorkspaces)

	s.AddTool(mcp.NewTool("asana_get_tags_for_workspace",
		mcp.WithDescription("List the tags in a workspace"),
		sessionArg(),
		mcp.WithString("workspace_gid", mcp.Required(), mcp.Description("Workspace GID")),
	), t.handleGetTags)

	s.AddTool(mcp.NewTool("asana_get_tasks_for_tag",
		mcp.WithDescription("List the tasks carrying a tag"),
		sessionArg(),
		mcp.WithString("tag_gid", mcp.Required(), mcp.Description("Tag GID")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), t.handleGetTasksForTag)

	s.AddTool(mcp.NewTool("asana_whoami",
		mcp.WithDescription("Show the authenticated user and session status"),
		sessionArg(),
	), t.handleWhoAmI)
}

func (t *Toolset) handleListWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	workspaces, err := client.GetWorkspaces(ctx)
	return apiResult(err, formatWorkspaces(workspaces)), nil
}

func (t *Toolset) handleGetTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	workspaceGID, err := request.RequireString("workspace_gid")
	if err != nil {
		return mcp.NewToolResultError("workspace_gid argument is required"), nil
	}

	tags, err := client.GetTags(ctx, workspaceGID)
	return apiResult(err, formatTags(tags)), nil
}

func (t *Toolset) handleGetTasksForTag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	tagGID, err := request.RequireString("tag_gid")
	if err != nil {
		return mcp.NewToolResultError("tag_gid argument is required"), nil
	}

	tasks, err := client.GetTasksForTag(ctx, tagGID, request.GetInt("max_results", 50))
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleWhoAmI(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, sessionID, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	snap, err := t.auth.Snapshot(sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Session lookup failed: %v", err)), nil
	}
	if snap.User == nil {
		return mcp.NewToolResultText("Authenticated, but no user identity is recorded for this session."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Authenticated as %s (GID: %s, email: %s).\nSession state: %s.",
		snap.User.Name, snap.User.GID, snap.User.Email, snap.State)), nil
}
