package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (t *Toolset) registerProjectTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("asana_search_projects",
		mcp.WithDescription("List projects in a workspace"),
		sessionArg(),
		mcp.WithString("workspace_gid", mcp.Required(), mcp.Description("Workspace GID")),
		mcp.WithBoolean("archived", mcp.Description("Include archived projects")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), t.handleSearchProjects)

	s.AddTool(mcp.NewTool("asana_get_project",
		mcp.WithDescription("Get detailed information about a project"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
	), t.handleGetProject)

	s.AddTool(mcp.NewTool("asana_create_project",
		mcp.WithDescription("Create a new project in a workspace"),
		sessionArg(),
		mcp.WithString("workspace_gid", mcp.Required(), mcp.Description("Workspace GID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
		mcp.WithString("notes", mcp.Description("Project description")),
		mcp.WithString("color", mcp.Description("Project color (e.g. light-green)")),
	), t.handleCreateProject)

	s.AddTool(mcp.NewTool("asana_update_project",
		mcp.WithDescription("Update an existing project's fields"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("name", mcp.Description("New project name")),
		mcp.WithString("notes", mcp.Description("New project description")),
		mcp.WithString("color", mcp.Description("New project color")),
		mcp.WithBoolean("archived", mcp.Description("Archive or unarchive the project")),
	), t.handleUpdateProject)

	s.AddTool(mcp.NewTool("asana_delete_project",
		mcp.WithDescription("Delete a project permanently"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
	), t.handleDeleteProject)

	s.AddTool(mcp.NewTool("asana_get_project_task_counts",
		mcp.WithDescription("Get task count totals for a project"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
	), t.handleGetProjectTaskCounts)

	s.AddTool(mcp.NewTool("asana_duplicate_project",
		mcp.WithDescription("Duplicate a project with its structure and optionally its tasks"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID to duplicate")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name for the duplicated project")),
		mcp.WithString("include", mcp.Description("Comma-separated properties to carry over (forms,notes,members,task_notes,task_assignee,task_subtasks,task_attachments,task_dates,task_dependencies,task_followers,task_tags,task_projects)")),
		mcp.WithString("schedule_dates_due_on", mcp.Description("Due date for the duplicated project (YYYY-MM-DD)")),
		mcp.WithString("schedule_dates_start_on", mcp.Description("Start date for the duplicated project (YYYY-MM-DD)")),
	), t.handleDuplicateProject)

	s.AddTool(mcp.NewTool("asana_get_project_statuses",
		mcp.WithDescription("List status updates posted on a project"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
	), t.handleGetProjectStatuses)

	s.AddTool(mcp.NewTool("asana_create_project_status",
		mcp.WithDescription("Post a status update on a project (color: green=on track, yellow=at risk, red=off track, blue=complete)"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Status update title")),
		mcp.WithString("text", mcp.Description("Status update body")),
		mcp.WithString("color", mcp.Description("green, yellow, red or blue (default blue)")),
	), t.handleCreateProjectStatus)
}

const projectOptFields = "name,notes,color,archived,due_on,owner.name,workspace.name,permalink_url"

func (t *Toolset) handleSearchProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	workspaceGID, err := request.RequireString("workspace_gid")
	if err != nil {
		return mcp.NewToolResultError("workspace_gid argument is required"), nil
	}

	projects, err := client.GetProjects(ctx, workspaceGID,
		request.GetBool("archived", false), request.GetInt("max_results", 50))
	return apiResult(err, formatProjects(projects)), nil
}

func (t *Toolset) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	project, err := client.GetProject(ctx, projectGID, projectOptFields)
	return apiResult(err, formatProject(project, true)), nil
}

func (t *Toolset) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	workspaceGID, err := request.RequireString("workspace_gid")
	if err != nil {
		return mcp.NewToolResultError("workspace_gid argument is required"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}

	fields := map[string]interface{}{
		"workspace": workspaceGID,
		"name":      name,
	}
	if notes := request.GetString("notes", ""); notes != "" {
		fields["notes"] = notes
	}
	if color := request.GetString("color", ""); color != "" {
		fields["color"] = color
	}

	project, err := client.CreateProject(ctx, fields)
	return apiResult(err, "Created project:\n"+formatProject(project, true)), nil
}

func (t *Toolset) handleUpdateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	fields := map[string]interface{}{}
	if name := request.GetString("name", ""); name != "" {
		fields["name"] = name
	}
	if notes := request.GetString("notes", ""); notes != "" {
		fields["notes"] = notes
	}
	if color := request.GetString("color", ""); color != "" {
		fields["color"] = color
	}
	if _, present := request.GetArguments()["archived"]; present {
		fields["archived"] = request.GetBool("archived", false)
	}
	if len(fields) == 0 {
		return mcp.NewToolResultError("no fields to update"), nil
	}

	project, err := client.UpdateProject(ctx, projectGID, fields)
	return apiResult(err, "Updated project:\n"+formatProject(project, true)), nil
}

func (t *Toolset) handleDeleteProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	err = client.DeleteProject(ctx, projectGID)
	return apiResult(err, fmt.Sprintf("Deleted project %s.", projectGID)), nil
}

func (t *Toolset) handleDuplicateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}

	scheduleDates := map[string]string{}
	if dueOn := request.GetString("schedule_dates_due_on", ""); dueOn != "" {
		scheduleDates["due_on"] = dueOn
	}
	if startOn := request.GetString("schedule_dates_start_on", ""); startOn != "" {
		scheduleDates["start_on"] = startOn
	}

	job, err := client.DuplicateProject(ctx, projectGID, name,
		request.GetString("include", "notes,members,task_notes"), scheduleDates)
	if err != nil {
		return apiResult(err, ""), nil
	}
	if job.NewProject != nil {
		return mcp.NewToolResultText("Project duplicated:\n" + formatProject(*job.NewProject, true)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Project duplication started (job GID: %s).", job.GID)), nil
}

func (t *Toolset) handleGetProjectStatuses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	statuses, err := client.GetProjectStatuses(ctx, projectGID, "title,text,color,created_at,created_by.name")
	return apiResult(err, formatProjectStatuses(statuses)), nil
}

func (t *Toolset) handleCreateProjectStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required"), nil
	}

	fields := map[string]interface{}{
		"title": title,
		"color": request.GetString("color", "blue"),
	}
	if text := request.GetString("text", ""); text != "" {
		fields["text"] = text
	}

	status, err := client.CreateProjectStatus(ctx, projectGID, fields)
	return apiResult(err, fmt.Sprintf("Created project status [%s] %s.", status.Color, status.Title)), nil
}

func (t *Toolset) handleGetProjectTaskCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	counts, err := client.GetProjectTaskCounts(ctx, projectGID)
	return apiResult(err, fmt.Sprintf(
		"Task counts:\n- Total: %d\n- Incomplete: %d\n- Completed: %d\n- Milestones: %d",
		counts.NumTasks, counts.NumIncompleteTasks, counts.NumCompletedTasks, counts.NumMilestones)), nil
}
