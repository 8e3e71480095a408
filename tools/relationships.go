package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (t *Toolset) registerRelationshipTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("asana_add_task_dependencies",
		mcp.WithDescription("Mark tasks that this task depends on"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("dependency_gids", mcp.Required(), mcp.Description("Comma-separated GIDs of dependency tasks")),
	), t.handleAddDependencies)

	s.AddTool(mcp.NewTool("asana_add_task_dependents",
		mcp.WithDescription("Mark tasks that depend on this task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("dependent_gids", mcp.Required(), mcp.Description("Comma-separated GIDs of dependent tasks")),
	), t.handleAddDependents)

	s.AddTool(mcp.NewTool("asana_remove_task_dependencies",
		mcp.WithDescription("Unlink tasks that this task depends on"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("dependency_gids", mcp.Required(), mcp.Description("Comma-separated GIDs of dependency tasks to remove")),
	), t.handleRemoveDependencies)

	s.AddTool(mcp.NewTool("asana_remove_task_dependents",
		mcp.WithDescription("Unlink tasks that depend on this task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("dependent_gids", mcp.Required(), mcp.Description("Comma-separated GIDs of dependent tasks to remove")),
	), t.handleRemoveDependents)

	s.AddTool(mcp.NewTool("asana_get_task_dependencies",
		mcp.WithDescription("List the tasks this task depends on"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
	), t.handleGetDependencies)

	s.AddTool(mcp.NewTool("asana_get_task_dependents",
		mcp.WithDescription("List the tasks that depend on this task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
	), t.handleGetDependents)

	s.AddTool(mcp.NewTool("asana_add_project_to_task",
		mcp.WithDescription("Add a task to a project, optionally into a section"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("section_gid", mcp.Description("Section to place the task in")),
	), t.handleAddProjectToTask)

	s.AddTool(mcp.NewTool("asana_remove_project_from_task",
		mcp.WithDescription("Remove a task from a project"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
	), t.handleRemoveProjectFromTask)

	s.AddTool(mcp.NewTool("asana_add_tag_to_task",
		mcp.WithDescription("Attach a tag to a task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("tag_gid", mcp.Required(), mcp.Description("Tag GID")),
	), t.handleAddTagToTask)

	s.AddTool(mcp.NewTool("asana_remove_tag_from_task",
		mcp.WithDescription("Remove a tag from a task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("tag_gid", mcp.Required(), mcp.Description("Tag GID")),
	), t.handleRemoveTagFromTask)
}

func (t *Toolset) handleAddDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	raw, err := request.RequireString("dependency_gids")
	if err != nil {
		return mcp.NewToolResultError("dependency_gids argument is required"), nil
	}
	gids := splitGIDs(raw)
	if len(gids) == 0 {
		return mcp.NewToolResultError("dependency_gids must contain at least one GID"), nil
	}

	err = client.AddDependencies(ctx, taskGID, gids)
	return apiResult(err, fmt.Sprintf("Added %d dependency(ies) to task %s.", len(gids), taskGID)), nil
}

func (t *Toolset) handleAddDependents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	raw, err := request.RequireString("dependent_gids")
	if err != nil {
		return mcp.NewToolResultError("dependent_gids argument is required"), nil
	}
	gids := splitGIDs(raw)
	if len(gids) == 0 {
		return mcp.NewToolResultError("dependent_gids must contain at least one GID"), nil
	}

	err = client.AddDependents(ctx, taskGID, gids)
	return apiResult(err, fmt.Sprintf("Added %d dependent(s) to task %s.", len(gids), taskGID)), nil
}

func (t *Toolset) handleRemoveDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	raw, err := request.RequireString("dependency_gids")
	if err != nil {
		return mcp.NewToolResultError("dependency_gids argument is required"), nil
	}
	gids := splitGIDs(raw)
	if len(gids) == 0 {
		return mcp.NewToolResultError("dependency_gids must contain at least one GID"), nil
	}

	err = client.RemoveDependencies(ctx, taskGID, gids)
	return apiResult(err, fmt.Sprintf("Removed %d dependency(ies) from task %s.", len(gids), taskGID)), nil
}

func (t *Toolset) handleRemoveDependents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	raw, err := request.RequireString("dependent_gids")
	if err != nil {
		return mcp.NewToolResultError("dependent_gids argument is required"), nil
	}
	gids := splitGIDs(raw)
	if len(gids) == 0 {
		return mcp.NewToolResultError("dependent_gids must contain at least one GID"), nil
	}

	err = client.RemoveDependents(ctx, taskGID, gids)
	return apiResult(err, fmt.Sprintf("Removed %d dependent(s) from task %s.", len(gids), taskGID)), nil
}

func (t *Toolset) handleGetDependencies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	tasks, err := client.GetTaskDependencies(ctx, taskGID)
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleGetDependents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	tasks, err := client.GetTaskDependents(ctx, taskGID)
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleAddProjectToTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	err = client.AddProjectToTask(ctx, taskGID, projectGID, request.GetString("section_gid", ""))
	return apiResult(err, fmt.Sprintf("Added task %s to project %s.", taskGID, projectGID)), nil
}

func (t *Toolset) handleRemoveProjectFromTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	err = client.RemoveProjectFromTask(ctx, taskGID, projectGID)
	return apiResult(err, fmt.Sprintf("Removed task %s from project %s.", taskGID, projectGID)), nil
}

func (t *Toolset) handleAddTagToTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	tagGID, err := request.RequireString("tag_gid")
	if err != nil {
		return mcp.NewToolResultError("tag_gid argument is required"), nil
	}

	err = client.AddTagToTask(ctx, taskGID, tagGID)
	return apiResult(err, fmt.Sprintf("Added tag %s to task %s.", tagGID, taskGID)), nil
}

func (t *Toolset) handleRemoveTagFromTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	tagGID, err := request.RequireString("tag_gid")
	if err != nil {
		return mcp.NewToolResultError("tag_gid argument is required"), nil
	}

	err = client.RemoveTagFromTask(ctx, taskGID, tagGID)
	return apiResult(err, fmt.Sprintf("Removed tag %s from task %s.", tagGID, taskGID)), nil
}
