package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (t *Toolset) registerTaskTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("asana_create_task",
		mcp.WithDescription("Create a new task in a project or workspace"),
		sessionArg(),
		mcp.WithString("name", mcp.Required(), mcp.Description("Task name")),
		mcp.WithString("workspace_gid", mcp.Description("Workspace GID (required when no project is given)")),
		mcp.WithString("project_gid", mcp.Description("Project to add the task to")),
		mcp.WithString("notes", mcp.Description("Task description")),
		mcp.WithString("due_on", mcp.Description("Due date (YYYY-MM-DD)")),
		mcp.WithString("assignee", mcp.Description("Assignee GID or 'me'")),
	), t.handleCreateTask)

	s.AddTool(mcp.NewTool("asana_get_task",
		mcp.WithDescription("Get detailed information about a task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
	), t.handleGetTask)

	s.AddTool(mcp.NewTool("asana_update_task",
		mcp.WithDescription("Update an existing task's fields"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("name", mcp.Description("New task name")),
		mcp.WithString("notes", mcp.Description("New task description")),
		mcp.WithString("due_on", mcp.Description("New due date (YYYY-MM-DD)")),
		mcp.WithString("assignee", mcp.Description("New assignee GID")),
		mcp.WithBoolean("completed", mcp.Description("Mark task complete or incomplete")),
	), t.handleUpdateTask)

	s.AddTool(mcp.NewTool("asana_delete_task",
		mcp.WithDescription("Delete a task permanently"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
	), t.handleDeleteTask)

	s.AddTool(mcp.NewTool("asana_search_tasks",
		mcp.WithDescription("Search tasks in a workspace by text"),
		sessionArg(),
		mcp.WithString("workspace_gid", mcp.Required(), mcp.Description("Workspace GID")),
		mcp.WithString("text", mcp.Description("Text to search for in task names and notes")),
		mcp.WithBoolean("completed", mcp.Description("Filter by completion state")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), t.handleSearchTasks)

	s.AddTool(mcp.NewTool("asana_get_task_stories",
		mcp.WithDescription("Get comments and activity for a task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
	), t.handleGetTaskStories)

	s.AddTool(mcp.NewTool("asana_create_task_story",
		mcp.WithDescription("Add a comment to a task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Comment text")),
	), t.handleCreateTaskStory)

	s.AddTool(mcp.NewTool("asana_create_subtask",
		mcp.WithDescription("Create a subtask under a parent task"),
		sessionArg(),
		mcp.WithString("parent_gid", mcp.Required(), mcp.Description("Parent task GID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Subtask name")),
		mcp.WithString("notes", mcp.Description("Subtask description")),
		mcp.WithString("due_on", mcp.Description("Due date (YYYY-MM-DD)")),
	), t.handleCreateSubtask)

	s.AddTool(mcp.NewTool("asana_get_subtasks",
		mcp.WithDescription("List the subtasks of a task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
	), t.handleGetSubtasks)

	s.AddTool(mcp.NewTool("asana_get_multiple_tasks_by_gid",
		mcp.WithDescription("Fetch up to 25 tasks by their GIDs"),
		sessionArg(),
		mcp.WithString("task_gids", mcp.Required(), mcp.Description("Comma-separated task GIDs (max 25)")),
	), t.handleGetMultipleTasks)

	s.AddTool(mcp.NewTool("asana_get_tasks_from_project",
		mcp.WithDescription("List tasks in a project"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), t.handleGetTasksFromProject)

	s.AddTool(mcp.NewTool("asana_get_tasks_from_section",
		mcp.WithDescription("List tasks in a section"),
		sessionArg(),
		mcp.WithString("section_gid", mcp.Required(), mcp.Description("Section GID")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of results (default 50)")),
	), t.handleGetTasksFromSection)

	s.AddTool(mcp.NewTool("asana_duplicate_task",
		mcp.WithDescription("Duplicate a task with its properties"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID to duplicate")),
		mcp.WithString("name", mcp.Description("Name for the duplicated task (default: 'Copy of [original name]')")),
		mcp.WithString("include", mcp.Description("Comma-separated properties to carry over (notes,assignee,subtasks,attachments,tags,followers,projects,dates)")),
	), t.handleDuplicateTask)

	s.AddTool(mcp.NewTool("asana_set_parent_for_task",
		mcp.WithDescription("Set or clear the parent of a task"),
		sessionArg(),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
		mcp.WithString("parent_gid", mcp.Description("New parent task GID; omit to clear")),
	), t.handleSetParent)
}

const taskOptFields = "name,notes,completed,due_on,assignee.name,projects.name,tags.name,permalink_url,created_at,modified_at"

func (t *Toolset) handleCreateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}

	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}

	fields := map[string]interface{}{"name": name}
	if notes := request.GetString("notes", ""); notes != "" {
		fields["notes"] = notes
	}
	if dueOn := request.GetString("due_on", ""); dueOn != "" {
		fields["due_on"] = dueOn
	}
	if assignee := request.GetString("assignee", ""); assignee != "" {
		fields["assignee"] = assignee
	}
	if projectGID := request.GetString("project_gid", ""); projectGID != "" {
		fields["projects"] = []string{projectGID}
	} else if workspaceGID := request.GetString("workspace_gid", ""); workspaceGID != "" {
		fields["workspace"] = workspaceGID
	} else {
		return mcp.NewToolResultError("either project_gid or workspace_gid is required"), nil
	}

	task, err := client.CreateTask(ctx, fields)
	return apiResult(err, "Created task:\n"+formatTask(task, true)), nil
}

func (t *Toolset) handleGetTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	task, err := client.GetTask(ctx, taskGID, taskOptFields)
	return apiResult(err, formatTask(task, true)), nil
}

func (t *Toolset) handleUpdateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	fields := map[string]interface{}{}
	if name := request.GetString("name", ""); name != "" {
		fields["name"] = name
	}
	if notes := request.GetString("notes", ""); notes != "" {
		fields["notes"] = notes
	}
	if dueOn := request.GetString("due_on", ""); dueOn != "" {
		fields["due_on"] = dueOn
	}
	if assignee := request.GetString("assignee", ""); assignee != "" {
		fields["assignee"] = assignee
	}
	if _, present := request.GetArguments()["completed"]; present {
		fields["completed"] = request.GetBool("completed", false)
	}
	if len(fields) == 0 {
		return mcp.NewToolResultError("no fields to update"), nil
	}

	task, err := client.UpdateTask(ctx, taskGID, fields)
	return apiResult(err, "Updated task:\n"+formatTask(task, true)), nil
}

func (t *Toolset) handleDeleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	err = client.DeleteTask(ctx, taskGID)
	return apiResult(err, fmt.Sprintf("Deleted task %s.", taskGID)), nil
}

func (t *Toolset) handleSearchTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	workspaceGID, err := request.RequireString("workspace_gid")
	if err != nil {
		return mcp.NewToolResultError("workspace_gid argument is required"), nil
	}

	params := url.Values{}
	params.Set("opt_fields", taskOptFields)
	if text := request.GetString("text", ""); text != "" {
		params.Set("text", text)
	}
	if _, present := request.GetArguments()["completed"]; present {
		params.Set("completed", fmt.Sprintf("%t", request.GetBool("completed", false)))
	}
	maxResults := request.GetInt("max_results", 50)

	tasks, err := client.SearchTasks(ctx, workspaceGID, params, maxResults)
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleGetTaskStories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	stories, err := client.GetTaskStories(ctx, taskGID)
	return apiResult(err, formatStories(stories)), nil
}

func (t *Toolset) handleCreateTaskStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required"), nil
	}

	story, err := client.CreateTaskStory(ctx, taskGID, text)
	return apiResult(err, fmt.Sprintf("Added comment (GID: %s).", story.GID)), nil
}

func (t *Toolset) handleCreateSubtask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	parentGID, err := request.RequireString("parent_gid")
	if err != nil {
		return mcp.NewToolResultError("parent_gid argument is required"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}

	fields := map[string]interface{}{"name": name}
	if notes := request.GetString("notes", ""); notes != "" {
		fields["notes"] = notes
	}
	if dueOn := request.GetString("due_on", ""); dueOn != "" {
		fields["due_on"] = dueOn
	}

	task, err := client.CreateSubtask(ctx, parentGID, fields)
	return apiResult(err, "Created subtask:\n"+formatTask(task, true)), nil
}

func (t *Toolset) handleGetSubtasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	tasks, err := client.GetSubtasks(ctx, taskGID, taskOptFields)
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleGetMultipleTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	raw, err := request.RequireString("task_gids")
	if err != nil {
		return mcp.NewToolResultError("task_gids argument is required"), nil
	}
	gids := splitGIDs(raw)
	if len(gids) == 0 {
		return mcp.NewToolResultError("task_gids must contain at least one GID"), nil
	}

	tasks, err := client.GetMultipleTasks(ctx, gids, taskOptFields)
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleGetTasksFromProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	tasks, err := client.GetTasksFromProject(ctx, projectGID, taskOptFields, request.GetInt("max_results", 50))
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleGetTasksFromSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	sectionGID, err := request.RequireString("section_gid")
	if err != nil {
		return mcp.NewToolResultError("section_gid argument is required"), nil
	}

	tasks, err := client.GetTasksFromSection(ctx, sectionGID, taskOptFields, request.GetInt("max_results", 50))
	return apiResult(err, formatTasks(tasks)), nil
}

func (t *Toolset) handleDuplicateTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	job, err := client.DuplicateTask(ctx, taskGID,
		request.GetString("name", ""),
		request.GetString("include", "notes,assignee,subtasks,tags,followers,projects,dates"))
	if err != nil {
		return apiResult(err, ""), nil
	}
	if job.NewTask != nil {
		return mcp.NewToolResultText("Task duplicated:\n" + formatTask(*job.NewTask, true)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task duplication started (job GID: %s).", job.GID)), nil
}

func (t *Toolset) handleSetParent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	task, err := client.SetParent(ctx, taskGID, request.GetString("parent_gid", ""))
	return apiResult(err, "Updated task:\n"+formatTask(task, true)), nil
}
