package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (t *Toolset) registerSectionTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("asana_get_project_sections",
		mcp.WithDescription("List the sections of a project"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
	), t.handleGetProjectSections)

	s.AddTool(mcp.NewTool("asana_create_section",
		mcp.WithDescription("Create a section in a project"),
		sessionArg(),
		mcp.WithString("project_gid", mcp.Required(), mcp.Description("Project GID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Section name")),
	), t.handleCreateSection)

	s.AddTool(mcp.NewTool("asana_get_section",
		mcp.WithDescription("Get detailed information about a section"),
		sessionArg(),
		mcp.WithString("section_gid", mcp.Required(), mcp.Description("Section GID")),
	), t.handleGetSection)

	s.AddTool(mcp.NewTool("asana_update_section",
		mcp.WithDescription("Rename a section"),
		sessionArg(),
		mcp.WithString("section_gid", mcp.Required(), mcp.Description("Section GID")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New section name")),
	), t.handleUpdateSection)

	s.AddTool(mcp.NewTool("asana_delete_section",
		mcp.WithDescription("Delete a section"),
		sessionArg(),
		mcp.WithString("section_gid", mcp.Required(), mcp.Description("Section GID")),
	), t.handleDeleteSection)

	s.AddTool(mcp.NewTool("asana_add_task_to_section",
		mcp.WithDescription("Move a task into a section"),
		sessionArg(),
		mcp.WithString("section_gid", mcp.Required(), mcp.Description("Section GID")),
		mcp.WithString("task_gid", mcp.Required(), mcp.Description("Task GID")),
	), t.handleAddTaskToSection)
}

func (t *Toolset) handleGetProjectSections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	projectGID, err := request.RequireString("project_gid")
	if err != nil {
		return mcp.NewToolResultError("project_gid argument is required"), nil
	}

	sections, err := client.GetProjectSections(ctx, projectGID)
	return apiResult(err, formatSections(sections)), nil
}

func (t *Toolset) handleCreateSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	section, err := client.CreateSection(ctx, projectGID, name)
	return apiResult(err, fmt.Sprintf("Created section %s (GID: %s).", section.Name, section.GID)), nil
}

func (t *Toolset) handleGetSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	sectionGID, err := request.RequireString("section_gid")
	if err != nil {
		return mcp.NewToolResultError("section_gid argument is required"), nil
	}

	section, err := client.GetSection(ctx, sectionGID, "name,project.name,created_at")
	return apiResult(err, formatSection(section)), nil
}

func (t *Toolset) handleUpdateSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	sectionGID, err := request.RequireString("section_gid")
	if err != nil {
		return mcp.NewToolResultError("section_gid argument is required"), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}

	section, err := client.UpdateSection(ctx, sectionGID, name)
	return apiResult(err, fmt.Sprintf("Renamed section to %s (GID: %s).", section.Name, section.GID)), nil
}

func (t *Toolset) handleDeleteSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	sectionGID, err := request.RequireString("section_gid")
	if err != nil {
		return mcp.NewToolResultError("section_gid argument is required"), nil
	}

	err = client.DeleteSection(ctx, sectionGID)
	return apiResult(err, fmt.Sprintf("Deleted section %s.", sectionGID)), nil
}

func (t *Toolset) handleAddTaskToSection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, _, errResult := t.clientFor(ctx, request)
	if errResult != nil {
		return errResult, nil
	}
	sectionGID, err := request.RequireString("section_gid")
	if err != nil {
		return mcp.NewToolResultError("section_gid argument is required"), nil
	}
	taskGID, err := request.RequireString("task_gid")
	if err != nil {
		return mcp.NewToolResultError("task_gid argument is required"), nil
	}

	err = client.AddTaskToSection(ctx, sectionGID, taskGID)
	return apiResult(err, fmt.Sprintf("Moved task %s into section %s.", taskGID, sectionGID)), nil
}
