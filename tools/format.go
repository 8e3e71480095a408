package tools

import (
	"fmt"
	"strings"

	"github.com/taskbridge/go-asana-broker/asana"
)

const notesPreviewLength = 200

// formatTask renders a single task for LLM consumption.
func formatTask(task asana.Task, detailed bool) string {
	var b strings.Builder

	name := task.Name
	if name == "" {
		name = "Untitled"
	}
	fmt.Fprintf(&b, "**%s** (GID: %s)\n", name, task.GID)

	if task.Completed {
		b.WriteString("  [x] Completed\n")
	} else {
		b.WriteString("  [ ] In Progress\n")
	}
	if task.DueOn != "" {
		fmt.Fprintf(&b, "  Due: %s\n", task.DueOn)
	}
	if task.Assignee != nil {
		fmt.Fprintf(&b, "  Assignee: %s\n", task.Assignee.Name)
	}
	if len(task.Projects) > 0 {
		fmt.Fprintf(&b, "  Projects: %s\n", joinNames(task.Projects))
	}
	if len(task.Tags) > 0 {
		fmt.Fprintf(&b, "  Tags: %s\n", joinNames(task.Tags))
	}

	if detailed {
		if task.Notes != "" {
			notes := task.Notes
			if len(notes) > notesPreviewLength {
				notes = notes[:notesPreviewLength] + "..."
			}
			fmt.Fprintf(&b, "  Notes: %s\n", notes)
		}
		if task.CreatedAt != "" {
			fmt.Fprintf(&b, "  Created: %s\n", task.CreatedAt)
		}
		if task.ModifiedAt != "" {
			fmt.Fprintf(&b, "  Modified: %s\n", task.ModifiedAt)
		}
		if task.PermalinkURL != "" {
			fmt.Fprintf(&b, "  Link: %s\n", task.PermalinkURL)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatTasks renders a task list with a count header.
func formatTasks(tasks []asana.Task) string {
	if len(tasks) == 0 {
		return "No tasks found."
	}
	parts := make([]string, 0, len(tasks)+1)
	parts = append(parts, fmt.Sprintf("Found %d task(s):", len(tasks)))
	for _, task := range tasks {
		parts = append(parts, formatTask(task, false))
	}
	return strings.Join(parts, "\n\n")
}

func formatProject(project asana.Project, detailed bool) string {
	var b strings.Builder

	name := project.Name
	if name == "" {
		name = "Untitled"
	}
	fmt.Fprintf(&b, "**%s** (GID: %s)\n", name, project.GID)

	if project.Archived {
		b.WriteString("  Archived\n")
	}
	if project.DueOn != "" {
		fmt.Fprintf(&b, "  Due: %s\n", project.DueOn)
	}
	if project.Owner != nil {
		fmt.Fprintf(&b, "  Owner: %s\n", project.Owner.Name)
	}
	if detailed {
		if project.Notes != "" {
			notes := project.Notes
			if len(notes) > notesPreviewLength {
				notes = notes[:notesPreviewLength] + "..."
			}
			fmt.Fprintf(&b, "  Notes: %s\n", notes)
		}
		if project.PermalinkURL != "" {
			fmt.Fprintf(&b, "  Link: %s\n", project.PermalinkURL)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatProjects(projects []asana.Project) string {
	if len(projects) == 0 {
		return "No projects found."
	}
	parts := make([]string, 0, len(projects)+1)
	parts = append(parts, fmt.Sprintf("Found %d project(s):", len(projects)))
	for _, p := range projects {
		parts = append(parts, formatProject(p, false))
	}
	return strings.Join(parts, "\n\n")
}

func formatSections(sections []asana.Section) string {
	if len(sections) == 0 {
		return "No sections found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d section(s):\n", len(sections))
	for _, s := range sections {
		fmt.Fprintf(&b, "- %s (GID: %s)\n", s.Name, s.GID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSection(s asana.Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Section: %s\nGID: %s\n", s.Name, s.GID)
	project := "Unknown"
	if s.Project != nil && s.Project.Name != "" {
		project = s.Project.Name
	}
	fmt.Fprintf(&b, "Project: %s\n", project)
	if s.CreatedAt != "" {
		fmt.Fprintf(&b, "Created: %s\n", s.CreatedAt)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatProjectStatuses(statuses []asana.ProjectStatus) string {
	if len(statuses) == 0 {
		return "No project status updates found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d status update(s):\n", len(statuses))
	for _, st := range statuses {
		color := st.Color
		if color == "" {
			color = "blue"
		}
		author := "Unknown"
		if st.CreatedBy != nil {
			author = st.CreatedBy.Name
		}
		fmt.Fprintf(&b, "- [%s] %s by %s on %s\n", color, st.Title, author, st.CreatedAt)
		if st.Text != "" {
			text := st.Text
			if len(text) > notesPreviewLength {
				text = text[:notesPreviewLength] + "..."
			}
			fmt.Fprintf(&b, "  %s\n", text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStories(stories []asana.Story) string {
	if len(stories) == 0 {
		return "No comments or activity found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d story(ies):\n", len(stories))
	for _, st := range stories {
		author := "system"
		if st.CreatedBy != nil {
			author = st.CreatedBy.Name
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", st.CreatedAt, author, st.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatWorkspaces(workspaces []asana.Workspace) string {
	if len(workspaces) == 0 {
		return "No workspaces found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d workspace(s):\n", len(workspaces))
	for _, w := range workspaces {
		kind := "workspace"
		if w.IsOrganization {
			kind = "organization"
		}
		fmt.Fprintf(&b, "- %s (GID: %s, %s)\n", w.Name, w.GID, kind)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTags(tags []asana.Tag) string {
	if len(tags) == 0 {
		return "No tags found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d tag(s):\n", len(tags))
	for _, tag := range tags {
		fmt.Fprintf(&b, "- %s (GID: %s)\n", tag.Name, tag.GID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinNames(refs []asana.NamedRef) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}

// splitGIDs parses a comma-separated GID list argument.
func splitGIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
