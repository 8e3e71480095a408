package asana

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

func optFieldParams(optFields string) url.Values {
	params := url.Values{}
	if optFields != "" {
		params.Set("opt_fields", optFields)
	}
	return params
}

// --- Tasks ---

func (c *Client) CreateTask(ctx context.Context, fields map[string]interface{}) (Task, error) {
	return mutate[Task](ctx, c, http.MethodPost, "/tasks", fields)
}

func (c *Client) GetTask(ctx context.Context, taskGID, optFields string) (Task, error) {
	return getOne[Task](ctx, c, "/tasks/"+taskGID, optFieldParams(optFields))
}

func (c *Client) UpdateTask(ctx context.Context, taskGID string, fields map[string]interface{}) (Task, error) {
	return mutate[Task](ctx, c, http.MethodPut, "/tasks/"+taskGID, fields)
}

func (c *Client) DeleteTask(ctx context.Context, taskGID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/tasks/"+taskGID, nil, nil)
	return err
}

// SearchTasks runs the workspace task search endpoint with arbitrary
// search parameters (text, assignee.any, completed, sort_by, ...).
func (c *Client) SearchTasks(ctx context.Context, workspaceGID string, params url.Values, maxResults int) ([]Task, error) {
	return getPaginated[Task](ctx, c, "/workspaces/"+workspaceGID+"/tasks/search", params, maxResults)
}

func (c *Client) CreateSubtask(ctx context.Context, parentGID string, fields map[string]interface{}) (Task, error) {
	return mutate[Task](ctx, c, http.MethodPost, "/tasks/"+parentGID+"/subtasks", fields)
}

func (c *Client) GetSubtasks(ctx context.Context, taskGID, optFields string) ([]Task, error) {
	return getPaginated[Task](ctx, c, "/tasks/"+taskGID+"/subtasks", optFieldParams(optFields), 0)
}

func (c *Client) GetTaskStories(ctx context.Context, taskGID string) ([]Story, error) {
	return getPaginated[Story](ctx, c, "/tasks/"+taskGID+"/stories", nil, 0)
}

func (c *Client) CreateTaskStory(ctx context.Context, taskGID, text string) (Story, error) {
	return mutate[Story](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/stories", map[string]interface{}{"text": text})
}

func (c *Client) GetTasksFromProject(ctx context.Context, projectGID, optFields string, maxResults int) ([]Task, error) {
	return getPaginated[Task](ctx, c, "/projects/"+projectGID+"/tasks", optFieldParams(optFields), maxResults)
}

func (c *Client) GetTasksFromSection(ctx context.Context, sectionGID, optFields string, maxResults int) ([]Task, error) {
	return getPaginated[Task](ctx, c, "/sections/"+sectionGID+"/tasks", optFieldParams(optFields), maxResults)
}

func (c *Client) SetParent(ctx context.Context, taskGID, parentGID string) (Task, error) {
	body := map[string]interface{}{"parent": parentGID}
	if parentGID == "" {
		body["parent"] = nil
	}
	return mutate[Task](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/setParent", body)
}

// DuplicateTask copies a task. include selects which properties carry over;
// an empty name defaults upstream to "Copy of [original name]".
func (c *Client) DuplicateTask(ctx context.Context, taskGID, name, include string) (Job, error) {
	body := map[string]interface{}{}
	if name != "" {
		body["name"] = name
	}
	if include != "" {
		body["include"] = include
	}
	return mutate[Job](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/duplicate", body)
}

// --- Task relationships ---

func (c *Client) AddDependencies(ctx context.Context, taskGID string, dependencyGIDs []string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/addDependencies",
		map[string]interface{}{"dependencies": dependencyGIDs})
	return err
}

func (c *Client) AddDependents(ctx context.Context, taskGID string, dependentGIDs []string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/addDependents",
		map[string]interface{}{"dependents": dependentGIDs})
	return err
}

func (c *Client) RemoveDependencies(ctx context.Context, taskGID string, dependencyGIDs []string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/removeDependencies",
		map[string]interface{}{"dependencies": dependencyGIDs})
	return err
}

func (c *Client) RemoveDependents(ctx context.Context, taskGID string, dependentGIDs []string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/removeDependents",
		map[string]interface{}{"dependents": dependentGIDs})
	return err
}

func (c *Client) GetTaskDependencies(ctx context.Context, taskGID string) ([]Task, error) {
	return getPaginated[Task](ctx, c, "/tasks/"+taskGID+"/dependencies", nil, 0)
}

func (c *Client) GetTaskDependents(ctx context.Context, taskGID string) ([]Task, error) {
	return getPaginated[Task](ctx, c, "/tasks/"+taskGID+"/dependents", nil, 0)
}

// AddProjectToTask places a task in a project, optionally into a section.
func (c *Client) AddProjectToTask(ctx context.Context, taskGID, projectGID, sectionGID string) error {
	body := map[string]interface{}{"project": projectGID}
	if sectionGID != "" {
		body["section"] = sectionGID
	}
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/addProject", body)
	return err
}

func (c *Client) RemoveProjectFromTask(ctx context.Context, taskGID, projectGID string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/removeProject",
		map[string]interface{}{"project": projectGID})
	return err
}

func (c *Client) AddTagToTask(ctx context.Context, taskGID, tagGID string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/addTag",
		map[string]interface{}{"tag": tagGID})
	return err
}

func (c *Client) RemoveTagFromTask(ctx context.Context, taskGID, tagGID string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/tasks/"+taskGID+"/removeTag",
		map[string]interface{}{"tag": tagGID})
	return err
}

// --- Projects ---

func (c *Client) CreateProject(ctx context.Context, fields map[string]interface{}) (Project, error) {
	return mutate[Project](ctx, c, http.MethodPost, "/projects", fields)
}

func (c *Client) GetProject(ctx context.Context, projectGID, optFields string) (Project, error) {
	return getOne[Project](ctx, c, "/projects/"+projectGID, optFieldParams(optFields))
}

func (c *Client) UpdateProject(ctx context.Context, projectGID string, fields map[string]interface{}) (Project, error) {
	return mutate[Project](ctx, c, http.MethodPut, "/projects/"+projectGID, fields)
}

func (c *Client) DeleteProject(ctx context.Context, projectGID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/projects/"+projectGID, nil, nil)
	return err
}

func (c *Client) GetProjects(ctx context.Context, workspaceGID string, archived bool, maxResults int) ([]Project, error) {
	params := url.Values{}
	if !archived {
		params.Set("archived", "false")
	}
	return getPaginated[Project](ctx, c, "/workspaces/"+workspaceGID+"/projects", params, maxResults)
}

func (c *Client) GetProjectSections(ctx context.Context, projectGID string) ([]Section, error) {
	return getPaginated[Section](ctx, c, "/projects/"+projectGID+"/sections", nil, 0)
}

// DuplicateProject copies a project, optionally shifting task dates to a
// new schedule (keys "due_on" and "start_on").
func (c *Client) DuplicateProject(ctx context.Context, projectGID, name, include string, scheduleDates map[string]string) (Job, error) {
	body := map[string]interface{}{"name": name}
	if include != "" {
		body["include"] = include
	}
	if len(scheduleDates) > 0 {
		body["schedule_dates"] = scheduleDates
	}
	return mutate[Job](ctx, c, http.MethodPost, "/projects/"+projectGID+"/duplicate", body)
}

func (c *Client) GetProjectStatuses(ctx context.Context, projectGID, optFields string) ([]ProjectStatus, error) {
	return getPaginated[ProjectStatus](ctx, c, "/projects/"+projectGID+"/project_statuses", optFieldParams(optFields), 0)
}

func (c *Client) CreateProjectStatus(ctx context.Context, projectGID string, fields map[string]interface{}) (ProjectStatus, error) {
	return mutate[ProjectStatus](ctx, c, http.MethodPost, "/projects/"+projectGID+"/project_statuses", fields)
}

func (c *Client) GetProjectTaskCounts(ctx context.Context, projectGID string) (TaskCounts, error) {
	params := url.Values{}
	params.Set("opt_fields", "num_tasks,num_incomplete_tasks,num_completed_tasks,num_milestones")
	return getOne[TaskCounts](ctx, c, "/projects/"+projectGID+"/task_counts", params)
}

// --- Sections ---

func (c *Client) CreateSection(ctx context.Context, projectGID, name string) (Section, error) {
	return mutate[Section](ctx, c, http.MethodPost, "/projects/"+projectGID+"/sections",
		map[string]interface{}{"name": name})
}

func (c *Client) GetSection(ctx context.Context, sectionGID, optFields string) (Section, error) {
	return getOne[Section](ctx, c, "/sections/"+sectionGID, optFieldParams(optFields))
}

func (c *Client) UpdateSection(ctx context.Context, sectionGID, name string) (Section, error) {
	return mutate[Section](ctx, c, http.MethodPut, "/sections/"+sectionGID,
		map[string]interface{}{"name": name})
}

func (c *Client) DeleteSection(ctx context.Context, sectionGID string) error {
	_, err := c.request(ctx, http.MethodDelete, "/sections/"+sectionGID, nil, nil)
	return err
}

// AddTaskToSection moves a task into a section.
func (c *Client) AddTaskToSection(ctx context.Context, sectionGID, taskGID string) error {
	_, err := mutate[struct{}](ctx, c, http.MethodPost, "/sections/"+sectionGID+"/addTask",
		map[string]interface{}{"task": taskGID})
	return err
}

// --- Organization ---

func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	return getPaginated[Workspace](ctx, c, "/workspaces", nil, 0)
}

func (c *Client) GetWorkspace(ctx context.Context, workspaceGID string) (Workspace, error) {
	return getOne[Workspace](ctx, c, "/workspaces/"+workspaceGID, nil)
}

func (c *Client) GetTags(ctx context.Context, workspaceGID string) ([]Tag, error) {
	return getPaginated[Tag](ctx, c, "/workspaces/"+workspaceGID+"/tags", nil, 0)
}

func (c *Client) GetTasksForTag(ctx context.Context, tagGID string, maxResults int) ([]Task, error) {
	return getPaginated[Task](ctx, c, "/tags/"+tagGID+"/tasks", nil, maxResults)
}

// GetMultipleTasks fetches up to 25 tasks in one call.
func (c *Client) GetMultipleTasks(ctx context.Context, taskGIDs []string, optFields string) ([]Task, error) {
	if len(taskGIDs) > maxBatchTasks {
		taskGIDs = taskGIDs[:maxBatchTasks]
	}
	params := optFieldParams(optFields)
	params.Set("task", strings.Join(taskGIDs, ","))
	return getPaginated[Task](ctx, c, "/tasks", params, 0)
}
