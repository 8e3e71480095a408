package asana

// NamedRef is a compact reference to another Asana object.
type NamedRef struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

// Task is the subset of Asana task fields the broker surfaces.
type Task struct {
	GID          string     `json:"gid"`
	Name         string     `json:"name"`
	Notes        string     `json:"notes,omitempty"`
	Completed    bool       `json:"completed"`
	DueOn        string     `json:"due_on,omitempty"`
	Assignee     *NamedRef  `json:"assignee,omitempty"`
	Parent       *NamedRef  `json:"parent,omitempty"`
	Projects     []NamedRef `json:"projects,omitempty"`
	Tags         []NamedRef `json:"tags,omitempty"`
	Memberships  []struct {
		Project NamedRef `json:"project"`
		Section NamedRef `json:"section"`
	} `json:"memberships,omitempty"`
	NumSubtasks  int    `json:"num_subtasks,omitempty"`
	PermalinkURL string `json:"permalink_url,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	ModifiedAt   string `json:"modified_at,omitempty"`
}

// Project is the subset of Asana project fields the broker surfaces.
type Project struct {
	GID          string    `json:"gid"`
	Name         string    `json:"name"`
	Notes        string    `json:"notes,omitempty"`
	Color        string    `json:"color,omitempty"`
	Archived     bool      `json:"archived"`
	DueOn        string    `json:"due_on,omitempty"`
	Owner        *NamedRef `json:"owner,omitempty"`
	Workspace    *NamedRef `json:"workspace,omitempty"`
	PermalinkURL string    `json:"permalink_url,omitempty"`
}

// Section is a section within a project.
type Section struct {
	GID       string    `json:"gid"`
	Name      string    `json:"name"`
	Project   *NamedRef `json:"project,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// ProjectStatus is a status update posted on a project.
type ProjectStatus struct {
	GID       string    `json:"gid"`
	Title     string    `json:"title"`
	Text      string    `json:"text,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"`
	CreatedBy *NamedRef `json:"created_by,omitempty"`
}

// Job is the handle returned by the asynchronous duplicate endpoints. The
// duplicated object is embedded when the copy completes synchronously.
type Job struct {
	GID        string   `json:"gid"`
	NewTask    *Task    `json:"new_task,omitempty"`
	NewProject *Project `json:"new_project,omitempty"`
}

// Tag is a workspace tag.
type Tag struct {
	GID   string `json:"gid"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Workspace is an Asana workspace or organization.
type Workspace struct {
	GID            string `json:"gid"`
	Name           string `json:"name"`
	IsOrganization bool   `json:"is_organization"`
}

// Story is a comment or activity entry on a task.
type Story struct {
	GID             string    `json:"gid"`
	Text            string    `json:"text"`
	ResourceSubtype string    `json:"resource_subtype,omitempty"`
	CreatedAt       string    `json:"created_at,omitempty"`
	CreatedBy       *NamedRef `json:"created_by,omitempty"`
}

// TaskCounts summarizes a project's task totals.
type TaskCounts struct {
	NumTasks            int `json:"num_tasks"`
	NumIncompleteTasks  int `json:"num_incomplete_tasks"`
	NumCompletedTasks   int `json:"num_completed_tasks"`
	NumMilestones       int `json:"num_milestones"`
}
