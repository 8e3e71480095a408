package asana_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskbridge/go-asana-broker/asana"
	"github.com/taskbridge/go-asana-broker/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*asana.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return asana.NewClient(srv.URL, "test-token", ratelimit.New(100, time.Minute)), srv
}

func TestGetTaskDecodesEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/123", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "name,notes", r.URL.Query().Get("opt_fields"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"gid": "123", "name": "Write report", "completed": true},
		})
	})

	task, err := client.GetTask(context.Background(), "123", "name,notes")
	require.NoError(t, err)
	require.Equal(t, "123", task.GID)
	require.Equal(t, "Write report", task.Name)
	require.True(t, task.Completed)
}

func TestCreateTaskWrapsBodyInDataEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Data map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "New task", body.Data["name"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"gid": "900", "name": "New task"},
		})
	})

	task, err := client.CreateTask(context.Background(), map[string]interface{}{"name": "New task"})
	require.NoError(t, err)
	require.Equal(t, "900", task.GID)
}

func TestAPIErrorCarriesUpstreamMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]string{{"message": "task: Not a recognized ID"}},
		})
	})

	_, err := client.GetTask(context.Background(), "junk", "")
	require.Error(t, err)

	var apiErr *asana.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Contains(t, apiErr.Message, "Not a recognized ID")
}

func TestRateLimitedRequestIsRetriedOnce(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"gid": "123"},
		})
	})

	task, err := client.GetTask(context.Background(), "123", "")
	require.NoError(t, err)
	require.Equal(t, "123", task.GID)
	require.Equal(t, 2, calls)
}

func TestRateLimitedTwiceSurfacesError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetTask(context.Background(), "123", "")
	var apiErr *asana.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestPaginationFollowsOffsets(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data":      []map[string]string{{"gid": "1", "name": "a"}, {"gid": "2", "name": "b"}},
				"next_page": map[string]string{"offset": "page2"},
			})
		case "page2":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]string{{"gid": "3", "name": "c"}},
			})
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	})

	tasks, err := client.GetTasksFromProject(context.Background(), "p1", "", 0)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, "3", tasks[2].GID)
}

func TestPaginationHonoursMaxResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":      []map[string]string{{"gid": "1"}, {"gid": "2"}},
			"next_page": map[string]string{"offset": "more"},
		})
	})

	tasks, err := client.GetTasksFromProject(context.Background(), "p1", "", 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
}

func TestSearchTasksPassesParams(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/workspaces/ws1/tasks/search", r.URL.Path)
		require.Equal(t, "report", r.URL.Query().Get("text"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"gid": "1", "name": "Write report"}},
		})
	})

	params := url.Values{}
	params.Set("text", "report")
	tasks, err := client.SearchTasks(context.Background(), "ws1", params, 50)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
}

func TestTransportFailureIsNotAnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // force connection errors
	client := asana.NewClient(srv.URL, "tok", nil)

	_, err := client.GetTask(context.Background(), "123", "")
	require.Error(t, err)

	var apiErr *asana.APIError
	require.False(t, errors.As(err, &apiErr), "transport failures must keep their cause, got %v", err)
}

func TestCancelledContextSurfacesAsCanceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetTask(ctx, "123", "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRemoveDependenciesPostsGIDList(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/tasks/77/removeDependencies", r.URL.Path)

		var body struct {
			Data struct {
				Dependencies []string `json:"dependencies"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"1", "2"}, body.Data.Dependencies)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]string{}})
	})

	require.NoError(t, client.RemoveDependencies(context.Background(), "77", []string{"1", "2"}))
}

func TestDuplicateTaskDecodesJob(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/42/duplicate", r.URL.Path)

		var body struct {
			Data map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Copy of report", body.Data["name"])
		require.Equal(t, "notes,subtasks", body.Data["include"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"gid":      "job-1",
				"new_task": map[string]string{"gid": "901", "name": "Copy of report"},
			},
		})
	})

	job, err := client.DuplicateTask(context.Background(), "42", "Copy of report", "notes,subtasks")
	require.NoError(t, err)
	require.Equal(t, "job-1", job.GID)
	require.NotNil(t, job.NewTask)
	require.Equal(t, "901", job.NewTask.GID)
}

func TestCreateProjectStatusWrapsEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/projects/p1/project_statuses", r.URL.Path)

		var body struct {
			Data map[string]interface{} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Week 10 Update", body.Data["title"])
		require.Equal(t, "green", body.Data["color"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"gid": "st-1", "title": "Week 10 Update", "color": "green"},
		})
	})

	status, err := client.CreateProjectStatus(context.Background(), "p1",
		map[string]interface{}{"title": "Week 10 Update", "color": "green"})
	require.NoError(t, err)
	require.Equal(t, "st-1", status.GID)
	require.Equal(t, "green", status.Color)
}

func TestGetSectionPassesOptFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sections/s1", r.URL.Path)
		require.Equal(t, "name,project.name,created_at", r.URL.Query().Get("opt_fields"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"gid":     "s1",
				"name":    "Backlog",
				"project": map[string]string{"gid": "p1", "name": "Q1 Planning"},
			},
		})
	})

	section, err := client.GetSection(context.Background(), "s1", "name,project.name,created_at")
	require.NoError(t, err)
	require.Equal(t, "Backlog", section.Name)
	require.NotNil(t, section.Project)
	require.Equal(t, "Q1 Planning", section.Project.Name)
}

func TestGetMultipleTasksCapsBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gids := r.URL.Query().Get("task")
		require.NotEmpty(t, gids)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]string{}})
	})

	many := make([]string, 30)
	for i := range many {
		many[i] = "gid"
	}
	_, err := client.GetMultipleTasks(context.Background(), many, "")
	require.NoError(t, err)
}
