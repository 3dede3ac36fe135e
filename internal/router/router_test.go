package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"focusflow/internal/clock"
	"focusflow/internal/db"
	"focusflow/internal/handler"
	"focusflow/internal/repository"
	"focusflow/internal/router"
	"focusflow/internal/service"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type taskEnvelope struct {
	Task struct {
		ID            string `json:"id"`
		Title         string `json:"title"`
		FocusSessions int    `json:"focusSessions"`
	} `json:"task"`
}

type tasksEnvelope struct {
	Tasks []struct {
		ID            string `json:"id"`
		FocusSessions int    `json:"focusSessions"`
	} `json:"tasks"`
}

type statsEnvelope struct {
	Stats struct {
		Day            string `json:"day"`
		TotalFocusTime int    `json:"totalFocusTime"`
		FocusSessions  int    `json:"focusSessions"`
	} `json:"stats"`
}

type summaryResponse struct {
	Today struct {
		Day            string `json:"day"`
		TotalFocusTime int    `json:"totalFocusTime"`
	} `json:"today"`
	Weekly []struct {
		Day string `json:"day"`
	} `json:"weekly"`
}

type ranksEnvelope struct {
	Ranks []struct {
		Rank           int    `json:"rank"`
		Username       string `json:"username"`
		TotalFocusTime int    `json:"totalFocusTime"`
	} `json:"ranks"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// 2026-03-11 02:30 still belongs to the virtual day 2026-03-10.
var testNow = time.Date(2026, 3, 11, 2, 30, 0, 0, time.Local)

func TestTaskLifecycleAndOwnership(t *testing.T) {
	engine := setupTestEngine(t)

	alice := registerUser(t, engine, "alice", "123456")
	bob := registerUser(t, engine, "bob", "123456")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/tasks", alice.Token, map[string]string{"title": "  write report "})
	if status != http.StatusCreated {
		t.Fatalf("expected 201 on create, got %d: %s", status, raw)
	}
	var created taskEnvelope
	decode(t, raw, &created)
	if created.Task.ID == "" || created.Task.Title != "write report" {
		t.Fatalf("unexpected created task: %+v", created.Task)
	}

	status, raw = requestJSON(t, engine, http.MethodPatch, "/api/tasks/"+created.Task.ID+"/session", alice.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on increment, got %d: %s", status, raw)
	}
	var patched taskEnvelope
	decode(t, raw, &patched)
	if patched.Task.FocusSessions != 1 {
		t.Fatalf("expected 1 focus session, got %d", patched.Task.FocusSessions)
	}

	// Bob may neither touch nor list alice's tasks.
	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+created.Task.ID, bob.Token, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign delete, got %d", status)
	}
	status, _ = requestJSON(t, engine, http.MethodGet, "/api/tasks/"+alice.User.ID, bob.Token, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign list, got %d", status)
	}

	tasks := listTasks(t, engine, alice)
	if len(tasks.Tasks) != 1 || tasks.Tasks[0].FocusSessions != 1 {
		t.Fatalf("unexpected task list: %+v", tasks.Tasks)
	}

	status, _ = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+created.Task.ID, alice.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", status)
	}
	status, raw = requestJSON(t, engine, http.MethodDelete, "/api/tasks/"+created.Task.ID, alice.Token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", status)
	}
	var notFound apiErrorEnvelope
	decode(t, raw, &notFound)
	if notFound.Error.Code != "task_not_found" {
		t.Fatalf("expected task_not_found, got %s", notFound.Error.Code)
	}
}

func TestClearTasks(t *testing.T) {
	engine := setupTestEngine(t)
	alice := registerUser(t, engine, "alice", "123456")

	for _, title := range []string{"a", "b", "c"} {
		status, _ := requestJSON(t, engine, http.MethodPost, "/api/tasks", alice.Token, map[string]string{"title": title})
		if status != http.StatusCreated {
			t.Fatalf("expected 201, got %d", status)
		}
	}

	status, _ := requestJSON(t, engine, http.MethodDelete, "/api/tasks/user/"+alice.User.ID, alice.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on clear, got %d", status)
	}
	if tasks := listTasks(t, engine, alice); len(tasks.Tasks) != 0 {
		t.Fatalf("expected no tasks after clear, got %d", len(tasks.Tasks))
	}
}

func TestEmptyTitleRejected(t *testing.T) {
	engine := setupTestEngine(t)
	alice := registerUser(t, engine, "alice", "123456")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/tasks", alice.Token, map[string]string{"title": "   "})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	var resp apiErrorEnvelope
	decode(t, raw, &resp)
	if resp.Error.Code != "invalid_title" {
		t.Fatalf("expected invalid_title, got %s", resp.Error.Code)
	}
}

func TestDailyStatsAndRanks(t *testing.T) {
	engine := setupTestEngine(t)
	alice := registerUser(t, engine, "alice", "123456")
	bob := registerUser(t, engine, "bob", "123456")

	addStats(t, engine, alice, 1500, true)
	stats := addStats(t, engine, alice, 600, false)
	if stats.Stats.TotalFocusTime != 2100 || stats.Stats.FocusSessions != 1 {
		t.Fatalf("unexpected accumulated stats: %+v", stats.Stats)
	}
	if stats.Stats.Day != "2026-03-10" {
		t.Fatalf("expected virtual day 2026-03-10, got %s", stats.Stats.Day)
	}
	addStats(t, engine, bob, 3000, true)

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/stats/"+alice.User.ID+"/daily", alice.Token, map[string]interface{}{
		"addSeconds": -1,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative seconds, got %d: %s", status, raw)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/stats/"+alice.User.ID, alice.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on summary, got %d", status)
	}
	var summary summaryResponse
	decode(t, raw, &summary)
	if summary.Today.TotalFocusTime != 2100 || len(summary.Weekly) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/ranks/daily?limit=5", alice.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on ranks, got %d", status)
	}
	var ranks ranksEnvelope
	decode(t, raw, &ranks)
	if len(ranks.Ranks) != 2 {
		t.Fatalf("expected 2 ranked users, got %d", len(ranks.Ranks))
	}
	if ranks.Ranks[0].Username != "bob" || ranks.Ranks[0].Rank != 1 || ranks.Ranks[1].TotalFocusTime != 2100 {
		t.Fatalf("unexpected ranking: %+v", ranks.Ranks)
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/ranks/monthly", alice.Token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown period, got %d", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	engine := setupTestEngine(t)
	alice := registerUser(t, engine, "alice", "123456")

	status, _ := requestJSON(t, engine, http.MethodGet, "/api/auth/session", alice.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 on session, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/auth/logout", alice.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodGet, "/api/auth/session", alice.Token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", status)
	}

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "123456",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on login, got %d: %s", status, raw)
	}
}

func TestRegisterValidation(t *testing.T) {
	engine := setupTestEngine(t)
	registerUser(t, engine, "alice", "123456")

	status, _ := requestJSON(t, engine, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": " alice ",
		"password": "abcdef",
	})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "carol",
		"password": "123",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", status)
	}

	status, _ = requestJSON(t, engine, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", status)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/abc", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := db.RunMigrations(database, db.ServerMigrations()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	authService := service.NewAuthService(repository.NewUserRepository(database), "test-secret", 24*time.Hour)
	taskService := service.NewTaskService(repository.NewTaskRepository(database))
	statsService := service.NewStatsService(repository.NewStatsRepository(database), clock.NewManual(testNow))

	return router.New(authService, router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Tasks: handler.NewTaskHandler(taskService),
		Stats: handler.NewStatsHandler(statsService),
	}, []string{"http://localhost:5173"})
}

func registerUser(t *testing.T, server http.Handler, username, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", username, status, string(body))
	}
	var resp authResponse
	decode(t, body, &resp)
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", username)
	}
	return resp
}

func listTasks(t *testing.T, server http.Handler, user authResponse) tasksEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodGet, "/api/tasks/"+user.User.ID, user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("list tasks failed with status %d: %s", status, string(body))
	}
	var resp tasksEnvelope
	decode(t, body, &resp)
	return resp
}

func addStats(t *testing.T, server http.Handler, user authResponse, seconds int, sessionComplete bool) statsEnvelope {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/stats/"+user.User.ID+"/daily", user.Token, map[string]interface{}{
		"addSeconds":        seconds,
		"isSessionComplete": sessionComplete,
	})
	if status != http.StatusOK {
		t.Fatalf("add stats failed with status %d: %s", status, string(body))
	}
	var resp statsEnvelope
	decode(t, body, &resp)
	return resp
}

func decode(t *testing.T, raw []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("unmarshal response: %v: %s", err, raw)
	}
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
