// Package remote is the HTTP client for the task, stats and auth collaborator.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "focusflow/internal/errors"
	"focusflow/internal/log"
	"focusflow/internal/model"
)

const tracerName = "focusflow/remote"

type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.httpClient = c }
}

func WithToken(token string) Option {
	return func(client *Client) { client.token = token }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(client *Client) { client.tracer = tracer }
}

// New returns a client for the API rooted at baseURL (for example
// http://localhost:8080/api). Calls have no timeout unless the supplied
// http.Client sets one.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type taskEnvelope struct {
	Task model.Task `json:"task"`
}

type tasksEnvelope struct {
	Tasks []model.Task `json:"tasks"`
}

type userEnvelope struct {
	User model.User `json:"user"`
}

type statsEnvelope struct {
	Stats model.DailyStats `json:"stats"`
}

type ranksEnvelope struct {
	Ranks []model.RankEntry `json:"ranks"`
}

func (c *Client) Register(ctx context.Context, username, password string) (*model.AuthResult, error) {
	var result model.AuthResult
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", credentials{username, password}, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*model.AuthResult, error) {
	var result model.AuthResult
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", credentials{username, password}, &result); err != nil {
		return nil, err
	}
	c.SetToken(result.Token)
	return &result, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) Session(ctx context.Context) (*model.User, error) {
	var env userEnvelope
	if err := c.do(ctx, "session", http.MethodGet, "/auth/session", nil, &env); err != nil {
		return nil, err
	}
	return &env.User, nil
}

func (c *Client) CreateTask(ctx context.Context, title string) (model.Task, error) {
	var env taskEnvelope
	err := c.do(ctx, "create_task", http.MethodPost, "/tasks", map[string]string{"title": title}, &env)
	return env.Task, err
}

func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, "delete_task", http.MethodDelete, "/tasks/"+url.PathEscape(taskID), nil, nil)
}

func (c *Client) ClearTasks(ctx context.Context, userID string) error {
	return c.do(ctx, "clear_tasks", http.MethodDelete, "/tasks/user/"+url.PathEscape(userID), nil, nil)
}

func (c *Client) IncrementSession(ctx context.Context, taskID string) (model.Task, error) {
	var env taskEnvelope
	err := c.do(ctx, "increment_session", http.MethodPatch, "/tasks/"+url.PathEscape(taskID)+"/session", nil, &env)
	return env.Task, err
}

func (c *Client) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	var env tasksEnvelope
	if err := c.do(ctx, "list_tasks", http.MethodGet, "/tasks/"+url.PathEscape(userID), nil, &env); err != nil {
		return nil, err
	}
	return env.Tasks, nil
}

func (c *Client) AddDailyStats(ctx context.Context, userID string, inc model.StatsIncrement) (model.DailyStats, error) {
	var env statsEnvelope
	err := c.do(ctx, "add_stats", http.MethodPost, "/stats/"+url.PathEscape(userID)+"/daily", inc, &env)
	return env.Stats, err
}

func (c *Client) Stats(ctx context.Context, userID string) (*model.StatsSummary, error) {
	var summary model.StatsSummary
	if err := c.do(ctx, "stats", http.MethodGet, "/stats/"+url.PathEscape(userID), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) Ranks(ctx context.Context, period string, limit int) ([]model.RankEntry, error) {
	path := "/ranks/" + url.PathEscape(period)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var env ranksEnvelope
	if err := c.do(ctx, "ranks", http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Ranks, nil
}

func (c *Client) do(ctx context.Context, name, method, path string, body, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "remote."+name, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	var reader io.Reader
	if body != nil {
		raw, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("encode %s request: %w", name, marshalErr)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	log.Debug(log.CatRemote, "response", "call", name, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", name, decodeError(resp))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	return nil
}

func decodeError(resp *http.Response) *apperrors.APIError {
	var env apperrors.Envelope
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		env.Error.Status = resp.StatusCode
		return env.Error
	}
	return apperrors.New(resp.StatusCode, "http_error", http.StatusText(resp.StatusCode))
}
