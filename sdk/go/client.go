package taskflowsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal TaskFlow HTTP API client. Call Login first; the
// client keeps the issued token pair and sends the access token on every
// request.
type Client struct {
	BaseURL      string
	AccessToken  string
	RefreshToken string
	HTTPClient   *http.Client
	Timeout      time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// TokenPair is the credential pair returned by login and refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresOn time.Time `json:"refresh_expires_on"`
}

// Developer represents the API developer model.
type Developer struct {
	ID               string    `json:"id"`
	FullName         string    `json:"full_name"`
	Age              int       `json:"age"`
	ImageURL         string    `json:"image_url,omitempty"`
	JobTitle         string    `json:"job_title"`
	YearOfExperience int       `json:"year_of_experience"`
	JobLevel         string    `json:"job_level"`
	UserID           string    `json:"user_id"`
	AssignedTasks    []Task    `json:"assigned_tasks,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Task represents the API task model.
type Task struct {
	ID          string    `json:"id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	Content     string    `json:"content"`
	DocumentURL string    `json:"document_url,omitempty"`
	Progress    string    `json:"progress"`
	IsFinished  bool      `json:"is_finished"`
	DeveloperID string    `json:"developer_id"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Comment represents one task comment.
type Comment struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	TaskID      string    `json:"task_id"`
	DeveloperID string    `json:"developer_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Page wraps paginated list responses.
type Page[T any] struct {
	Items       []T   `json:"items"`
	TotalCount  int64 `json:"total_count"`
	PageNumber  int   `json:"page_number"`
	PageSize    int   `json:"page_size"`
	TotalPages  int   `json:"total_pages"`
	HasForward  bool  `json:"has_forward"`
	HasPrevious bool  `json:"has_previous"`
}

// APIError wraps non-2xx responses carrying the error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
}

// Login authenticates and stores the token pair on the client.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, &pair)
	if err != nil {
		return TokenPair{}, err
	}
	c.AccessToken = pair.AccessToken
	c.RefreshToken = pair.RefreshToken
	return pair, nil
}

// Refresh rotates the stored refresh token.
func (c *Client) Refresh(ctx context.Context) (TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "auth/refresh", map[string]any{
		"access_token":  c.AccessToken,
		"refresh_token": c.RefreshToken,
	}, &pair)
	if err != nil {
		return TokenPair{}, err
	}
	c.AccessToken = pair.AccessToken
	c.RefreshToken = pair.RefreshToken
	return pair, nil
}

// CreateDeveloper registers a developer with its account. Admin only.
func (c *Client) CreateDeveloper(ctx context.Context, fullName string, age int, jobTitle string, yearOfExperience int, jobLevel, email, password string) (Developer, error) {
	var resp Developer
	err := c.do(ctx, http.MethodPost, "developers", map[string]any{
		"full_name":          fullName,
		"age":                age,
		"job_title":          jobTitle,
		"year_of_experience": yearOfExperience,
		"job_level":          jobLevel,
		"email":              email,
		"password":           password,
	}, &resp)
	return resp, err
}

// Developers returns one page of developers.
func (c *Client) Developers(ctx context.Context, pageNumber, pageSize int) (Page[Developer], error) {
	var resp Page[Developer]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("developers?page_number=%d&page_size=%d", pageNumber, pageSize), nil, &resp)
	return resp, err
}

// Developer fetches a developer with its assigned tasks.
func (c *Client) Developer(ctx context.Context, id string) (Developer, error) {
	var resp Developer
	err := c.do(ctx, http.MethodGet, "developers/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// AssignTask creates a task for a developer. Admin only.
func (c *Client) AssignTask(ctx context.Context, developerID, content string, startAt, endAt time.Time) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "tasks", map[string]any{
		"developer_id": developerID,
		"content":      content,
		"start_at":     startAt.Format(time.RFC3339),
		"end_at":       endAt.Format(time.RFC3339),
	}, &resp)
	return resp, err
}

// Tasks returns one page of tasks.
func (c *Client) Tasks(ctx context.Context, pageNumber, pageSize int) (Page[Task], error) {
	var resp Page[Task]
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("tasks?page_number=%d&page_size=%d", pageNumber, pageSize), nil, &resp)
	return resp, err
}

// Task fetches a task with its comments.
func (c *Client) Task(ctx context.Context, id string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodGet, "tasks/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ChangeTaskStatus moves a task's progress marker.
func (c *Client) ChangeTaskStatus(ctx context.Context, id, progress string) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, "tasks/"+url.PathEscape(id)+"/status", map[string]any{
		"progress": progress,
	}, &resp)
	return resp, err
}

// AddComment attaches a comment to a task.
func (c *Client) AddComment(ctx context.Context, taskID, content string) (Comment, error) {
	var resp Comment
	err := c.do(ctx, http.MethodPost, "tasks/"+url.PathEscape(taskID)+"/comments", map[string]any{
		"content": content,
	}, &resp)
	return resp, err
}

// Comments lists a task's comments oldest first.
func (c *Client) Comments(ctx context.Context, taskID string) ([]Comment, error) {
	var resp []Comment
	err := c.do(ctx, http.MethodGet, "tasks/"+url.PathEscape(taskID)+"/comments", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = string(b)
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
