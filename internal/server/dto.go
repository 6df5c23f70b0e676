package server

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/domain"
)

// Request payloads

type LoginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RevokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" format:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" format:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// FilePayload carries an uploaded file inline as base64.
type FilePayload struct {
	Name string `json:"name"`
	Data string `json:"data" format:"byte"`
}

type CreateDeveloperRequest struct {
	FullName         string       `json:"full_name"`
	Age              int          `json:"age"`
	JobTitle         string       `json:"job_title"`
	YearOfExperience int          `json:"year_of_experience"`
	JobLevel         string       `json:"job_level,omitempty" enum:"junior,mid,senior,lead"`
	Email            string       `json:"email" format:"email"`
	Password         string       `json:"password"`
	Image            *FilePayload `json:"image,omitempty"`
}

type UpdateDeveloperRequest struct {
	FullName         string       `json:"full_name"`
	Age              int          `json:"age"`
	JobTitle         string       `json:"job_title"`
	YearOfExperience int          `json:"year_of_experience"`
	JobLevel         string       `json:"job_level,omitempty" enum:"junior,mid,senior,lead"`
	Image            *FilePayload `json:"image,omitempty"`
}

type AssignTaskRequest struct {
	StartAt     time.Time    `json:"start_at" format:"date-time"`
	EndAt       time.Time    `json:"end_at" format:"date-time"`
	Content     string       `json:"content"`
	DeveloperID uuid.UUID    `json:"developer_id"`
	Document    *FilePayload `json:"document,omitempty"`
}

type UpdateTaskRequest struct {
	StartAt  time.Time    `json:"start_at" format:"date-time"`
	EndAt    time.Time    `json:"end_at" format:"date-time"`
	Content  string       `json:"content"`
	Document *FilePayload `json:"document,omitempty"`
}

type ChangeTaskStatusRequest struct {
	Progress string `json:"progress" enum:"not_started,in_progress,completed"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

// Response payloads

type LoginResponse struct {
	AccessToken      string    `json:"access_token"`
	ExpiresAt        time.Time `json:"expires_at" format:"date-time"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresOn time.Time `json:"refresh_expires_on" format:"date-time"`
}

type ForgotPasswordResponse struct {
	Token string `json:"token,omitempty"`
}

type DeveloperResponse struct {
	ID               uuid.UUID      `json:"id"`
	FullName         string         `json:"full_name"`
	Age              int            `json:"age"`
	ImageURL         string         `json:"image_url,omitempty"`
	JobTitle         string         `json:"job_title"`
	YearOfExperience int            `json:"year_of_experience"`
	JobLevel         string         `json:"job_level" enum:"junior,mid,senior,lead"`
	UserID           uuid.UUID      `json:"user_id"`
	AssignedTasks    []TaskResponse `json:"assigned_tasks,omitempty"`
	CreatedAt        time.Time      `json:"created_at" format:"date-time"`
}

type TaskResponse struct {
	ID          uuid.UUID         `json:"id"`
	StartAt     time.Time         `json:"start_at" format:"date-time"`
	EndAt       time.Time         `json:"end_at" format:"date-time"`
	Content     string            `json:"content"`
	DocumentURL string            `json:"document_url,omitempty"`
	Progress    string            `json:"progress" enum:"not_started,in_progress,completed"`
	IsFinished  bool              `json:"is_finished"`
	DeveloperID uuid.UUID         `json:"developer_id"`
	Comments    []CommentResponse `json:"comments,omitempty"`
	CreatedAt   time.Time         `json:"created_at" format:"date-time"`
}

type CommentResponse struct {
	ID          uuid.UUID `json:"id"`
	Content     string    `json:"content"`
	TaskID      uuid.UUID `json:"task_id"`
	DeveloperID uuid.UUID `json:"developer_id"`
	CreatedAt   time.Time `json:"created_at" format:"date-time"`
}

type pagedDevelopers struct {
	Items       []DeveloperResponse `json:"items"`
	TotalCount  int64               `json:"total_count"`
	PageNumber  int                 `json:"page_number"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasForward  bool                `json:"has_forward"`
	HasPrevious bool                `json:"has_previous"`
}

type pagedTasks struct {
	Items       []TaskResponse `json:"items"`
	TotalCount  int64          `json:"total_count"`
	PageNumber  int            `json:"page_number"`
	PageSize    int            `json:"page_size"`
	TotalPages  int            `json:"total_pages"`
	HasForward  bool           `json:"has_forward"`
	HasPrevious bool           `json:"has_previous"`
}

func (s *server) developerResponse(d *domain.Developer) DeveloperResponse {
	resp := DeveloperResponse{
		ID:               d.ID,
		FullName:         d.FullName,
		Age:              d.Age,
		ImageURL:         s.fileURL(d.ImagePath),
		JobTitle:         d.JobTitle,
		YearOfExperience: d.YearOfExperience,
		JobLevel:         d.JobLevel.String(),
		UserID:           d.UserID,
		CreatedAt:        d.CreatedAt,
	}
	for _, t := range d.AssignedTasks {
		resp.AssignedTasks = append(resp.AssignedTasks, s.taskResponse(t))
	}
	return resp
}

func (s *server) taskResponse(t *domain.TaskEntity) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		StartAt:     t.StartAt,
		EndAt:       t.EndAt,
		Content:     t.Content,
		DocumentURL: s.fileURL(t.DocumentPath),
		Progress:    t.Progress.String(),
		IsFinished:  t.IsFinished,
		DeveloperID: t.AssignedToDeveloperID,
		CreatedAt:   t.CreatedAt,
	}
	for _, c := range t.Comments {
		resp.Comments = append(resp.Comments, commentResponse(c))
	}
	return resp
}

func commentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		Content:     c.Content,
		TaskID:      c.TaskID,
		DeveloperID: c.DeveloperID,
		CreatedAt:   c.CreatedAt,
	}
}

func (s *server) mapDevelopersPage(page domain.PagesResult[*domain.Developer]) pagedDevelopers {
	resp := pagedDevelopers{
		Items:       []DeveloperResponse{},
		TotalCount:  page.TotalCount,
		PageNumber:  page.PageNumber,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages,
		HasForward:  page.HasForward,
		HasPrevious: page.HasPrevious,
	}
	for _, d := range page.Items {
		resp.Items = append(resp.Items, s.developerResponse(d))
	}
	return resp
}

func (s *server) mapTasksPage(page domain.PagesResult[*domain.TaskEntity]) pagedTasks {
	resp := pagedTasks{
		Items:       []TaskResponse{},
		TotalCount:  page.TotalCount,
		PageNumber:  page.PageNumber,
		PageSize:    page.PageSize,
		TotalPages:  page.TotalPages,
		HasForward:  page.HasForward,
		HasPrevious: page.HasPrevious,
	}
	for _, t := range page.Items {
		resp.Items = append(resp.Items, s.taskResponse(t))
	}
	return resp
}

func parseJobLevel(v string) (domain.JobLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "junior":
		return domain.JobLevelJunior, true
	case "mid":
		return domain.JobLevelMid, true
	case "senior":
		return domain.JobLevelSenior, true
	case "lead":
		return domain.JobLevelLead, true
	default:
		return 0, false
	}
}

func parseProgress(v string) (domain.TaskProgress, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "not_started":
		return domain.TaskProgressNotStarted, true
	case "in_progress":
		return domain.TaskProgressInProgress, true
	case "completed":
		return domain.TaskProgressCompleted, true
	default:
		return 0, false
	}
}
