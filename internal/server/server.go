package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"taskflow/internal/auth"
	"taskflow/internal/domain"
	"taskflow/internal/identity"
	"taskflow/internal/notify"
	"taskflow/internal/service"
)

// Config for the HTTP API handler.
type Config struct {
	Auth       *auth.Service
	Accounts   *service.AccountService
	Developers *service.DeveloperService
	Tasks      *service.TaskService
	Hub        *notify.Hub
	JWTSecret  string
	BasePath   string
	BaseURL    string
	Logger     *slog.Logger
}

type server struct {
	cfg      Config
	basePath string
	logger   *slog.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"Developer.InvalidAge"`
	Message string         `json:"message" example:"Developer must be between 18 and 80 years old"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the TaskFlow API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{cfg: cfg, basePath: basePath, logger: logger}

	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// Schema/request validation errors map to 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			msgs := make([]string, 0, len(errs))
			for _, e := range errs {
				msgs = append(msgs, e.Error())
			}
			details = map[string]any{"errors": msgs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(s.recoverer)
	router.Use(newAuthMiddleware(basePath, cfg.JWTSecret))
	hcfg := huma.DefaultConfig("TaskFlow API", "0.1.0")
	hcfg.OpenAPIPath = ""
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	s.registerHealth(group)
	s.registerAuth(group)
	s.registerAccounts(group)
	s.registerDevelopers(group)
	s.registerTasks(group)
	s.registerWebsocket(router)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func (s *server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "path", r.URL.Path, "panic", rec)
				respondStatusError(w, newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// resultError maps a catalog error to the envelope with its HTTP status.
func resultError(e domain.Error) huma.StatusError {
	return newAPIError(statusForErrorType(e.Type), e.Code, e.Description, nil)
}

func statusForErrorType(t domain.ErrorType) int {
	switch t {
	case domain.ErrorTypeValidation, domain.ErrorTypeFailure:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"roles": fe.Roles})
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func (s *server) fileURL(relative string) string {
	if relative == "" {
		return ""
	}
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	if base == "" {
		return relative
	}
	return base + "/" + relative
}

func uploadFromPayload(p *FilePayload) (*service.Upload, huma.StatusError) {
	if p == nil {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, "bad_request", "file data must be base64", map[string]any{"field": "data"})
	}
	return &service.Upload{Name: p.Name, Reader: bytes.NewReader(data)}, nil
}

type healthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

func (s *server) registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})
}

type loginOutput struct {
	Body LoginResponse
}

func (s *server) registerAuth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Log in",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body LoginRequest
	}) (*loginOutput, error) {
		res := s.cfg.Auth.Login(ctx, input.Body.Email, input.Body.Password)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		pair := res.Value()
		return &loginOutput{Body: LoginResponse{
			AccessToken:      pair.AccessToken,
			ExpiresAt:        pair.ExpiresAt,
			RefreshToken:     pair.RefreshToken,
			RefreshExpiresOn: pair.RefreshExpiresOn,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Rotate a refresh token",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body RefreshRequest
	}) (*loginOutput, error) {
		res := s.cfg.Auth.Refresh(ctx, input.Body.AccessToken, input.Body.RefreshToken)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		pair := res.Value()
		return &loginOutput{Body: LoginResponse{
			AccessToken:      pair.AccessToken,
			ExpiresAt:        pair.ExpiresAt,
			RefreshToken:     pair.RefreshToken,
			RefreshExpiresOn: pair.RefreshExpiresOn,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "revoke-token",
		Method:        http.MethodPost,
		Path:          "/auth/revoke",
		Summary:       "Revoke a refresh token",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body RevokeRequest
	}) (*struct{}, error) {
		p, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if res := s.cfg.Auth.Revoke(ctx, p.UserID, input.Body.RefreshToken); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "forgot-password",
		Method:      http.MethodPost,
		Path:        "/auth/forgot-password",
		Summary:     "Request a password reset token",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ForgotPasswordRequest
	}) (*struct {
		Body ForgotPasswordResponse
	}, error) {
		// No mail delivery wired up; the token rides in the body and
		// unknown emails get an empty one.
		token, err := s.cfg.Auth.GeneratePasswordResetToken(ctx, input.Body.Email)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ForgotPasswordResponse
		}{Body: ForgotPasswordResponse{Token: token}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "reset-password",
		Method:        http.MethodPost,
		Path:          "/auth/reset-password",
		Summary:       "Reset a password with a token",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ResetPasswordRequest
	}) (*struct{}, error) {
		if res := s.cfg.Auth.ResetPassword(ctx, input.Body.Email, input.Body.Token, input.Body.NewPassword); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &struct{}{}, nil
	})
}

func (s *server) registerAccounts(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "change-password",
		Method:        http.MethodPut,
		Path:          "/accounts/password",
		Summary:       "Change the current user's password",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Body ChangePasswordRequest
	}) (*struct{}, error) {
		p, authErr := actorFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if res := s.cfg.Accounts.ChangePassword(ctx, p.UserID, input.Body.CurrentPassword, input.Body.NewPassword); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &struct{}{}, nil
	})
}

type developerOutput struct {
	Body DeveloperResponse
}

type developersPageOutput struct {
	Body pagedDevelopers
}

func (s *server) registerDevelopers(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-developer",
		Method:        http.MethodPost,
		Path:          "/developers",
		Summary:       "Register a developer",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateDeveloperRequest
	}) (*developerOutput, error) {
		if err := requireRole(ctx, identity.RoleAdmin); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		level, ok := parseJobLevel(input.Body.JobLevel)
		if !ok {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "job_level is not valid", map[string]any{"field": "job_level"})
		}
		image, payloadErr := uploadFromPayload(input.Body.Image)
		if payloadErr != nil {
			return nil, payloadErr
		}
		res := s.cfg.Developers.Create(ctx, p.UserID, service.CreateDeveloperRequest{
			FullName:         input.Body.FullName,
			Age:              input.Body.Age,
			JobTitle:         input.Body.JobTitle,
			YearOfExperience: input.Body.YearOfExperience,
			JobLevel:         level,
			Email:            input.Body.Email,
			Password:         input.Body.Password,
			Image:            image,
		})
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &developerOutput{Body: s.developerResponse(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-developers",
		Method:      http.MethodGet,
		Path:        "/developers",
		Summary:     "List developers",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		PageNumber int `query:"page_number" default:"1"`
		PageSize   int `query:"page_size" default:"10"`
	}) (*developersPageOutput, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		res := s.cfg.Developers.GetAll(ctx, input.PageNumber, input.PageSize)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &developersPageOutput{Body: s.mapDevelopersPage(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-developer",
		Method:      http.MethodGet,
		Path:        "/developers/{id}",
		Summary:     "Get a developer with assigned tasks",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ID uuid.UUID `path:"id"`
	}) (*developerOutput, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		res := s.cfg.Developers.GetByID(ctx, input.ID)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &developerOutput{Body: s.developerResponse(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-developer",
		Method:      http.MethodPut,
		Path:        "/developers/{id}",
		Summary:     "Update a developer profile",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   uuid.UUID `path:"id"`
		Body UpdateDeveloperRequest
	}) (*developerOutput, error) {
		if err := requireRole(ctx, identity.RoleAdmin, identity.RoleManager); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		level, ok := parseJobLevel(input.Body.JobLevel)
		if !ok {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "job_level is not valid", map[string]any{"field": "job_level"})
		}
		image, payloadErr := uploadFromPayload(input.Body.Image)
		if payloadErr != nil {
			return nil, payloadErr
		}
		if res := s.cfg.Developers.Update(ctx, p.UserID, input.ID, service.UpdateDeveloperRequest{
			FullName:         input.Body.FullName,
			Age:              input.Body.Age,
			JobTitle:         input.Body.JobTitle,
			YearOfExperience: input.Body.YearOfExperience,
			JobLevel:         level,
			Image:            image,
		}); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		got := s.cfg.Developers.GetByID(ctx, input.ID)
		if got.IsFailure() {
			return nil, resultError(got.Err())
		}
		return &developerOutput{Body: s.developerResponse(got.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-developer",
		Method:        http.MethodDelete,
		Path:          "/developers/{id}",
		Summary:       "Delete a developer",
		DefaultStatus: http.StatusNoContent,
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID uuid.UUID `path:"id"`
	}) (*struct{}, error) {
		if err := requireRole(ctx, identity.RoleAdmin); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		if res := s.cfg.Developers.Delete(ctx, p.UserID, input.ID); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &struct{}{}, nil
	})
}

type taskOutput struct {
	Body TaskResponse
}

type tasksPageOutput struct {
	Body pagedTasks
}

type commentOutput struct {
	Body CommentResponse
}

func (s *server) registerTasks(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "assign-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Assign a task to a developer",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body AssignTaskRequest
	}) (*taskOutput, error) {
		if err := requireRole(ctx, identity.RoleAdmin); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		document, payloadErr := uploadFromPayload(input.Body.Document)
		if payloadErr != nil {
			return nil, payloadErr
		}
		res := s.cfg.Tasks.Assign(ctx, p.UserID, service.AssignTaskRequest{
			StartAt:     input.Body.StartAt,
			EndAt:       input.Body.EndAt,
			Content:     input.Body.Content,
			DeveloperID: input.Body.DeveloperID,
			Document:    document,
		})
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &taskOutput{Body: s.taskResponse(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		PageNumber int `query:"page_number" default:"1"`
		PageSize   int `query:"page_size" default:"10"`
	}) (*tasksPageOutput, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		res := s.cfg.Tasks.GetAll(ctx, input.PageNumber, input.PageSize)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &tasksPageOutput{Body: s.mapTasksPage(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks-by-status",
		Method:      http.MethodGet,
		Path:        "/tasks/by-status",
		Summary:     "List tasks filtered by progress",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Progress   string `query:"progress" enum:"not_started,in_progress,completed"`
		PageNumber int    `query:"page_number" default:"1"`
		PageSize   int    `query:"page_size" default:"10"`
	}) (*tasksPageOutput, error) {
		if err := requireRole(ctx, identity.RoleAdmin, identity.RoleManager); err != nil {
			return nil, handleError(err)
		}
		progress, ok := parseProgress(input.Progress)
		if !ok {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "progress is not valid", map[string]any{"field": "progress"})
		}
		res := s.cfg.Tasks.GetByStatus(ctx, progress, input.PageNumber, input.PageSize)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &tasksPageOutput{Body: s.mapTasksPage(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-developer-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks/developer/{developer_id}",
		Summary:     "List a developer's tasks",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		DeveloperID uuid.UUID `path:"developer_id"`
		PageNumber  int       `query:"page_number" default:"1"`
		PageSize    int       `query:"page_size" default:"10"`
	}) (*tasksPageOutput, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		res := s.cfg.Tasks.GetForDeveloper(ctx, input.DeveloperID, input.PageNumber, input.PageSize)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &tasksPageOutput{Body: s.mapTasksPage(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task with its comments",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ID uuid.UUID `path:"id"`
	}) (*taskOutput, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		res := s.cfg.Tasks.GetByID(ctx, input.ID)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &taskOutput{Body: s.taskResponse(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   uuid.UUID `path:"id"`
		Body UpdateTaskRequest
	}) (*taskOutput, error) {
		if err := requireRole(ctx, identity.RoleAdmin, identity.RoleManager); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		document, payloadErr := uploadFromPayload(input.Body.Document)
		if payloadErr != nil {
			return nil, payloadErr
		}
		if res := s.cfg.Tasks.Update(ctx, p.UserID, input.ID, service.UpdateTaskRequest{
			StartAt:  input.Body.StartAt,
			EndAt:    input.Body.EndAt,
			Content:  input.Body.Content,
			Document: document,
		}); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		got := s.cfg.Tasks.GetByID(ctx, input.ID)
		if got.IsFailure() {
			return nil, resultError(got.Err())
		}
		return &taskOutput{Body: s.taskResponse(got.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-task-status",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}/status",
		Summary:     "Change a task's progress",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   uuid.UUID `path:"id"`
		Body ChangeTaskStatusRequest
	}) (*taskOutput, error) {
		if err := requireRole(ctx, identity.RoleAdmin, identity.RoleDeveloper); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		progress, ok := parseProgress(input.Body.Progress)
		if !ok {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "progress is not valid", map[string]any{"field": "progress"})
		}
		if res := s.cfg.Tasks.ChangeStatus(ctx, p.UserID, input.ID, progress); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		got := s.cfg.Tasks.GetByID(ctx, input.ID)
		if got.IsFailure() {
			return nil, resultError(got.Err())
		}
		return &taskOutput{Body: s.taskResponse(got.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete a task",
		DefaultStatus: http.StatusNoContent,
		Errors: []int{
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID uuid.UUID `path:"id"`
	}) (*struct{}, error) {
		if err := requireRole(ctx, identity.RoleAdmin); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		if res := s.cfg.Tasks.Delete(ctx, p.UserID, input.ID); res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-task-comment",
		Method:        http.MethodPost,
		Path:          "/tasks/{id}/comments",
		Summary:       "Comment on a task",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   uuid.UUID `path:"id"`
		Body AddCommentRequest
	}) (*commentOutput, error) {
		if err := requireRole(ctx, identity.RoleAdmin, identity.RoleDeveloper); err != nil {
			return nil, handleError(err)
		}
		p, _ := principalFromContext(ctx)
		res := s.cfg.Tasks.AddComment(ctx, p.UserID, input.ID, input.Body.Content)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		return &commentOutput{Body: commentResponse(res.Value())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-task-comments",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}/comments",
		Summary:     "List a task's comments",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ID uuid.UUID `path:"id"`
	}) (*struct {
		Body []CommentResponse
	}, error) {
		if _, authErr := actorFromContext(ctx); authErr != nil {
			return nil, authErr
		}
		res := s.cfg.Tasks.GetComments(ctx, input.ID)
		if res.IsFailure() {
			return nil, resultError(res.Err())
		}
		comments := []CommentResponse{}
		for _, c := range res.Value() {
			comments = append(comments, commentResponse(c))
		}
		return &struct {
			Body []CommentResponse
		}{Body: comments}, nil
	})
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	r.Get(path.Join(basePath, "openapi.json"), func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{{"bearerAuth": {}}}
	public := map[string]struct{}{
		path.Join(basePath, "health"):               {},
		path.Join(basePath, "auth/login"):           {},
		path.Join(basePath, "auth/refresh"):         {},
		path.Join(basePath, "auth/forgot-password"): {},
		path.Join(basePath, "auth/reset-password"):  {},
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if _, ok := public[route]; ok {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join(basePath, "openapi.json")
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>TaskFlow API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}
