package service

import (
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"taskflow/internal/domain"
)

const (
	minNameLen  = 3
	maxNameLen  = 50
	maxPageSize = 10
)

// Upload carries an attached file from the transport layer. A nil
// Upload means the caller sent no file.
type Upload struct {
	Name   string
	Reader io.Reader
}

type CreateDeveloperRequest struct {
	FullName         string
	Age              int
	JobTitle         string
	YearOfExperience int
	JobLevel         domain.JobLevel
	Email            string
	Password         string
	Image            *Upload
}

// Validate covers the request-shape rules the transport used to own:
// name lengths, email shape and the password policy. The domain factory
// still re-checks its own invariants.
func (r CreateDeveloperRequest) Validate() domain.Result {
	if !validName(r.FullName) {
		return domain.Failure(domain.DeveloperErrors.InvalidFullName)
	}
	if !validName(r.JobTitle) {
		return domain.Failure(domain.DeveloperErrors.InvalidJobTitle)
	}
	if !validEmail(r.Email) || !validPassword(r.Password) {
		return domain.Failure(domain.UserErrors.InvalidCredentials)
	}
	return domain.Success()
}

type UpdateDeveloperRequest struct {
	FullName         string
	Age              int
	JobTitle         string
	YearOfExperience int
	JobLevel         domain.JobLevel
	Image            *Upload
}

func (r UpdateDeveloperRequest) Validate() domain.Result {
	if !validName(r.FullName) {
		return domain.Failure(domain.DeveloperErrors.InvalidFullName)
	}
	if !validName(r.JobTitle) {
		return domain.Failure(domain.DeveloperErrors.InvalidJobTitle)
	}
	return domain.Success()
}

type AssignTaskRequest struct {
	StartAt     time.Time
	EndAt       time.Time
	Content     string
	DeveloperID uuid.UUID
	Document    *Upload
}

type UpdateTaskRequest struct {
	StartAt  time.Time
	EndAt    time.Time
	Content  string
	Document *Upload
}

func validName(s string) bool {
	n := len(strings.TrimSpace(s))
	return n >= minNameLen && n <= maxNameLen
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1
}

// validPassword requires at least five characters, one upper-case letter
// and one digit.
func validPassword(s string) bool {
	if len(s) < 5 {
		return false
	}
	var upper, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && digit
}

// clampPage normalizes pagination before it reaches the repository.
func clampPage(pageNumber, pageSize int) (int, int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageNumber, pageSize
}
