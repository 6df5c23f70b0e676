package domain

import (
	"strings"

	"github.com/google/uuid"
)

type JobLevel int

const (
	JobLevelJunior JobLevel = iota
	JobLevelMid
	JobLevelSenior
	JobLevelLead
)

func (l JobLevel) String() string {
	switch l {
	case JobLevelJunior:
		return "junior"
	case JobLevelMid:
		return "mid"
	case JobLevelSenior:
		return "senior"
	case JobLevelLead:
		return "lead"
	default:
		return "unknown"
	}
}

const (
	minDeveloperAge = 18
	maxDeveloperAge = 80
)

// Developer is the profile aggregate linked to a credential-store user.
// Construction goes through NewDeveloper so an invalid instance cannot
// exist.
type Developer struct {
	Base
	FullName         string
	Age              int
	ImagePath        string
	JobTitle         string
	YearOfExperience int
	JobLevel         JobLevel
	UserID           uuid.UUID
	AssignedTasks    []*TaskEntity
}

// NewDeveloper validates and builds a developer. Rules run in a fixed
// order and the first failure wins.
func NewDeveloper(fullName string, age int, imagePath, jobTitle string, yearOfExperience int, jobLevel JobLevel, userID uuid.UUID) ValueResult[*Developer] {
	fullName = strings.TrimSpace(fullName)
	jobTitle = strings.TrimSpace(jobTitle)
	if err := validateDeveloper(fullName, age, jobTitle, yearOfExperience, userID); !err.IsNone() {
		return Fail[*Developer](err)
	}
	return Ok(&Developer{
		Base:             newBase(),
		FullName:         fullName,
		Age:              age,
		ImagePath:        strings.TrimSpace(imagePath),
		JobTitle:         jobTitle,
		YearOfExperience: yearOfExperience,
		JobLevel:         jobLevel,
		UserID:           userID,
	})
}

// Update applies new profile values under the same rules as the factory.
// A failed update leaves the developer untouched.
func (d *Developer) Update(fullName string, age int, jobTitle string, yearOfExperience int, jobLevel JobLevel) Result {
	fullName = strings.TrimSpace(fullName)
	jobTitle = strings.TrimSpace(jobTitle)
	if err := validateDeveloper(fullName, age, jobTitle, yearOfExperience, d.UserID); !err.IsNone() {
		return Failure(err)
	}
	d.FullName = fullName
	d.Age = age
	d.JobTitle = jobTitle
	d.YearOfExperience = yearOfExperience
	d.JobLevel = jobLevel
	return Success()
}

func (d *Developer) SetImagePath(path string) {
	d.ImagePath = strings.TrimSpace(path)
}

func (d *Developer) AssignTask(t *TaskEntity) Result {
	if t == nil {
		return Failure(TaskErrors.TaskNotExist)
	}
	for _, existing := range d.AssignedTasks {
		if existing.ID == t.ID {
			return Success()
		}
	}
	d.AssignedTasks = append(d.AssignedTasks, t)
	return Success()
}

func (d *Developer) RemoveTask(taskID uuid.UUID) Result {
	for i, t := range d.AssignedTasks {
		if t.ID == taskID {
			d.AssignedTasks = append(d.AssignedTasks[:i], d.AssignedTasks[i+1:]...)
			return Success()
		}
	}
	return Failure(TaskErrors.TaskNotExist)
}

func validateDeveloper(fullName string, age int, jobTitle string, yearOfExperience int, userID uuid.UUID) Error {
	if fullName == "" {
		return DeveloperErrors.InvalidFullName
	}
	if age < minDeveloperAge || age > maxDeveloperAge {
		return DeveloperErrors.InvalidAge
	}
	if jobTitle == "" {
		return DeveloperErrors.InvalidJobTitle
	}
	if yearOfExperience < 0 {
		return DeveloperErrors.InvalidYearOfExperience
	}
	if userID == uuid.Nil {
		return DeveloperErrors.InvalidUserID
	}
	return ErrNone
}
