package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Comment is owned by a task and written by a developer.
type Comment struct {
	Base
	Content     string
	TaskID      uuid.UUID
	DeveloperID uuid.UUID
}

func NewComment(content string, taskID, developerID uuid.UUID) ValueResult[*Comment] {
	content = strings.TrimSpace(content)
	if content == "" {
		return Fail[*Comment](CommentErrors.InvalidContent)
	}
	if taskID == uuid.Nil {
		return Fail[*Comment](CommentErrors.InvalidTaskID)
	}
	if developerID == uuid.Nil {
		return Fail[*Comment](CommentErrors.InvalidDeveloperID)
	}
	return Ok(&Comment{
		Base:        newBase(),
		Content:     content,
		TaskID:      taskID,
		DeveloperID: developerID,
	})
}

func (c *Comment) Update(content string) Result {
	content = strings.TrimSpace(content)
	if content == "" {
		return Failure(CommentErrors.InvalidContent)
	}
	c.Content = content
	return Success()
}
