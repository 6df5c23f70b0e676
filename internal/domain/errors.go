package domain

// Error catalogs. One var block per aggregate, codes namespaced by the
// aggregate name so clients can branch without string matching messages.

var DeveloperErrors = struct {
	InvalidFullName         Error
	InvalidAge              Error
	InvalidJobTitle         Error
	InvalidYearOfExperience Error
	InvalidUserID           Error
	DeveloperAlreadyExist   Error
	DeveloperNotExist       Error
	FailToCreate            Error
	FailToUpdate            Error
	FailToDelete            Error
}{
	InvalidFullName:         ValidationError("Developer.InvalidFullName", "Full name is required"),
	InvalidAge:              ValidationError("Developer.InvalidAge", "Age must be between 18 and 80"),
	InvalidJobTitle:         ValidationError("Developer.InvalidJobTitle", "Job title is required"),
	InvalidYearOfExperience: ValidationError("Developer.InvalidYearOfExperience", "Year of experience must be zero or greater"),
	InvalidUserID:           ValidationError("Developer.InvalidUserId", "User id is required"),
	DeveloperAlreadyExist:   ConflictError("Developer.DeveloperAlreadyExist", "Developer already exist"),
	DeveloperNotExist:       NotFoundError("Developer.DeveloperNotExist", "Developer is not exist"),
	FailToCreate:            FailureError("Developer.FailToCreate", "Developer could not be created"),
	FailToUpdate:            FailureError("Developer.FailToUpdate", "Developer could not be updated"),
	FailToDelete:            FailureError("Developer.FailToDelete", "Developer could not be deleted"),
}

var TaskErrors = struct {
	InvalidStartDate    Error
	InvalidEndDate      Error
	InvalidDateRange    Error
	InvalidContent      Error
	InvalidDocumentPath Error
	InvalidDeveloperID  Error
	InvalidProgress     Error
	AlreadyFinished     Error
	NotFinished         Error
	TaskNotExist        Error
	FailToCreate        Error
	FailToUpdate        Error
	FailToDelete        Error
}{
	InvalidStartDate:    ValidationError("Task.InvalidStartDate", "Start date must be in the future"),
	InvalidEndDate:      ValidationError("Task.InvalidEndDate", "End date must be in the future"),
	InvalidDateRange:    ValidationError("Task.InvalidDateRange", "Start date must be earlier than end date"),
	InvalidContent:      ValidationError("Task.InvalidContent", "Content must not exceed 1000 characters"),
	InvalidDocumentPath: ValidationError("Task.InvalidDocumentPath", "Document path must not exceed 500 characters"),
	InvalidDeveloperID:  ValidationError("Task.InvalidDeveloperId", "Developer id is required"),
	InvalidProgress:     ValidationError("Task.InvalidProgress", "Progress value is not valid"),
	AlreadyFinished:     ConflictError("Task.AlreadyFinished", "Task is already finished"),
	NotFinished:         ConflictError("Task.NotFinished", "Task is not finished"),
	TaskNotExist:        NotFoundError("Task.TaskNotExist", "Task is not exist"),
	FailToCreate:        FailureError("Task.FailToCreate", "Task could not be created"),
	FailToUpdate:        FailureError("Task.FailToUpdate", "Task could not be updated"),
	FailToDelete:        FailureError("Task.FailToDelete", "Task could not be deleted"),
}

var CommentErrors = struct {
	InvalidContent     Error
	InvalidTaskID      Error
	InvalidDeveloperID Error
	CommentNotExist    Error
	FailToCreate       Error
}{
	InvalidContent:     ValidationError("Comment.InvalidContent", "Content is required"),
	InvalidTaskID:      ValidationError("Comment.InvalidTaskId", "Task id is required"),
	InvalidDeveloperID: ValidationError("Comment.InvalidDeveloperId", "Developer id is required"),
	CommentNotExist:    NotFoundError("Comment.CommentNotExist", "Comment is not exist"),
	FailToCreate:       FailureError("Comment.FailToCreate", "Comment could not be created"),
}

var FileErrors = struct {
	TooLarge            Error
	ExtensionNotAllowed Error
	FailToStore         Error
}{
	TooLarge:            ValidationError("File.TooLarge", "File exceeds the maximum allowed size"),
	ExtensionNotAllowed: ValidationError("File.ExtensionNotAllowed", "File extension is not allowed"),
	FailToStore:         FailureError("File.FailToStore", "File could not be stored"),
}

var UserErrors = struct {
	InvalidCredentials   Error
	UserNotExist         Error
	UserAlreadyExist     Error
	InvalidRefreshToken  Error
	InvalidResetToken    Error
	PasswordMismatch     Error
	FailToCreate         Error
	FailToLogin          Error
	FailToChangePassword Error
	FailToResetPassword  Error
}{
	InvalidCredentials:   ValidationError("User.InvalidCredentials", "Invalid email or password"),
	UserNotExist:         NotFoundError("User.UserNotExist", "User is not exist"),
	UserAlreadyExist:     ConflictError("User.UserAlreadyExist", "User already exist"),
	InvalidRefreshToken:  ValidationError("User.InvalidRefreshToken", "Refresh token is not valid"),
	InvalidResetToken:    ValidationError("User.InvalidResetToken", "Reset token is not valid"),
	PasswordMismatch:     ValidationError("User.PasswordMismatch", "Current password is incorrect"),
	FailToCreate:         FailureError("User.FailToCreate", "User could not be created"),
	FailToLogin:          InternalError("User.FailToLogin", "Login could not be processed"),
	FailToChangePassword: FailureError("User.FailToChangePassword", "Password could not be changed"),
	FailToResetPassword:  FailureError("User.FailToResetPassword", "Password could not be reset"),
}
