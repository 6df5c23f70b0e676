package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"taskflow/internal/blob"
	"taskflow/internal/domain"
	"taskflow/internal/events"
	"taskflow/internal/identity"
	"taskflow/internal/repo"
)

// DeveloperService orchestrates the developer use cases: credential
// creation, profile image storage and the profile aggregate all succeed
// together or are unwound together.
type DeveloperService struct {
	DB     *sql.DB
	Users  *identity.Store
	Files  *blob.Store
	Events *events.Writer
	Logger *slog.Logger
}

func NewDeveloperService(db *sql.DB, users *identity.Store, files *blob.Store, logger *slog.Logger) *DeveloperService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeveloperService{DB: db, Users: users, Files: files, Logger: logger}
}

// Create registers the credential account, stores the optional profile
// image and persists the profile. Any failure after a side effect runs
// the registered compensations in reverse.
func (s *DeveloperService) Create(ctx context.Context, actorID uuid.UUID, req CreateDeveloperRequest) domain.ValueResult[*domain.Developer] {
	if res := req.Validate(); res.IsFailure() {
		return domain.Fail[*domain.Developer](res.Err())
	}

	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	developers := repo.Developers(uow)

	exists, err := developers.IsExist(ctx, repo.DeveloperByProfile(req.FullName, req.JobTitle, req.YearOfExperience))
	if err != nil {
		s.Logger.Error("developer uniqueness check failed", "error", err)
		return domain.Fail[*domain.Developer](domain.DeveloperErrors.FailToCreate)
	}
	if exists {
		return domain.Fail[*domain.Developer](domain.DeveloperErrors.DeveloperAlreadyExist)
	}
	existing, err := s.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		s.Logger.Error("user lookup failed", "error", err)
		return domain.Fail[*domain.Developer](domain.DeveloperErrors.FailToCreate)
	}
	if existing != nil {
		return domain.Fail[*domain.Developer](domain.UserErrors.UserAlreadyExist)
	}

	comp := newCompensator(s.Logger)
	user := identity.NewUser(req.Email)
	if err := s.Users.CreateUser(ctx, user, req.Password); err != nil {
		s.Logger.Error("credential creation failed", "error", err)
		return domain.Fail[*domain.Developer](domain.UserErrors.FailToCreate)
	}
	comp.register(func() error { return s.Users.DeleteUser(context.Background(), user.ID) })

	imagePath := ""
	if req.Image != nil {
		imagePath, err = s.Files.Upload(req.Image.Name, req.Image.Reader, "")
		if err != nil {
			comp.run()
			return domain.Fail[*domain.Developer](uploadError(err))
		}
		path := imagePath
		comp.register(func() error { return s.Files.Remove(path) })
	}

	made := domain.NewDeveloper(req.FullName, req.Age, imagePath, req.JobTitle, req.YearOfExperience, req.JobLevel, user.ID)
	if made.IsFailure() {
		comp.run()
		return made
	}
	dev := made.Value()
	developers.Create(dev)
	stageEvent(uow, s.Events, "developer.created", "developer", dev.ID, events.Payload{"full_name": dev.FullName})
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("developer save failed", "error", err)
		}
		comp.run()
		return domain.Fail[*domain.Developer](domain.DeveloperErrors.FailToCreate)
	}
	if err := s.Users.AddToRole(ctx, user.ID, identity.RoleDeveloper); err != nil {
		s.Logger.Error("role grant failed", "user_id", user.ID, "error", err)
	}
	comp.discard()
	s.Logger.Info("developer created", "developer_id", dev.ID, "user_id", user.ID)
	return domain.Ok(dev)
}

func (s *DeveloperService) GetAll(ctx context.Context, pageNumber, pageSize int) domain.ValueResult[domain.PagesResult[*domain.Developer]] {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	page, err := paged(ctx, repo.Developers(uow), repo.Query{}, pageNumber, pageSize)
	if err != nil {
		s.Logger.Error("developer page fetch failed", "error", err)
		return domain.Fail[domain.PagesResult[*domain.Developer]](domain.InternalError("Developer.FailToQuery", "Developers could not be loaded"))
	}
	return domain.Ok(page)
}

// GetByID loads a developer with the assigned tasks eager-loaded.
func (s *DeveloperService) GetByID(ctx context.Context, id uuid.UUID) domain.ValueResult[*domain.Developer] {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	dev, err := repo.Developers(uow).GetByID(ctx, id, repo.IncludeAssignedTasks)
	if err != nil {
		s.Logger.Error("developer fetch failed", "developer_id", id, "error", err)
		return domain.Fail[*domain.Developer](domain.InternalError("Developer.FailToQuery", "Developer could not be loaded"))
	}
	if dev == nil {
		return domain.Fail[*domain.Developer](domain.DeveloperErrors.DeveloperNotExist)
	}
	return domain.Ok(dev)
}

// Update rewrites the profile. A new image is written before the commit
// and the replaced one is removed only after it, so a failed commit
// never orphans the old image.
func (s *DeveloperService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateDeveloperRequest) domain.Result {
	if res := req.Validate(); res.IsFailure() {
		return res
	}
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	developers := repo.Developers(uow)
	dev, err := developers.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("developer fetch failed", "developer_id", id, "error", err)
		return domain.Failure(domain.DeveloperErrors.FailToUpdate)
	}
	if dev == nil {
		return domain.Failure(domain.DeveloperErrors.DeveloperNotExist)
	}

	comp := newCompensator(s.Logger)
	oldImage := dev.ImagePath
	if req.Image != nil {
		newImage, err := s.Files.Upload(req.Image.Name, req.Image.Reader, "")
		if err != nil {
			return domain.Failure(uploadError(err))
		}
		comp.register(func() error { return s.Files.Remove(newImage) })
		dev.SetImagePath(newImage)
	}
	if res := dev.Update(req.FullName, req.Age, req.JobTitle, req.YearOfExperience, req.JobLevel); res.IsFailure() {
		comp.run()
		return res
	}
	developers.Update(dev)
	stageEvent(uow, s.Events, "developer.updated", "developer", dev.ID, nil)
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("developer update failed", "developer_id", id, "error", err)
		}
		comp.run()
		return domain.Failure(domain.DeveloperErrors.FailToUpdate)
	}
	comp.discard()
	if req.Image != nil && oldImage != "" {
		if err := s.Files.Remove(oldImage); err != nil {
			s.Logger.Error("replaced image removal failed", "path", oldImage, "error", err)
		}
	}
	return domain.Success()
}

// Delete soft-deletes the profile; the stored image is removed only
// after the commit succeeds.
func (s *DeveloperService) Delete(ctx context.Context, actorID, id uuid.UUID) domain.Result {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	developers := repo.Developers(uow)
	dev, err := developers.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("developer fetch failed", "developer_id", id, "error", err)
		return domain.Failure(domain.DeveloperErrors.FailToDelete)
	}
	if dev == nil {
		return domain.Failure(domain.DeveloperErrors.DeveloperNotExist)
	}
	developers.Delete(dev)
	stageEvent(uow, s.Events, "developer.deleted", "developer", dev.ID, nil)
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("developer delete failed", "developer_id", id, "error", err)
		}
		return domain.Failure(domain.DeveloperErrors.FailToDelete)
	}
	if dev.ImagePath != "" {
		if err := s.Files.Remove(dev.ImagePath); err != nil {
			s.Logger.Error("image removal failed", "path", dev.ImagePath, "error", err)
		}
	}
	s.Logger.Info("developer deleted", "developer_id", id)
	return domain.Success()
}
