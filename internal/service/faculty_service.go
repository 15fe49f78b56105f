package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type facultyRepositoryPort interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, faculty *models.Faculty) error
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateFacultyRequest describes payload for registering a faculty account.
type CreateFacultyRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	Subject  string `json:"subject" validate:"required"`
}

// FacultyService manages faculty accounts.
type FacultyService struct {
	repo      facultyRepositoryPort
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService instantiates FacultyService.
func NewFacultyService(repo facultyRepositoryPort, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, validator: validate, logger: logger}
}

// List returns faculty with pagination metadata.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.FacultyInfo, *models.Pagination, error) {
	faculty, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}

	infos := make([]models.FacultyInfo, 0, len(faculty))
	for _, f := range faculty {
		infos = append(infos, f.Info())
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 100
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return infos, pagination, nil
}

// Get loads one faculty account.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.FacultyInfo, error) {
	faculty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	info := faculty.Info()
	return &info, nil
}

// Create registers a new faculty account with a hashed credential.
func (s *FacultyService) Create(ctx context.Context, req CreateFacultyRequest) (*models.FacultyInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	taken, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	faculty := &models.Faculty{
		FullName:     req.FullName,
		Username:     req.Username,
		PasswordHash: string(hash),
		Subject:      req.Subject,
		Role:         models.RoleFaculty,
		Active:       true,
	}
	if err := s.repo.Create(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}

	info := faculty.Info()
	return &info, nil
}

// Delete removes a faculty account.
func (s *FacultyService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
	}
	return nil
}
