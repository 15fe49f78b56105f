package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type fakeFacultyRepo struct {
	items      map[string]*models.Faculty
	usernames  map[string]struct{}
	listResult []models.Faculty
	listTotal  int
}

func (f *fakeFacultyRepo) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	return f.listResult, f.listTotal, nil
}

func (f *fakeFacultyRepo) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	if faculty, ok := f.items[id]; ok {
		cp := *faculty
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFacultyRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, taken := f.usernames[username]
	return taken, nil
}

func (f *fakeFacultyRepo) Create(ctx context.Context, faculty *models.Faculty) error {
	if f.items == nil {
		f.items = make(map[string]*models.Faculty)
	}
	if faculty.ID == "" {
		faculty.ID = "generated"
	}
	cp := *faculty
	f.items[faculty.ID] = &cp
	return nil
}

func (f *fakeFacultyRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := f.items[id]; ok {
		delete(f.items, id)
		return true, nil
	}
	return false, nil
}

func TestFacultyServiceCreate(t *testing.T) {
	repo := &fakeFacultyRepo{}
	svc := NewFacultyService(repo, nil, zap.NewNop())

	info, err := svc.Create(context.Background(), CreateFacultyRequest{
		FullName: "Alice Johnson",
		Username: "alice",
		Password: "secret123",
		Subject:  "Mathematics",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Johnson", info.FullName)
	assert.Equal(t, models.RoleFaculty, info.Role)

	stored := repo.items[info.ID]
	require.NotNil(t, stored)
	assert.True(t, stored.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
}

func TestFacultyServiceCreateDuplicateUsername(t *testing.T) {
	repo := &fakeFacultyRepo{usernames: map[string]struct{}{"alice": {}}}
	svc := NewFacultyService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateFacultyRequest{
		FullName: "Alice Johnson",
		Username: "alice",
		Password: "secret123",
		Subject:  "Mathematics",
	})
	assertErrorCode(t, err, appErrors.ErrConflict.Code)
}

func TestFacultyServiceCreateValidatesPayload(t *testing.T) {
	svc := NewFacultyService(&fakeFacultyRepo{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateFacultyRequest{
		FullName: "Alice Johnson",
		Username: "al",
		Password: "short",
		Subject:  "Mathematics",
	})
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestFacultyServiceGetAndDelete(t *testing.T) {
	repo := &fakeFacultyRepo{items: map[string]*models.Faculty{
		"f1": {ID: "f1", FullName: "Alice Johnson", Active: true},
	}}
	svc := NewFacultyService(repo, nil, zap.NewNop())

	info, err := svc.Get(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Johnson", info.FullName)

	require.NoError(t, svc.Delete(context.Background(), "f1"))
	err = svc.Delete(context.Background(), "f1")
	assertErrorCode(t, err, appErrors.ErrNotFound.Code)
}

func TestFacultyServiceListPagination(t *testing.T) {
	repo := &fakeFacultyRepo{
		listResult: []models.Faculty{{ID: "f1", FullName: "Alice Johnson"}},
		listTotal:  42,
	}
	svc := NewFacultyService(repo, nil, zap.NewNop())

	infos, pagination, err := svc.List(context.Background(), models.FacultyFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, infos, 1)
	require.NotNil(t, pagination)
	assert.Equal(t, 42, pagination.TotalCount)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
}
