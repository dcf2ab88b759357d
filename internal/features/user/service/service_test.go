package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gift-store-backend/internal/common/errors"
	"gift-store-backend/internal/features/user/models"
	"gift-store-backend/internal/features/user/repository"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) UpsertTelegram(ctx context.Context, tgID int64, username, avatarURL *string) (*models.User, error) {
	args := m.Called(ctx, tgID, username, avatarURL)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockRepo) UpsertByAdmin(ctx context.Context, tgID int64, username *string) (*models.User, error) {
	args := m.Called(ctx, tgID, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockRepo) GetByTgID(ctx context.Context, tgID int64) (*models.User, error) {
	args := m.Called(ctx, tgID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockRepo) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	args := m.Called(ctx, query, limit)
	u, _ := args.Get(0).([]*models.User)
	return u, args.Error(1)
}

func TestEnsureTelegramUser_EmptyFieldsBecomeNil(t *testing.T) {
	repo := new(mockRepo)
	svc := NewUserService(repo)

	repo.On("UpsertTelegram", mock.Anything, int64(42), mock.MatchedBy(func(u *string) bool {
		return u != nil && *u == "ann"
	}), (*string)(nil)).Return(&models.User{ID: 7, TgID: 42}, nil)

	id, err := svc.EnsureTelegramUser(context.Background(), 42, " ann ", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	repo.AssertExpectations(t)
}

func TestEnsureTelegramUser_RequiresID(t *testing.T) {
	svc := NewUserService(new(mockRepo))

	_, err := svc.EnsureTelegramUser(context.Background(), 0, "ann", "")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.IsValidation())
}

func TestGetProfile(t *testing.T) {
	repo := new(mockRepo)
	svc := NewUserService(repo)

	name := "ann"
	repo.On("GetByTgID", mock.Anything, int64(42)).Return(&models.User{TgID: 42, Username: &name, Stars: 300, BoughtGifts: 2}, nil)
	repo.On("GetByTgID", mock.Anything, int64(43)).Return(nil, repository.ErrUserNotFound)

	p, err := svc.GetProfile(context.Background(), 42, false)
	require.NoError(t, err)
	assert.Nil(t, p.Stars)
	assert.Equal(t, int64(2), p.BoughtGifts)

	p, err = svc.GetProfile(context.Background(), 42, true)
	require.NoError(t, err)
	require.NotNil(t, p.Stars)
	assert.Equal(t, int64(300), *p.Stars)

	p, err = svc.GetProfile(context.Background(), 43, true)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetByTgID_Errors(t *testing.T) {
	repo := new(mockRepo)
	svc := NewUserService(repo)

	repo.On("GetByTgID", mock.Anything, int64(1)).Return(nil, repository.ErrUserNotFound)
	repo.On("GetByTgID", mock.Anything, int64(2)).Return(nil, stderrors.New("conn refused"))

	_, err := svc.GetByTgID(context.Background(), 1)
	appErr, _ := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeUserNotFound, appErr.Code)

	_, err = svc.GetByTgID(context.Background(), 2)
	appErr, _ = errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrCodeDatabaseError, appErr.Code)
}

func TestAdminUpsert(t *testing.T) {
	repo := new(mockRepo)
	svc := NewUserService(repo)

	repo.On("UpsertByAdmin", mock.Anything, int64(42), (*string)(nil)).Return(&models.User{ID: 3, TgID: 42}, nil)

	u, err := svc.AdminUpsert(context.Background(), 42, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)

	_, err = svc.AdminUpsert(context.Background(), 0, nil)
	assert.Error(t, err)
	repo.AssertNumberOfCalls(t, "UpsertByAdmin", 1)
}
