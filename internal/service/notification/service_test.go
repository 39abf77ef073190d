package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/notification"
	"dealbridge-billing/internal/domain/websocket"
	xerrors "dealbridge-billing/internal/pkg/errors"
	service "dealbridge-billing/internal/service/notification"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) Create(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	n.ID = 11
	return args.Error(0)
}

func (m *mockRepo) GetUserNotifications(ctx context.Context, userID string, f *notification.NotificationListFilters) ([]notification.Notification, int64, error) {
	args := m.Called(ctx, userID, f)
	return args.Get(0).([]notification.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepo) MarkAsRead(ctx context.Context, id int64, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockRepo) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id int64, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

type mockPusher struct{ mock.Mock }

func (m *mockPusher) BroadcastNotification(userID string, n *websocket.NotificationData) {
	m.Called(userID, n)
}

func (m *mockPusher) BroadcastNotificationCount(userID string, count int64) {
	m.Called(userID, count)
}

func (m *mockPusher) BroadcastBillingUpdate(userID string, u *websocket.BillingUpdate) {
	m.Called(userID, u)
}

func TestCreateAndPush(t *testing.T) {
	repo, hub := new(mockRepo), new(mockPusher)
	svc := service.NewNotificationService(repo, hub, zap.NewNop())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*notification.Notification")).Return(nil)
	hub.On("BroadcastNotification", "u1", mock.MatchedBy(func(d *websocket.NotificationData) bool {
		return d.ID == 11 && d.Type == "info"
	})).Return()

	n, err := svc.CreateAndPush(context.Background(), &notification.CreateNotificationRequest{
		UserID: "u1", Title: "Hi", Message: "there",
	})
	require.NoError(t, err)
	assert.Equal(t, notification.TypeInfo, n.Type)
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestNotifySwallowsErrors(t *testing.T) {
	repo, hub := new(mockRepo), new(mockPusher)
	svc := service.NewNotificationService(repo, hub, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		svc.Notify(context.Background(), "u1", notification.TypeBilling, "t", "m", nil)
	})
	hub.AssertNotCalled(t, "BroadcastNotification", mock.Anything, mock.Anything)
}

func TestMarkAsReadPushesCount(t *testing.T) {
	repo, hub := new(mockRepo), new(mockPusher)
	svc := service.NewNotificationService(repo, hub, zap.NewNop())

	repo.On("MarkAsRead", mock.Anything, int64(3), "u1").Return(nil)
	repo.On("GetUnreadCount", mock.Anything, "u1").Return(int64(2), nil)
	hub.On("BroadcastNotificationCount", "u1", int64(2)).Return()

	require.NoError(t, svc.MarkAsRead(context.Background(), 3, "u1"))
	hub.AssertExpectations(t)
}

func TestMarkAsReadNotFound(t *testing.T) {
	repo, hub := new(mockRepo), new(mockPusher)
	svc := service.NewNotificationService(repo, hub, zap.NewNop())

	repo.On("MarkAsRead", mock.Anything, int64(3), "u1").Return(xerrors.ErrNotFound)

	err := svc.MarkAsRead(context.Background(), 3, "u1")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestGetUserNotifications(t *testing.T) {
	repo := new(mockRepo)
	svc := service.NewNotificationService(repo, nil, zap.NewNop())
	filters := &notification.NotificationListFilters{Page: 1, PageSize: 2}

	repo.On("GetUserNotifications", mock.Anything, "u1", filters).
		Return([]notification.Notification{{ID: 1}, {ID: 2}}, int64(5), nil)
	repo.On("GetUnreadCount", mock.Anything, "u1").Return(int64(4), nil)

	resp, err := svc.GetUserNotifications(context.Background(), "u1", filters)
	require.NoError(t, err)
	assert.Len(t, resp.Notifications, 2)
	assert.Equal(t, int64(4), resp.Unread)
	assert.Equal(t, 3, resp.TotalPages)
}
