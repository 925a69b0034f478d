package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
	"realtime-service/internal/ws"
)

type friendDeps struct {
	friends       *mocks.FriendRepositoryMock
	users         *mocks.UserRepositoryMock
	notifications *mocks.NotificationRepositoryMock
	hub           *mocks.HubMock
}

func setupFriendRouter(userID string) (*gin.Engine, friendDeps) {
	gin.SetMode(gin.TestMode)
	d := friendDeps{
		friends:       new(mocks.FriendRepositoryMock),
		users:         new(mocks.UserRepositoryMock),
		notifications: new(mocks.NotificationRepositoryMock),
		hub:           new(mocks.HubMock),
	}
	handler := NewFriendHandler(d.friends, d.users, d.notifications, d.hub)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.POST("/friends/requests", handler.SendRequest)
	r.POST("/friends/requests/:request_id/accept", handler.AcceptRequest)
	r.DELETE("/friends/requests/:request_id", handler.CancelRequest)
	r.DELETE("/friends/:friend_id", handler.RemoveFriend)
	return r, d
}

func (d friendDeps) assertExpectations(t *testing.T) {
	d.friends.AssertExpectations(t)
	d.users.AssertExpectations(t)
	d.notifications.AssertExpectations(t)
	d.hub.AssertExpectations(t)
}

func TestSendFriendRequestNotifiesRecipient(t *testing.T) {
	router, d := setupFriendRouter("alice")
	request := models.FriendRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.FriendRequestPending}
	payload := gin.H{"requestId": "r1", "from": models.PublicProfile{ID: "alice", Username: "ali"}}

	d.friends.On("CreateRequest", mock.Anything, "alice", "bob").Return(request, nil).Once()
	d.users.On("GetUser", mock.Anything, "alice").Return(models.User{ID: "alice", Username: "ali"}, nil).Once()
	d.notifications.On("Create", mock.Anything, "bob", models.NotificationFriendRequest, payload).Return(models.Notification{ID: "n1"}, nil).Once()
	d.hub.On("NotifyUser", "bob", ws.EventFriendRequest, payload).Return(false).Once()

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"to":"bob"}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	d.assertExpectations(t)
}

func TestSendFriendRequestConflicts(t *testing.T) {
	cases := map[error]int{
		repositories.ErrAlreadyFriends:      http.StatusConflict,
		repositories.ErrFriendRequestExists: http.StatusConflict,
		repositories.ErrSelfFriend:          http.StatusBadRequest,
		assert.AnError:                      http.StatusInternalServerError,
	}
	for repoErr, status := range cases {
		router, d := setupFriendRouter("alice")
		d.friends.On("CreateRequest", mock.Anything, "alice", "bob").Return(models.FriendRequest{}, repoErr).Once()

		rec := serve(router, httptest.NewRequest(http.MethodPost, "/friends/requests", bytes.NewBufferString(`{"to":"bob"}`)))

		assert.Equal(t, status, rec.Code, repoErr.Error())
		d.hub.AssertNotCalled(t, "NotifyUser", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestAcceptFriendRequestNotifiesSender(t *testing.T) {
	router, d := setupFriendRouter("bob")
	request := models.FriendRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.FriendRequestAccepted}
	payload := gin.H{"requestId": "r1", "by": models.PublicProfile{ID: "bob", Username: "bobby"}}

	d.friends.On("AcceptRequest", mock.Anything, "r1", "bob").Return(request, nil).Once()
	d.users.On("GetUser", mock.Anything, "bob").Return(models.User{ID: "bob", Username: "bobby"}, nil).Once()
	d.notifications.On("Create", mock.Anything, "alice", models.NotificationFriendAccepted, payload).Return(models.Notification{}, nil).Once()
	d.hub.On("NotifyUser", "alice", ws.EventFriendAccept, payload).Return(true).Once()

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/friends/requests/r1/accept", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	d.assertExpectations(t)
}

func TestAcceptFriendRequestNotFound(t *testing.T) {
	router, d := setupFriendRouter("bob")
	d.friends.On("AcceptRequest", mock.Anything, "r9", "bob").Return(models.FriendRequest{}, repositories.ErrFriendRequestNotFound).Once()

	rec := serve(router, httptest.NewRequest(http.MethodPost, "/friends/requests/r9/accept", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	d.assertExpectations(t)
}

func TestCancelFriendRequestByRecipientNotifiesSender(t *testing.T) {
	router, d := setupFriendRouter("bob")
	request := models.FriendRequest{ID: "r1", FromID: "alice", ToID: "bob", Status: models.FriendRequestCanceled}
	payload := gin.H{"requestId": "r1", "from": models.PublicProfile{ID: "bob"}}

	d.friends.On("CancelRequest", mock.Anything, "r1", "bob").Return(request, nil).Once()
	d.users.On("GetUser", mock.Anything, "bob").Return(models.User{}, repositories.ErrUserNotFound).Once()
	d.notifications.On("Create", mock.Anything, "alice", models.NotificationFriendCanceled, payload).Return(models.Notification{}, nil).Once()
	d.hub.On("NotifyUser", "alice", ws.EventFriendCancel, payload).Return(true).Once()

	rec := serve(router, httptest.NewRequest(http.MethodDelete, "/friends/requests/r1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	d.assertExpectations(t)
}

func TestRemoveFriendNotifiesFormerFriend(t *testing.T) {
	router, d := setupFriendRouter("alice")
	payload := gin.H{"by": models.PublicProfile{ID: "alice", Username: "ali"}}

	d.friends.On("RemoveFriend", mock.Anything, "alice", "bob").Return(nil).Once()
	d.users.On("GetUser", mock.Anything, "alice").Return(models.User{ID: "alice", Username: "ali"}, nil).Once()
	d.notifications.On("Create", mock.Anything, "bob", models.NotificationFriendRemoved, payload).Return(models.Notification{}, assert.AnError).Once()
	d.hub.On("NotifyUser", "bob", ws.EventFriendRemoved, payload).Return(true).Once()

	rec := serve(router, httptest.NewRequest(http.MethodDelete, "/friends/bob", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	d.assertExpectations(t)
}

func TestRemoveFriendNotFriends(t *testing.T) {
	router, d := setupFriendRouter("alice")
	d.friends.On("RemoveFriend", mock.Anything, "alice", "zed").Return(repositories.ErrNotFriends).Once()

	rec := serve(router, httptest.NewRequest(http.MethodDelete, "/friends/zed", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	d.assertExpectations(t)
}
