package mocks

import (
	"github.com/stretchr/testify/mock"

	"realtime-service/internal/models"
)

// HubMock records the realtime calls made by the REST layer.
type HubMock struct {
	mock.Mock
}

func (m *HubMock) Deliver(chatID string, msg models.Message, senderConnID string) {
	m.Called(chatID, msg, senderConnID)
}

func (m *HubMock) MarkRead(chatID, readerID, readerConnID string) {
	m.Called(chatID, readerID, readerConnID)
}

func (m *HubMock) NotifyUser(userID, event string, payload any) bool {
	args := m.Called(userID, event, payload)
	return args.Bool(0)
}

func (m *HubMock) NotifyAdmins(event string, payload any) {
	m.Called(event, payload)
}

func (m *HubMock) IsOnline(userID string) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *HubMock) UserOf(connID string) string {
	args := m.Called(connID)
	return args.String(0)
}
