package dispatch

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// MockGateway is a mock type for the Gateway dependency.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) SendGift(ctx context.Context, userID int64, giftID, text string) bool {
	args := m.Called(ctx, userID, giftID, text)
	return args.Bool(0)
}

// MockStore is a mock type for the Store dependency.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) AddBalance(ctx context.Context, userID int64, delta int64) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

// MockNotifier is a mock type for the Notifier dependency.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyOutcome(ctx context.Context, userID int64, gift models.Gift, success bool) {
	m.Called(ctx, userID, gift, success)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testCandidate() models.Candidate {
	return models.Candidate{
		User: models.AutobuyUser{UserID: 7, Balance: 1000, MaxPrice: 1000},
		Gift: models.Gift{ID: "g1", Title: "🌹", Price: 500},
	}
}

func TestDispatcher_Dispatch_SuccessDebitsExactlyPrice(t *testing.T) {
	gw := new(MockGateway)
	store := new(MockStore)
	notifier := new(MockNotifier)

	gw.On("SendGift", mock.Anything, int64(7), "g1", mock.Anything).Return(true).Once()
	store.On("AddBalance", mock.Anything, int64(7), int64(-500)).Return(nil).Once()
	notifier.On("NotifyOutcome", mock.Anything, int64(7), mock.Anything, true).Once()

	d := NewDispatcher(gw, store, notifier, newTestLogger())
	ok := d.Dispatch(context.Background(), testCandidate())

	assert.True(t, ok)
	gw.AssertExpectations(t)
	store.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestDispatcher_Dispatch_FailureLeavesBalanceUntouched(t *testing.T) {
	gw := new(MockGateway)
	store := new(MockStore)
	notifier := new(MockNotifier)

	gw.On("SendGift", mock.Anything, int64(7), "g1", mock.Anything).Return(false).Once()
	notifier.On("NotifyOutcome", mock.Anything, int64(7), mock.Anything, false).Once()

	d := NewDispatcher(gw, store, notifier, newTestLogger())
	ok := d.Dispatch(context.Background(), testCandidate())

	assert.False(t, ok)
	store.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_NilNotifierIsFine(t *testing.T) {
	gw := new(MockGateway)
	store := new(MockStore)

	gw.On("SendGift", mock.Anything, int64(7), "g1", mock.Anything).Return(true).Once()
	store.On("AddBalance", mock.Anything, int64(7), int64(-500)).Return(nil).Once()

	d := NewDispatcher(gw, store, nil, newTestLogger())
	assert.True(t, d.Dispatch(context.Background(), testCandidate()))
}
