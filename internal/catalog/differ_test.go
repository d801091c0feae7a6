package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paaavkata/gift-autobuy-bot/internal/gateway"
	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// MockStore is a mock type for the differ's Store dependency.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) KnownGiftIDs(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockStore) UpsertGiftsCache(ctx context.Context, gifts []models.Gift) error {
	args := m.Called(ctx, gifts)
	return args.Error(0)
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newDifferAgainst(t *testing.T, body string) (*Differ, *MockStore) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := gateway.NewClient(gateway.Config{Token: "TEST", BaseURL: srv.URL},
		gateway.NewRateLimiter(1000), nil, newTestLogger())
	store := new(MockStore)
	return NewDiffer(client, store, newTestLogger()), store
}

const twoGiftsBody = `{"ok":true,"result":{"gifts":[
	{"id":"g1","star_count":500,"sticker":{"emoji":"🌹"}},
	{"id":"g2","star_count":1200,"sticker":{"emoji":"🐯"}}
]}}`

func TestDiffer_Poll_AllNew(t *testing.T) {
	differ, store := newDifferAgainst(t, twoGiftsBody)

	store.On("KnownGiftIDs", mock.Anything).Return(map[string]struct{}{}, nil).Once()
	store.On("UpsertGiftsCache", mock.Anything, mock.MatchedBy(func(gifts []models.Gift) bool {
		// Every fetched gift is upserted, not just new ones.
		return len(gifts) == 2
	})).Return(nil).Once()

	fresh, err := differ.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	// Catalog order preserved.
	assert.Equal(t, "g1", fresh[0].ID)
	assert.Equal(t, "g2", fresh[1].ID)
	store.AssertExpectations(t)
}

func TestDiffer_Poll_SecondPollYieldsNothingNew(t *testing.T) {
	differ, store := newDifferAgainst(t, twoGiftsBody)

	known := map[string]struct{}{"g1": {}, "g2": {}}
	store.On("KnownGiftIDs", mock.Anything).Return(known, nil).Once()
	store.On("UpsertGiftsCache", mock.Anything, mock.Anything).Return(nil).Once()

	fresh, err := differ.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
	store.AssertExpectations(t)
}

func TestDiffer_Poll_PartialDiff(t *testing.T) {
	differ, store := newDifferAgainst(t, twoGiftsBody)

	store.On("KnownGiftIDs", mock.Anything).Return(map[string]struct{}{"g1": {}}, nil).Once()
	store.On("UpsertGiftsCache", mock.Anything, mock.Anything).Return(nil).Once()

	fresh, err := differ.Poll(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "g2", fresh[0].ID)
}

func TestDiffer_Poll_ProviderFailureYieldsEmpty(t *testing.T) {
	differ, store := newDifferAgainst(t, `{"ok":false,"error_code":500,"description":"boom"}`)

	fresh, err := differ.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
	// Nothing touched the store on a failed fetch.
	store.AssertNotCalled(t, "UpsertGiftsCache", mock.Anything, mock.Anything)
}

func TestParseGiftList_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"wrapped in gifts", `{"gifts":[{"id":"a"},{"id":"b"}]}`, 2},
		{"wrapped in items", `{"items":[{"id":"a"}]}`, 1},
		{"bare array", `[{"id":"a"},{"id":"b"},{"id":"c"}]`, 3},
		{"entries without id dropped", `{"gifts":[{"id":"a"},{"price":5}]}`, 1},
		{"empty", ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gifts, err := ParseGiftList([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, gifts, tt.want)
		})
	}
}
