package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Fetch_CapturesETagAndShortCircuits(t *testing.T) {
	var sawValidator string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		sawValidator = r.Header.Get("If-None-Match")
		if sawValidator == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`{"gifts":[{"id":"g1","price":100,"is_limited":true,"remaining_count":5}]}`))
	}))
	defer srv.Close()

	monitor := NewMonitor(srv.URL, newTestLogger())

	gifts, err := monitor.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, gifts, 1)
	assert.Equal(t, "g1", gifts[0].ID)
	assert.True(t, gifts[0].Limited)
	assert.Empty(t, sawValidator, "first fetch must not send a validator")

	// Second fetch presents the validator and gets the 304 short
	// circuit, which is distinct from an empty catalog.
	gifts, err = monitor.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotModified)
	assert.Nil(t, gifts)
	assert.Equal(t, `"v1"`, sawValidator)
	assert.Equal(t, 2, calls)
}

func TestMonitor_Fetch_UnauthorizedIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"no token"}`))
	}))
	defer srv.Close()

	monitor := NewMonitor(srv.URL, newTestLogger())

	gifts, err := monitor.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gifts)
}

func TestMonitor_Fetch_NetworkErrorDegradesToEmpty(t *testing.T) {
	monitor := NewMonitor("http://127.0.0.1:1", newTestLogger())

	gifts, err := monitor.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gifts)
}
