package postgrest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fau-Caudullo/happyapp/internal/model"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore/rowstoretest"
)

const testKey = "anon-test-key"

func newClient(url string, retries int) *Client {
	return New(Options{
		BaseURL:     url,
		APIKey:      testKey,
		Timeout:     2 * time.Second,
		MaxRetries:  retries,
		BaseBackoff: time.Millisecond,
	}, zerolog.Nop())
}

func TestPostgRESTClient_Compliance(t *testing.T) {
	rowstoretest.Run(t, func(t *testing.T) rowstore.Store {
		srv := httptest.NewServer(newFakePostgREST(testKey))
		t.Cleanup(srv.Close)
		return newClient(srv.URL, 0)
	})
}

func TestPostgRESTClient_QueryShape(t *testing.T) {
	var lastQuery atomic.Value
	fake := newFakePostgREST(testKey)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastQuery.Store(r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery)
		if r.Method != http.MethodGet {
			assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		}
		fake.ServeHTTP(w, r)
	}))
	defer srv.Close()
	c := newClient(srv.URL, 0)
	ctx := context.Background()

	_, err := c.ListMetrics(ctx, model.MetricWeight)
	require.NoError(t, err)
	assert.Equal(t, "GET /rest/v1/health_metrics?order=created_at.asc&select=%2A&type=eq.weight", lastQuery.Load())

	_, err = c.ListMedications(ctx)
	require.NoError(t, err)
	assert.Equal(t, "GET /rest/v1/medications?order=schedule_time.asc&select=%2A", lastQuery.Load())

	m, err := c.InsertMedication(ctx, "Aspirin", "", "08:00:00")
	require.NoError(t, err)
	_, err = c.UpdateMedication(ctx, m.ID, model.MedicationUpdate{ClearLastTaken: true})
	require.NoError(t, err)
	assert.Equal(t, "PATCH /rest/v1/medications?id=eq.1", lastQuery.Load())
}

func TestPostgRESTClient_RetriesRecoverableReads(t *testing.T) {
	var calls atomic.Int32
	fake := newFakePostgREST(testKey)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fake.ServeHTTP(w, r)
	}))
	defer srv.Close()

	meds, err := newClient(srv.URL, 2).ListMedications(context.Background())
	require.NoError(t, err)
	assert.Empty(t, meds)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostgRESTClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 2).ListMetrics(context.Background(), "")
	require.Error(t, err)
	assert.True(t, model.IsUpstreamError(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostgRESTClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 3).ListMoods(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsUpstreamError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostgRESTClient_DoesNotRetryWrites(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 3).InsertMetric(context.Background(), model.MetricWater, 250, "ml")
	require.Error(t, err)
	assert.True(t, model.IsUpstreamError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostgRESTClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(url, 1)
	_, err := c.ListMedications(context.Background())
	require.Error(t, err)
	assert.True(t, model.IsUpstreamError(err))
	assert.Error(t, c.HealthPing(context.Background()))
}

func TestPostgRESTClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClient(srv.URL, 5).ListMedications(ctx)
	require.Error(t, err)
}

func TestStatusError_Recoverable(t *testing.T) {
	for code, want := range map[int]bool{400: false, 401: false, 404: false, 408: true, 429: true, 500: true, 503: true} {
		se := &rowstore.StatusError{Op: "list", StatusCode: code}
		assert.Equal(t, want, se.Recoverable(), "status %d", code)
	}
}
