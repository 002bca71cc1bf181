package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/emuka/emuka/pkg/api"
	"github.com/emuka/emuka/pkg/audio"
	"github.com/emuka/emuka/pkg/logger"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T, d *audio.Distributor) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/audio/register", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(api.AudioRegisterResponse{Id: d.Register()})
	})
	mux.HandleFunc("GET /api/v1/audio/get/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.FromString(r.PathValue("id"))
		require.NoError(t, err)
		samples, _ := d.Drain(id)
		require.NoError(t, api.EncodeAudio(w, api.NewAudioRecord(samples)))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRegisterAndFetch(t *testing.T) {
	d := audio.NewDistributor()
	srv := fakeServer(t, d)
	c := New(srv.URL+"/", logger.Discard())

	id, err := c.Register(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Consumers())

	d.Push(audio.Sample{Left: 5, Right: -5})
	samples, err := c.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, audio.Samples{{Left: 5, Right: -5}}, samples)

	samples, err = c.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestPoll(t *testing.T) {
	d := audio.NewDistributor()
	srv := fakeServer(t, d)
	c := New(srv.URL, logger.Discard(), WithPeriod(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	id, err := c.Register(ctx)
	require.NoError(t, err)

	var mu sync.Mutex
	var got audio.Samples
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Poll(ctx, id, func(s audio.Samples) {
			mu.Lock()
			got = append(got, s...)
			mu.Unlock()
		})
	}()

	for i := int16(0); i < 10; i++ {
		d.Push(audio.Sample{Left: i, Right: i})
	}
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 10
	}, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, audio.Sample{Left: 9, Right: 9}, got[9])
}

func TestRegisterFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := New(srv.URL, logger.Discard()).Register(context.Background())
	assert.Error(t, err)
}

func TestConnectWaitsForServer(t *testing.T) {
	d := audio.NewDistributor()
	srv := fakeServer(t, d)

	var calls int
	mux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls++; calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		srv.Config.Handler.ServeHTTP(w, r)
	})
	flaky := httptest.NewServer(mux)
	defer flaky.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := New(flaky.URL, logger.Discard()).Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, d.Consumers())
}
