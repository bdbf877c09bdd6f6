package remote

import (
	"context"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEndpoint = "https://ocr-api.lan:8443"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{Endpoint: testEndpoint, Language: "vi", BeamSearch: true, Serialize: true})
	require.NoError(t, err)
	c.SetHTTPTransport(gock.NewTransport())
	t.Cleanup(gock.Off)
	return c
}

func TestNew(t *testing.T) {
	_, err := New(Config{Endpoint: "ftp://host"})
	require.Error(t, err)
	_, err = New(Config{Endpoint: "http://"})
	require.Error(t, err)
	_, err = New(Config{Endpoint: "://bad"})
	require.Error(t, err)

	c, err := New(Config{Endpoint: "http://localhost:8080"})
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestDetect(t *testing.T) {
	c := newTestClient(t)

	gock.New(testEndpoint).
		Post("/api/v1/detect").
		MatchHeader("Content-Type", "image/png").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"regions": [][4][2]float64{
				{{10, 10}, {50, 10}, {50, 50}, {10, 50}},
				{{2, 2}, {40, 2}, {40, 40}, {2, 40}},
			},
		})

	quads, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 64, 64)))
	require.NoError(t, err)
	require.Len(t, quads, 2)
	assert.Equal(t, utils.NewQuad(10, 10, 50, 50), quads[0])
	assert.Equal(t, utils.NewQuad(2, 2, 40, 40), quads[1])
	assert.True(t, gock.IsDone())
}

func TestRecognize(t *testing.T) {
	c := newTestClient(t)

	gock.New(testEndpoint).
		Post("/api/v1/recognize").
		MatchParam("lang", "vi").
		MatchParam("beam_search", "true").
		Reply(http.StatusOK).
		JSON(map[string]string{"text": "Xin chào"})

	text, err := c.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 20, 8)))
	require.NoError(t, err)
	assert.Equal(t, "Xin chào", text)
	assert.True(t, gock.IsDone())
}

func TestUnexpectedStatus(t *testing.T) {
	c := newTestClient(t)

	gock.New(testEndpoint).
		Post("/api/v1/recognize").
		Reply(http.StatusInternalServerError).
		BodyString("boom")

	_, err := c.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedStatus))
}

func TestMalformedResponse(t *testing.T) {
	c := newTestClient(t)

	gock.New(testEndpoint).
		Post("/api/v1/detect").
		Reply(http.StatusOK).
		BodyString("{not json")

	_, err := c.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestHealthz(t *testing.T) {
	c := newTestClient(t)

	gock.New(testEndpoint).
		Get("/healthz").
		Reply(http.StatusOK).
		BodyString(`{}`)
	healthy, err := c.Healthz(context.Background())
	require.NoError(t, err)
	assert.True(t, healthy)

	gock.New(testEndpoint).
		Get("/healthz").
		Reply(http.StatusServiceUnavailable)
	healthy, err = c.Healthz(context.Background())
	require.NoError(t, err)
	assert.False(t, healthy)
}

func TestCanceledContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Endpoint: srv.URL})
	require.NoError(t, err)
	c.SetHTTPTransport(srv.Client().Transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.Recognize(ctx, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}
