package engine

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/ocrbatch/internal/config"
	"github.com/MeKo-Tech/ocrbatch/internal/remote"
	"github.com/MeKo-Tech/ocrbatch/internal/tesseract"
)

const testEndpoint = "http://ocr-service.test:9000"

func remoteConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Engine = config.EngineRemote
	cfg.Remote.Endpoint = testEndpoint
	return &cfg
}

func TestNewUnknownEngine(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine = "cloud"
	_, err := New(&cfg)
	require.ErrorIs(t, err, ErrUnknownEngine)

	_, err = Check(context.Background(), &cfg)
	require.ErrorIs(t, err, ErrUnknownEngine)
}

func TestNewRemoteEngine(t *testing.T) {
	defer gock.Off()
	gock.New(testEndpoint).
		Post("/api/v1/recognize").
		MatchParam("lang", "vi").
		Reply(200).
		JSON(map[string]string{"text": "xin chào"})

	e, err := New(remoteConfig())
	require.NoError(t, err)
	assert.Equal(t, config.EngineRemote, e.Name)
	assert.Same(t, e.Detector, e.Recognizer)

	text, err := e.Recognizer.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 8, 8)))
	require.NoError(t, err)
	assert.Equal(t, "xin chào", text)
	assert.True(t, gock.IsDone())

	require.NoError(t, e.Close())
	require.NoError(t, e.Close(), "second close is a no-op")
}

func TestNewONNXEngineMissingModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ModelsDir = t.TempDir()
	_, err := New(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create detector")
}

func TestNewTesseractEngine(t *testing.T) {
	if tesseract.Enabled {
		t.Skip("tesseract support is compiled in")
	}
	cfg := config.DefaultConfig()
	cfg.Engine = config.EngineTesseract
	_, err := New(&cfg)
	require.ErrorIs(t, err, tesseract.ErrNotEnabled)
}

func TestCheckRemote(t *testing.T) {
	defer gock.Off()
	gock.New(testEndpoint).Get("/healthz").Reply(200)

	res, err := Check(context.Background(), remoteConfig())
	require.NoError(t, err)
	assert.Equal(t, testEndpoint, res.Details["endpoint"])

	gock.New(testEndpoint).Get("/healthz").Reply(503)
	_, err = Check(context.Background(), remoteConfig())
	require.ErrorIs(t, err, remote.ErrUnexpectedStatus)
}

func TestCheckONNXMissingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ModelsDir = dir

	_, err := Check(context.Background(), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file not found")

	for _, name := range []string{"PP-OCRv5_mobile_det.onnx", "PP-OCRv5_mobile_rec.onnx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	res, err := Check(context.Background(), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dictionary not found")
	assert.NotEmpty(t, res.Details["detector_model"])
}

type failingCloser struct{ err error }

func (f failingCloser) Close() error { return f.err }

func TestCloseJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	e := &Engine{closers: []io.Closer{failingCloser{errA}, failingCloser{nil}, failingCloser{errB}}}
	err := e.Close()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)

	var nilEngine *Engine
	assert.NoError(t, nilEngine.Close())
}
