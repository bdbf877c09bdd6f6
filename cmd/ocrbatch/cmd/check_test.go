package cmd

import (
	"net/http"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRemote(t *testing.T) {
	isolate(t)
	t.Cleanup(gock.Off)
	gock.New(testEndpoint).
		Get("/healthz").
		Reply(http.StatusOK)

	out, _, err := execute(t, "check", "--engine", "remote", "--endpoint", testEndpoint)
	require.NoError(t, err)
	assert.Contains(t, out, "Checking remote engine...")
	assert.Contains(t, out, "endpoint: "+testEndpoint)
	assert.Contains(t, out, "OK")
	assert.True(t, gock.IsDone())
}

func TestCheckRemoteUnhealthy(t *testing.T) {
	isolate(t)
	t.Cleanup(gock.Off)
	gock.New(testEndpoint).
		Get("/healthz").
		Reply(http.StatusServiceUnavailable)

	out, _, err := execute(t, "check", "--engine", "remote", "--endpoint", testEndpoint)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote engine check failed")
	assert.NotContains(t, out, "OK")
}

func TestCheckONNXMissingModels(t *testing.T) {
	dir := isolate(t)

	_, _, err := execute(t, "--models-dir", dir, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onnx engine check failed")
}

func TestCheckInvalidEngine(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "check", "--engine", "cloud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid engine")
}
