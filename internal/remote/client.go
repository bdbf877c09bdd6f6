// Package remote talks to an OCR service over HTTP. The service detects text
// regions and recognizes cropped lines; this package only moves images and
// results across the wire.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/MeKo-Tech/ocrbatch/internal/utils"
)

const (
	detectPath    = "/api/v1/detect"
	recognizePath = "/api/v1/recognize"
	healthzPath   = "/healthz"
)

// ErrUnexpectedStatus is returned when the service answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Config configures the client.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	Language   string
	BeamSearch bool
	// Serialize allows only one request in flight at a time.
	Serialize bool
}

// Client is a detector and recognizer backed by a remote service.
type Client struct {
	http     *http.Client
	endpoint *url.URL
	cfg      Config
	mutex    sync.Mutex
}

type detectResponse struct {
	Regions [][4][2]float64 `json:"regions"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// New validates the endpoint and returns a client.
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q is not supported", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("endpoint has no host")
	}
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		endpoint: u,
		cfg:      cfg,
	}, nil
}

// SetHTTPTransport replaces the transport used for requests.
func (c *Client) SetHTTPTransport(rt http.RoundTripper) {
	c.http.Transport = rt
}

// Detect uploads img and returns the regions the service found.
func (c *Client) Detect(ctx context.Context, img image.Image) ([]utils.Quad, error) {
	var res detectResponse
	if err := c.post(ctx, detectPath, nil, img, &res); err != nil {
		return nil, err
	}
	quads := make([]utils.Quad, len(res.Regions))
	for i, r := range res.Regions {
		for j, p := range r {
			quads[i][j] = utils.Point{X: p[0], Y: p[1]}
		}
	}
	return quads, nil
}

// Recognize uploads a cropped line and returns its text.
func (c *Client) Recognize(ctx context.Context, img image.Image) (string, error) {
	q := url.Values{}
	if c.cfg.Language != "" {
		q.Set("lang", c.cfg.Language)
	}
	q.Set("beam_search", strconv.FormatBool(c.cfg.BeamSearch))

	var res recognizeResponse
	if err := c.post(ctx, recognizePath, q, img, &res); err != nil {
		return "", err
	}
	return res.Text, nil
}

func (c *Client) post(ctx context.Context, path string, query url.Values, img image.Image, out any) error {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return fmt.Errorf("unable to encode image: %w", err)
	}

	u, err := c.endpoint.Parse(path)
	if err != nil {
		return fmt.Errorf("unable to parse URL: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), &body)
	if err != nil {
		return fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	if c.cfg.Serialize {
		c.mutex.Lock()
		defer c.mutex.Unlock()
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to perform HTTP request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		slog.Debug("OCR service error", "path", path, "status", res.StatusCode, "body", string(msg))
		return fmt.Errorf("%w %s from %s", ErrUnexpectedStatus, res.Status, path)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}
	return nil
}

// Healthz checks if the OCR service is healthy and returns true if it is.
func (c *Client) Healthz(ctx context.Context) (bool, error) {
	u, err := c.endpoint.Parse(healthzPath)
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = res.Body.Close() }()
	return res.StatusCode == http.StatusOK, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
