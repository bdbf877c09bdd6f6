package support

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
)

// OCRService is an in-process stand-in for the OCR service used by the remote
// engine. It reports a fixed set of regions for every image and the same
// text for every region.
type OCRService struct {
	Server *httptest.Server

	mu              sync.Mutex
	regions         [][4][2]float64
	text            string
	failRecognition bool

	DetectCalls    atomic.Int32
	RecognizeCalls atomic.Int32
}

// NewOCRService starts the service with one 40x40 region at (10,10).
func NewOCRService() *OCRService {
	s := &OCRService{
		regions: [][4][2]float64{{{10, 10}, {50, 10}, {50, 50}, {10, 50}}},
		text:    "text",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/detect", s.handleDetect)
	mux.HandleFunc("POST /api/v1/recognize", s.handleRecognize)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.Server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the service.
func (s *OCRService) URL() string { return s.Server.URL }

// Close shuts the server down.
func (s *OCRService) Close() { s.Server.Close() }

// SetRegions replaces the regions returned for every image.
func (s *OCRService) SetRegions(regions [][4][2]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regions = regions
}

// SetText sets the text returned for every region.
func (s *OCRService) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

// FailRecognition makes every recognize request fail with a server error.
func (s *OCRService) FailRecognition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRecognition = true
}

func (s *OCRService) handleDetect(w http.ResponseWriter, r *http.Request) {
	s.DetectCalls.Add(1)
	if _, err := png.Decode(r.Body); err != nil {
		http.Error(w, "invalid image", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	regions := s.regions
	s.mu.Unlock()
	writeJSON(w, map[string]any{"regions": regions})
}

func (s *OCRService) handleRecognize(w http.ResponseWriter, r *http.Request) {
	s.RecognizeCalls.Add(1)
	s.mu.Lock()
	text, fail := s.text, s.failRecognition
	s.mu.Unlock()
	if fail {
		http.Error(w, "recognition failed", http.StatusInternalServerError)
		return
	}
	if _, err := png.Decode(r.Body); err != nil {
		http.Error(w, "invalid image", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
