package streetview

import (
	"encoding/json"
	"fmt"
	"image"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	logPrefix = "streetview"

	// The metadata endpoint is free; the image endpoint is billed
	// (~$7 per 1000 requests). Coverage is always checked against the
	// former before anything is fetched from the latter.
	defaultMetadataURL = "https://maps.googleapis.com/maps/api/streetview/metadata"
	defaultImageURL    = "https://maps.googleapis.com/maps/api/streetview"

	defaultRateLimit = 100 * time.Millisecond
	defaultRetries   = 3
	defaultTimeout   = 60 * time.Second

	defaultSize = "640x640"
	defaultFOV  = 90
)

var ErrEmptyAPIKey = fmt.Errorf("street view api key is not set")

// CoverageResult - outcome of a metadata lookup
type CoverageResult struct {
	HasCoverage bool
	PanoID      string
	CaptureDate string
	Status      string
}

// ImageRequest - parameters for one static-API image fetch
type ImageRequest struct {
	Latitude  float64
	Longitude float64
	Heading   int
	Pitch     int
	FOV       int
	Size      string
}

// StreetView - narrow interface over the Street View API so batch
// stages can run against a stub instead of the network
type StreetView interface {
	Metadata(lat, lon float64) (CoverageResult, error)
	Image(req ImageRequest) ([]byte, error)
	Panorama(panoID string, zoom int) (image.Image, error)
}

// Config - optional overrides; zero values fall back to defaults
type Config struct {
	MetadataURL string
	ImageURL    string
	PanoURL     string
	RateLimit   time.Duration
	Retries     int
}

type streetView struct {
	apiKey      string
	metadataURL string
	imageURL    string
	panoURL     string
	rateLimit   time.Duration
	retries     int
	httpClient  *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

type metadataResponse struct {
	Status string `json:"status"`
	PanoID string `json:"pano_id"`
	Date   string `json:"date"`
}

// throttle enforces the minimum interval between API calls
func (s *streetView) throttle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := time.Since(s.lastRequest)
	if elapsed < s.rateLimit {
		time.Sleep(s.rateLimit - elapsed)
	}
	s.lastRequest = time.Now()
}

// get performs a throttled GET with bounded retry on transport errors
// and retryable statuses.
func (s *streetView) get(rawURL string) (int, string, []byte, error) {
	var lastErr error

	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			log.WithFields(log.Fields{
				"prefix":  logPrefix,
				"attempt": attempt,
				"error":   lastErr,
			}).Warn("retrying street view request")
			time.Sleep(backoff)
		}

		s.throttle()

		resp, err := s.httpClient.Get(rawURL)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("street view returned status %d", resp.StatusCode)
			continue
		}

		return resp.StatusCode, resp.Header.Get("Content-Type"), body, nil
	}

	return 0, "", nil, lastErr
}

func (s *streetView) Metadata(lat, lon float64) (CoverageResult, error) {
	if s.apiKey == "" {
		return CoverageResult{}, ErrEmptyAPIKey
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lon))
	params.Set("key", s.apiKey)

	status, _, body, err := s.get(s.metadataURL + "?" + params.Encode())
	if err != nil {
		return CoverageResult{}, err
	}
	if status != http.StatusOK {
		return CoverageResult{}, fmt.Errorf("metadata lookup returned status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var m metadataResponse
	if err := json.Unmarshal(body, &m); err != nil {
		return CoverageResult{}, err
	}

	return CoverageResult{
		HasCoverage: m.Status == "OK",
		PanoID:      m.PanoID,
		CaptureDate: m.Date,
		Status:      m.Status,
	}, nil
}

func (s *streetView) Image(req ImageRequest) ([]byte, error) {
	if s.apiKey == "" {
		return nil, ErrEmptyAPIKey
	}

	size := req.Size
	if size == "" {
		size = defaultSize
	}
	fov := req.FOV
	if fov == 0 {
		fov = defaultFOV
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", req.Latitude, req.Longitude))
	params.Set("heading", strconv.Itoa(req.Heading))
	params.Set("pitch", strconv.Itoa(req.Pitch))
	params.Set("fov", strconv.Itoa(fov))
	params.Set("size", size)
	params.Set("key", s.apiKey)

	status, contentType, body, err := s.get(s.imageURL + "?" + params.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d: %s", status, strings.TrimSpace(string(body)))
	}
	if !strings.Contains(contentType, "image") {
		return nil, fmt.Errorf("unexpected content type: %s", contentType)
	}

	return body, nil
}

// New - new StreetView interface. The key may be empty when only the
// keyless panorama tile endpoint is used; metadata and image requests
// fail with ErrEmptyAPIKey without one.
func New(apiKey string, cfg Config) (StreetView, error) {
	s := &streetView{
		apiKey:      apiKey,
		metadataURL: defaultMetadataURL,
		imageURL:    defaultImageURL,
		panoURL:     defaultPanoURL,
		rateLimit:   defaultRateLimit,
		retries:     defaultRetries,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	if cfg.MetadataURL != "" {
		s.metadataURL = cfg.MetadataURL
	}
	if cfg.ImageURL != "" {
		s.imageURL = cfg.ImageURL
	}
	if cfg.PanoURL != "" {
		s.panoURL = cfg.PanoURL
	}
	if cfg.RateLimit > 0 {
		s.rateLimit = cfg.RateLimit
	}
	if cfg.Retries > 0 {
		s.retries = cfg.Retries
	}

	return s, nil
}
