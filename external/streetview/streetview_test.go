package streetview

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, metadataURL, imageURL string) StreetView {
	client, err := New("test-key", Config{
		MetadataURL: metadataURL,
		ImageURL:    imageURL,
		RateLimit:   time.Microsecond,
		Retries:     2,
	})
	assert.NoError(t, err)
	return client
}

func TestKeylessClientRejectsBilledEndpoints(t *testing.T) {
	client, err := New("", Config{})
	assert.NoError(t, err)

	_, err = client.Metadata(19.07, 72.88)
	assert.Equal(t, ErrEmptyAPIKey, err)

	_, err = client.Image(ImageRequest{Latitude: 19.07, Longitude: 72.88})
	assert.Equal(t, ErrEmptyAPIKey, err)
}

func TestMetadataCovered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.NotEmpty(t, r.URL.Query().Get("location"))
		w.Write([]byte(`{"status": "OK", "pano_id": "abc123", "date": "2023-06"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	result, err := client.Metadata(19.07, 72.88)
	assert.NoError(t, err)
	assert.True(t, result.HasCoverage)
	assert.Equal(t, "abc123", result.PanoID)
	assert.Equal(t, "2023-06", result.CaptureDate)
	assert.Equal(t, "OK", result.Status)
}

func TestMetadataZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	result, err := client.Metadata(19.07, 72.88)
	assert.NoError(t, err)
	assert.False(t, result.HasCoverage)
	assert.Equal(t, "ZERO_RESULTS", result.Status)
}

func TestMetadataRetriesTransientFailure(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status": "OK", "pano_id": "xyz"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	result, err := client.Metadata(28.61, 77.21)
	assert.NoError(t, err)
	assert.True(t, result.HasCoverage)
	assert.Equal(t, 2, calls)
}

func TestMetadataGivesUpAfterRetries(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream error", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.Metadata(28.61, 77.21)
	assert.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt plus two retries
}

func TestImage(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "90", r.URL.Query().Get("heading"))
		assert.Equal(t, "0", r.URL.Query().Get("pitch"))
		assert.Equal(t, "90", r.URL.Query().Get("fov"))
		assert.Equal(t, "640x640", r.URL.Query().Get("size"))
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(payload)
	}))
	defer server.Close()

	client := newTestClient(t, "", server.URL)
	data, err := client.Image(ImageRequest{Latitude: 19.07, Longitude: 72.88, Heading: 90})
	assert.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestImageRejectsNonImageResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "quota"}`))
	}))
	defer server.Close()

	client := newTestClient(t, "", server.URL)
	_, err := client.Image(ImageRequest{Latitude: 1, Longitude: 2})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected content type")
}
