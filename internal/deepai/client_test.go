package deepai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "request timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type flakyTransport struct {
	failures int
	calls    int
	err      error
	next     http.RoundTripper
}

func (t *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	if t.calls <= t.failures {
		return nil, t.err
	}
	return t.next.RoundTrip(req)
}

func newTestClient(serverURL string, transport http.RoundTripper) *Client {
	c := NewClient(serverURL, "test-key")
	c.httpClient = &http.Client{Transport: transport}
	c.sleep = func(time.Duration) {}
	return c
}

func TestGenerate_EnhancesPromptAndAppliesDefaults(t *testing.T) {
	var gotText, gotWidth, gotHeight, gotVersion, gotPreference string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		gotText = r.FormValue("text")
		gotWidth = r.FormValue("width")
		gotHeight = r.FormValue("height")
		gotVersion = r.FormValue("image_generator_version")
		gotPreference = r.FormValue("genius_preference")
		w.Write([]byte(`{"id":"abc","output_url":"https://cdn.test/img.png"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, http.DefaultTransport)

	result, err := client.Generate(context.Background(), GenerateRequest{Prompt: "a cat on a skateboard"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(gotText, UGCSystemPrompt))
	assert.True(t, strings.HasSuffix(gotText, "a cat on a skateboard"))
	assert.Equal(t, "512", gotWidth)
	assert.Equal(t, "512", gotHeight)
	assert.Equal(t, "standard", gotVersion)
	// genius_preference is only sent for the genius generator.
	assert.Empty(t, gotPreference)

	assert.Equal(t, "https://cdn.test/img.png", result.OutputURL)
	assert.Equal(t, EnhancePrompt("a cat on a skateboard"), result.EnhancedPrompt)
}

func TestGenerate_SendsGeniusPreference(t *testing.T) {
	var gotPreference string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		gotPreference = r.FormValue("genius_preference")
		w.Write([]byte(`{"output_url":"https://cdn.test/img.png"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, http.DefaultTransport)

	_, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:  "test",
		Version: "genius",
	})
	require.NoError(t, err)
	assert.Equal(t, "photography", gotPreference)
}

func TestGenerate_ThreeTimeoutsExhaustRetries(t *testing.T) {
	transport := &flakyTransport{failures: 10, err: timeoutError{}}
	client := newTestClient("http://api.test", transport)

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 3, transport.calls)
}

func TestGenerate_NetworkErrorThenSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output_url":"https://cdn.test/img.png"}`))
	}))
	defer server.Close()

	transport := &flakyTransport{
		failures: 1,
		err:      assertAnError{},
		next:     http.DefaultTransport,
	}
	client := newTestClient(server.URL, transport)

	result, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/img.png", result.OutputURL)
	assert.Equal(t, 2, transport.calls)
}

type assertAnError struct{}

func (assertAnError) Error() string { return "connection refused" }

func TestGenerate_InvalidAPIKeyNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL, http.DefaultTransport)

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test"})
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
	assert.Equal(t, 1, calls)
}

func TestGenerate_RateLimitNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL, http.DefaultTransport)

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestGenerate_UpstreamErrorCarriesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bad gateway"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, http.DefaultTransport)

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test"})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadGateway, upstream.StatusCode)
}

func TestGenerate_MissingOutputURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"abc"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, http.DefaultTransport)

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerate_Backoff(t *testing.T) {
	var waits []time.Duration

	transport := &flakyTransport{failures: 10, err: timeoutError{}}
	client := newTestClient("http://api.test", transport)
	client.sleep = func(d time.Duration) { waits = append(waits, d) }

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "test"})
	require.Error(t, err)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, waits)
}

func TestGenerate_BaseImageDataURI(t *testing.T) {
	var gotFilename string
	var gotFileBytes int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, 16)
		n, _ := file.Read(buf)
		gotFileBytes = n
		w.Write([]byte(`{"output_url":"https://cdn.test/img.png"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, http.DefaultTransport)

	_, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:    "test",
		BaseImage: "data:image/png;base64,aGVsbG8gd29ybGQ=",
	})
	require.NoError(t, err)
	assert.Equal(t, "base_image.png", gotFilename)
	assert.Equal(t, len("hello world"), gotFileBytes)
}

func TestGenerate_BaseImageInvalid(t *testing.T) {
	client := newTestClient("http://api.test", http.DefaultTransport)

	_, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:    "test",
		BaseImage: "not-a-uri",
	})
	assert.ErrorContains(t, err, "invalid base image data")
}
