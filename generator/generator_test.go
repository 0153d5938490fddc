package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-marketplace/utils"
)

func sampleRequest() Request {
	return Request{
		PropertyType:   "Condo",
		Location:       "Miami",
		Bedrooms:       2,
		Bathrooms:      1.5,
		SquareFootage:  1100,
		Amenities:      "Pool, Gym",
		UniqueFeatures: "Ocean view",
	}
}

func TestRenderPrompt(t *testing.T) {
	prompt, err := RenderPrompt(sampleRequest())
	require.NoError(t, err)

	for _, want := range []string{
		"Property Type: Condo",
		"Location: Miami",
		"Bedrooms: 2\n",
		"Bathrooms: 1.5\n",
		"Square Footage: 1100\n",
		"Amenities: Pool, Gym",
		"Unique Features: Ocean view",
		"approximately 150-200 words",
	} {
		assert.Contains(t, prompt, want)
	}
}

func chatServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest) {
	t.Helper()
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		if status != http.StatusOK {
			http.Error(w, "upstream exploded", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + mustJSON(content) + `}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestOpenAIClientGenerate(t *testing.T) {
	srv, got := chatServer(t, http.StatusOK, "  Welcome home to Miami.  ")
	client := NewOpenAIClient("test-key", "test-model", srv.URL+"/")

	text, err := client.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "Welcome home to Miami.", text)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.True(t, strings.Contains(got.Messages[1].Content, "Location: Miami"))
}

func TestOpenAIClientEmptyContent(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "   ")
	client := NewOpenAIClient("test-key", "m", srv.URL)

	_, err := client.Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrEmptyDescription)
}

func TestOpenAIClientHTTPError(t *testing.T) {
	srv, _ := chatServer(t, http.StatusTooManyRequests, "")
	client := NewOpenAIClient("test-key", "m", srv.URL)

	_, err := client.Generate(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCacheKeyIsStable(t *testing.T) {
	a, b := sampleRequest(), sampleRequest()
	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.True(t, strings.HasPrefix(CacheKey(a), "description:"))

	b.Bedrooms = 3
	assert.NotEqual(t, CacheKey(a), CacheKey(b))
}

type countingGenerator struct {
	calls int
	text  string
	err   error
}

func (g *countingGenerator) Generate(context.Context, Request) (string, error) {
	g.calls++
	return g.text, g.err
}

func TestCachedGeneratorSurvivesCacheOutage(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	next := &countingGenerator{text: "fresh"}
	gen := NewCachedGenerator(next, client, time.Minute, utils.NewDiscardLogger())

	text, err := gen.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "fresh", text)
	assert.Equal(t, 1, next.calls)

	next.err = errors.New("boom")
	_, err = gen.Generate(context.Background(), sampleRequest())
	assert.EqualError(t, err, "boom")
}

// TestCachedGenerator_Integration requires a running Redis.
// We skip if connection fails.
func TestCachedGenerator_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	req := sampleRequest()
	req.Location = "cache-test-" + time.Now().Format(time.RFC3339Nano)
	defer client.Del(ctx, CacheKey(req))

	next := &countingGenerator{text: "cached copy"}
	gen := NewCachedGenerator(next, client, time.Minute, utils.NewDiscardLogger())

	for i := 0; i < 2; i++ {
		text, err := gen.Generate(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "cached copy", text)
	}
	assert.Equal(t, 1, next.calls)

	_, ok := gen.Cached(ctx, req)
	assert.True(t, ok)
}
