package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSendsChatCompletionRequest(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [
				{"message": {"role": "assistant", "content": "The stock rose on strong earnings."}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("sk-test", server.URL, "huggingfaceh4/zephyr-7b-beta:free", 512, server.Client(), nil)

	summary, err := client.Summarize(context.Background(), "Explain the movement.")
	require.NoError(t, err)
	assert.Equal(t, "The stock rose on strong earnings.", summary)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "huggingfaceh4/zephyr-7b-beta:free", gotBody.Model)
	assert.Equal(t, 512, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.Equal(t, "Explain the movement.", gotBody.Messages[0].Content)
}

func TestSummarizeNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient("sk-test", server.URL, "m", 512, server.Client(), nil)

	_, err := client.Summarize(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNoCompletion)
}

func TestSummarizeAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid key"}}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", server.URL, "m", 512, server.Client(), nil)

	_, err := client.Summarize(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSummarizeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("sk-test", server.URL, "m", 512, server.Client(), nil)

	_, err := client.Summarize(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestSummarizeMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient("sk-test", server.URL, "m", 512, server.Client(), nil)

	_, err := client.Summarize(context.Background(), "prompt")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCompletion)
}
