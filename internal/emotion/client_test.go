package emotion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDetect_Success(t *testing.T) {
	var gotBody map[string]map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, predictPath, r.URL.Path)
		assert.Equal(t, DefaultModelID, r.Header.Get(modelIDHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"emotionPredictions":[{"emotion":{"anger":0.01,"disgust":0.01,"fear":0.01,"joy":0.95,"sadness":0.01}}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/"})
	resp, err := c.Detect(context.Background(), "I love this new technology.")
	require.NoError(t, err)

	assert.Equal(t, "I love this new technology.", gotBody["raw_document"]["text"])
	require.False(t, resp.IsSentinel())
	require.Len(t, resp.Payload.EmotionPredictions, 1)
	assert.Equal(t, 0.95, *resp.Payload.EmotionPredictions[0].Emotion["joy"])
}

func TestClientDetect_CustomModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom-model", r.Header.Get(modelIDHeader))
		_, _ = w.Write([]byte(`{"emotionPredictions":[]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, ModelID: "custom-model"})
	_, err := c.Detect(context.Background(), "x")
	require.NoError(t, err)
}

func TestClientDetect_BadRequestIsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":3,"message":"Invalid input"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(ClientConfig{BaseURL: srv.URL}).Detect(context.Background(), "")
	require.NoError(t, err)
	require.True(t, resp.IsSentinel())
	require.NotNil(t, resp.Failure)
	assert.Equal(t, KindClientRejected, resp.Failure.Kind)
	assert.Equal(t, http.StatusBadRequest, resp.Failure.StatusCode)
	assert.Contains(t, resp.Failure.Message, "Invalid input")
	assert.True(t, IsClientRejected(resp.Failure))
}

func TestClientDetect_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewClient(ClientConfig{BaseURL: srv.URL}).Detect(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, resp.IsSentinel())
	assert.Equal(t, KindUnavailable, resp.Failure.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Failure.StatusCode)
	assert.False(t, IsClientRejected(resp.Failure))
}

func TestClientDetect_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	resp, err := NewClient(ClientConfig{BaseURL: url, Timeout: time.Second}).Detect(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, resp.IsSentinel())
	assert.Equal(t, KindUnavailable, resp.Failure.Kind)
	assert.Error(t, resp.Failure.Unwrap())
}

func TestClientDetect_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(ClientConfig{BaseURL: srv.URL}).Detect(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestUpstreamErrorMessage(t *testing.T) {
	err := &UpstreamError{Kind: KindClientRejected, StatusCode: 400, Message: "Invalid input"}
	assert.Equal(t, "emotion classifier client_rejected (HTTP 400): Invalid input", err.Error())
}
