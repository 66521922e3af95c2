package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the hosted Watson NLP runtime.
	DefaultBaseURL = "https://sn-watson-emotion.labs.skills.network"
	// DefaultModelID selects the aggregated English emotion workflow.
	DefaultModelID = "emotion_aggregated-workflow_lang_en_stock"

	predictPath    = "/v1/watson.runtime.nlp.v1/NlpService/EmotionPredict"
	modelIDHeader  = "grpc-metadata-mm-model-id"
	maxErrorBody   = 4 << 10
	maxPayloadBody = 1 << 20
)

// Detector sends text to an emotion classifier.
type Detector interface {
	Detect(ctx context.Context, text string) (Response, error)
}

type predictRequest struct {
	RawDocument rawDocument `json:"raw_document"`
}

type rawDocument struct {
	Text string `json:"text"`
}

// Client talks to the Watson EmotionPredict endpoint.
type Client struct {
	c       *http.Client
	baseURL string
	modelID string
}

// ClientConfig configures a Client. Zero fields fall back to defaults.
type ClientConfig struct {
	BaseURL string
	ModelID string
	Timeout time.Duration
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// NewClient builds a Client from cfg.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		c:       hc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		modelID: cfg.ModelID,
	}
}

// Detect posts text to the classifier. A 400 answer and any transport or
// unexpected-status failure come back as the sentinel Response with a nil
// error. A 200 body that cannot be decoded returns ErrMalformedResponse.
func (h *Client) Detect(ctx context.Context, text string) (Response, error) {
	b, err := json.Marshal(predictRequest{RawDocument: rawDocument{Text: text}})
	if err != nil {
		return Response{}, fmt.Errorf("emotion encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+predictPath, bytes.NewReader(b))
	if err != nil {
		return Response{}, fmt.Errorf("emotion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(modelIDHeader, h.modelID)

	resp, err := h.c.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Emotion classifier unreachable", "error", err)
		return Failed(&UpstreamError{Kind: KindUnavailable, Err: err}), nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Failed(&UpstreamError{
			Kind:       KindClientRejected,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}), nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.WarnContext(ctx, "Emotion classifier returned unexpected status",
			"status_code", resp.StatusCode,
			"body", strings.TrimSpace(string(body)))
		return Failed(&UpstreamError{
			Kind:       KindUnavailable,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		}), nil
	}

	var out Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPayloadBody)).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	return Succeeded(&out), nil
}
