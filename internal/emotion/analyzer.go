package emotion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"finmood/internal/cache"
	"finmood/internal/log"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeOK             = "ok"
	OutcomeCached         = "cached"
	OutcomeClientRejected = "client_rejected"
	OutcomeUnavailable    = "unavailable"
	OutcomeMalformed      = "malformed"
)

// Recorder receives analyzer measurements.
type Recorder interface {
	ObserveAnalysis(outcome, dominant string, elapsed time.Duration)
	ObserveCacheLookup(hit bool)
}

// Publisher announces completed analyses.
type Publisher interface {
	PublishEmotionAnalyzed(ctx context.Context, textLength int, scores ScoreSet) error
}

// AnalyzerConfig tunes an Analyzer. Zero values disable the matching feature.
type AnalyzerConfig struct {
	// RatePerSecond caps calls to the classifier; 0 means unlimited.
	RatePerSecond float64
	Burst         int
	// CacheSize bounds the number of remembered results; 0 disables caching.
	CacheSize int
	CacheTTL  time.Duration
}

// Analyzer runs text through a Detector and Normalize.
type Analyzer struct {
	detector  Detector
	limiter   *rate.Limiter
	cache     *cache.LRUCache[ScoreSet]
	recorder  Recorder
	publisher Publisher
}

// AnalyzerOption customises an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) AnalyzerOption {
	return func(a *Analyzer) { a.recorder = r }
}

// WithPublisher attaches an event publisher.
func WithPublisher(p Publisher) AnalyzerOption {
	return func(a *Analyzer) { a.publisher = p }
}

// NewAnalyzer wires d with the limits in cfg.
func NewAnalyzer(d Detector, cfg AnalyzerConfig, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{detector: d}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if cfg.CacheSize > 0 {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		a.cache = cache.NewLRUCache[ScoreSet](cfg.CacheSize, ttl)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache returns the result cache, or nil when caching is disabled.
func (a *Analyzer) Cache() *cache.LRUCache[ScoreSet] {
	return a.cache
}

// Analyze classifies text. Classifier failures come back as a Result with
// the sentinel scores and Err set; only a malformed payload, a cancelled
// context or a request that could not be built yields a non-nil error.
func (a *Analyzer) Analyze(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		a.observe(OutcomeClientRejected, "", 0)
		return Result{
			Scores: Sentinel(),
			Err:    &UpstreamError{Kind: KindClientRejected, Message: "text is empty"},
		}, nil
	}

	key := cacheKey(text)
	if a.cache != nil {
		scores, hit := a.cache.Get(key)
		if a.recorder != nil {
			a.recorder.ObserveCacheLookup(hit)
		}
		if hit {
			a.observe(OutcomeCached, dominantName(scores), 0)
			return Result{Scores: scores}, nil
		}
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("emotion rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := a.detector.Detect(ctx, text)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, ErrMalformedResponse) {
			a.observe(OutcomeMalformed, "", elapsed)
		}
		return Result{}, err
	}

	res, err := Normalize(resp)
	if err != nil {
		a.observe(OutcomeMalformed, "", elapsed)
		slog.ErrorContext(ctx, "Emotion classifier returned a malformed payload", log.FieldComponent, log.ComponentEmotion, log.FieldError, err)
		return Result{}, err
	}
	if !res.OK() {
		outcome := OutcomeUnavailable
		if res.Err.Kind == KindClientRejected {
			outcome = OutcomeClientRejected
		}
		a.observe(outcome, "", elapsed)
		return res, nil
	}

	a.observe(OutcomeOK, dominantName(res.Scores), elapsed)
	if a.cache != nil {
		a.cache.Set(key, res.Scores)
	}
	if a.publisher != nil {
		if err := a.publisher.PublishEmotionAnalyzed(ctx, len(text), res.Scores); err != nil {
			slog.WarnContext(ctx, "Failed to publish emotion analysis event", log.FieldComponent, log.ComponentEmotion, log.FieldError, err)
		}
	}
	return res, nil
}

func (a *Analyzer) observe(outcome, dominant string, elapsed time.Duration) {
	if a.recorder != nil {
		a.recorder.ObserveAnalysis(outcome, dominant, elapsed)
	}
}

func dominantName(s ScoreSet) string {
	if l, ok := s.Dominant(); ok {
		return string(l)
	}
	return ""
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
