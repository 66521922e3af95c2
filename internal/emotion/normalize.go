// Package emotion turns the output of the upstream emotion classifier into a
// flat score summary with a dominant label.
//
// The upstream service answers with a list of prediction segments, each
// carrying a score per emotion label. Only the first segment is consumed.
// A call the classifier could not serve is represented by the all-null
// ScoreSet, which Normalize passes through untouched.
package emotion

import (
	"errors"
	"fmt"
)

// Label names one of the five emotions tracked by the classifier.
type Label string

const (
	Anger   Label = "anger"
	Disgust Label = "disgust"
	Fear    Label = "fear"
	Joy     Label = "joy"
	Sadness Label = "sadness"
)

// Labels is the fixed iteration order used for extraction and for breaking
// ties when picking the dominant emotion.
var Labels = [...]Label{Anger, Disgust, Fear, Joy, Sadness}

// ErrMalformedResponse is returned when a success payload does not carry the
// expected segment or label structure.
var ErrMalformedResponse = errors.New("malformed classification response")

// ScoreSet is the normalized result. A nil score means null; the zero value
// is the failure sentinel.
type ScoreSet struct {
	Anger           *float64 `json:"anger"`
	Disgust         *float64 `json:"disgust"`
	Fear            *float64 `json:"fear"`
	Joy             *float64 `json:"joy"`
	Sadness         *float64 `json:"sadness"`
	DominantEmotion *Label   `json:"dominant_emotion"`
}

// Sentinel returns the all-null ScoreSet.
func Sentinel() ScoreSet {
	return ScoreSet{}
}

// IsSentinel reports whether every field of s is null.
func (s ScoreSet) IsSentinel() bool {
	return s.Anger == nil && s.Disgust == nil && s.Fear == nil &&
		s.Joy == nil && s.Sadness == nil && s.DominantEmotion == nil
}

// Score returns the score recorded for label, or nil.
func (s ScoreSet) Score(label Label) *float64 {
	switch label {
	case Anger:
		return s.Anger
	case Disgust:
		return s.Disgust
	case Fear:
		return s.Fear
	case Joy:
		return s.Joy
	case Sadness:
		return s.Sadness
	default:
		return nil
	}
}

// Dominant returns the dominant label and whether one is set.
func (s ScoreSet) Dominant() (Label, bool) {
	if s.DominantEmotion == nil {
		return "", false
	}
	return *s.DominantEmotion, true
}

// Payload is the success body of the upstream EmotionPredict call.
type Payload struct {
	EmotionPredictions []Prediction `json:"emotionPredictions"`
}

// Prediction is one analyzed span of text.
type Prediction struct {
	Emotion map[string]*float64 `json:"emotion"`
}

// Response is what a Detector hands over: either a decoded payload or the
// failure that stands in for one.
type Response struct {
	Payload *Payload
	Failure *UpstreamError
}

// Failed builds the sentinel response for a call that could not be served.
func Failed(err *UpstreamError) Response {
	return Response{Failure: err}
}

// Succeeded wraps a decoded payload.
func Succeeded(p *Payload) Response {
	return Response{Payload: p}
}

// IsSentinel reports whether r carries no payload.
func (r Response) IsSentinel() bool {
	return r.Payload == nil
}

// Result is the outcome of normalizing a Response. Err is set exactly when
// Scores is the sentinel.
type Result struct {
	Scores ScoreSet
	Err    *UpstreamError
}

// OK reports whether the text was classified.
func (r Result) OK() bool {
	return r.Err == nil
}

// Normalize converts resp into a Result. The sentinel passes through with
// its failure attached. A payload missing the first segment or any of the
// five labels yields ErrMalformedResponse; scores are never defaulted.
func Normalize(resp Response) (Result, error) {
	if resp.IsSentinel() {
		failure := resp.Failure
		if failure == nil {
			failure = &UpstreamError{Kind: KindUnavailable, Message: "no classification payload"}
		}
		return Result{Scores: Sentinel(), Err: failure}, nil
	}

	if len(resp.Payload.EmotionPredictions) == 0 {
		return Result{}, fmt.Errorf("%w: no emotion predictions", ErrMalformedResponse)
	}
	emotions := resp.Payload.EmotionPredictions[0].Emotion
	if emotions == nil {
		return Result{}, fmt.Errorf("%w: first prediction has no emotion map", ErrMalformedResponse)
	}

	var scores [len(Labels)]float64
	for i, label := range Labels {
		v, ok := emotions[string(label)]
		if !ok || v == nil {
			return Result{}, fmt.Errorf("%w: missing score for %q", ErrMalformedResponse, label)
		}
		scores[i] = *v
	}

	dominant := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[dominant] {
			dominant = i
		}
	}
	label := Labels[dominant]

	return Result{Scores: ScoreSet{
		Anger:           &scores[0],
		Disgust:         &scores[1],
		Fear:            &scores[2],
		Joy:             &scores[3],
		Sadness:         &scores[4],
		DominantEmotion: &label,
	}}, nil
}
