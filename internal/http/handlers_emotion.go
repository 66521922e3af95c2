package http

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"finmood/internal/emotion"
	"finmood/internal/log"
)

const unavailableMessage = "Emotion service unavailable. Please try again later."

// handleAnalyzeEmotion accepts {"text": "..."} or a form with text or textToAnalyze.
func (s *Server) handleAnalyzeEmotion(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.analyze(w, r, p.First("text", "textToAnalyze"))
}

// handleEmotionDetector is the query string form: /emotionDetector?textToAnalyze=...
func (s *Server) handleEmotionDetector(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, sanitizeInput(r.URL.Query().Get("textToAnalyze")))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, text string) {
	ctx := r.Context()
	if err := s.validate.Struct(emotionRequest{Text: text}); err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := s.analyzer.Analyze(ctx, text)
	if err != nil {
		fields := log.NewFields().WithEmotion(utf8.RuneCountInString(text), "")
		if errors.Is(err, emotion.ErrMalformedResponse) {
			fields[log.FieldErrorType] = log.ErrorTypeMalformed
		} else {
			fields[log.FieldErrorType] = log.ErrorTypeUpstream
		}
		s.events.LogError(ctx, "Emotion analysis failed", err, log.ComponentEmotion, log.OpAnalyze, fields)
		writeError(w, http.StatusBadGateway, unavailableMessage)
		return
	}

	if !res.OK() {
		if res.Err.Kind == emotion.KindClientRejected {
			writeError(w, http.StatusBadRequest, emotion.InvalidTextMessage)
			return
		}
		log.FromContext(ctx).WarnContext(ctx, "Emotion classifier unavailable",
			log.FieldError, res.Err.Error(),
			log.FieldUpstream, res.Err.StatusCode)
		writeError(w, http.StatusBadGateway, unavailableMessage)
		return
	}

	dominant, _ := res.Scores.Dominant()
	s.events.LogEmotionAnalyzed(ctx, utf8.RuneCountInString(text), string(dominant))
	writeJSON(w, http.StatusOK, emotionResponse{ScoreSet: res.Scores, Message: emotion.Summary(res.Scores)})
}
