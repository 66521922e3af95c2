package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"finmood/internal/core"
	"finmood/internal/emotion"
)

// EventEmotionAnalyzed is the routing key of analysis events.
const EventEmotionAnalyzed = "emotion.analyzed"

// Event is the JSON body of every message on the exchange. Exactly one of
// Transaction and Emotion is set, depending on Type.
type Event struct {
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Timestamp   time.Time           `json:"timestamp"`
	Transaction *TransactionPayload `json:"transaction,omitempty"`
	Emotion     *EmotionPayload     `json:"emotion,omitempty"`
}

type TransactionPayload struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Description string  `json:"description,omitempty"`
}

// EmotionPayload carries the scores only; the analysed text is not published.
type EmotionPayload struct {
	TextLength int              `json:"text_length"`
	Scores     emotion.ScoreSet `json:"scores"`
}

func newEvent(typ string, now time.Time) *Event {
	return &Event{ID: uuid.NewString(), Type: typ, Timestamp: now.UTC()}
}

// NewTransactionEvent builds a transaction.* event for tx.
func NewTransactionEvent(typ string, tx core.Transaction, now time.Time) *Event {
	e := newEvent(typ, now)
	e.Transaction = &TransactionPayload{
		ID:          tx.ID,
		Date:        tx.Date.String(),
		Amount:      tx.Amount.Float(),
		AmountCents: tx.Amount.Cents,
		Description: tx.Description,
	}
	return e
}

func NewEmotionAnalyzedEvent(textLength int, scores emotion.ScoreSet, now time.Time) *Event {
	e := newEvent(EventEmotionAnalyzed, now)
	e.Emotion = &EmotionPayload{TextLength: textLength, Scores: scores}
	return e
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes an event from a message body.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
