package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"finmood/internal/core"
	"finmood/internal/emotion"
	"finmood/internal/ledger"
	"finmood/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

type transactionResponse struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Description string  `json:"description"`
}

type listResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Balance      float64               `json:"balance"`
}

type searchResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	TotalBalance float64               `json:"total_balance"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type emotionResponse struct {
	emotion.ScoreSet
	Message string `json:"message"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Date:        t.Date.String(),
		Amount:      t.Amount.Float(),
		AmountCents: t.Amount.Cents,
		Description: t.Description,
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain and input errors to HTTP status codes.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrInvalidRange),
		errors.As(err, &verrs),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrZeroAmount),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrInvalidAmountBounds),
		errors.Is(err, core.ErrAmountOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError renders err with its mapped status. Internal errors are
// logged and hidden from the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		logger.ErrorContext(ctx, "Request failed",
			log.FieldPath, r.URL.Path, log.FieldErrorType, log.ErrorTypeInternal, log.FieldError, err)
		writeError(w, status, "Internal server error")
	case http.StatusUnprocessableEntity:
		logger.DebugContext(ctx, "Request rejected",
			log.FieldOperation, log.OpValidate, log.FieldErrorType, log.ErrorTypeValidation, log.FieldError, err)
		writeError(w, status, validationMessage(err))
	case http.StatusNotFound:
		logger.DebugContext(ctx, "Transaction not found",
			log.FieldPath, r.URL.Path, log.FieldErrorType, log.ErrorTypeNotFound)
		writeError(w, status, "Transaction not found")
	default:
		logger.DebugContext(ctx, "Malformed request",
			log.FieldOperation, log.OpParse, log.FieldError, err)
		writeError(w, status, err.Error())
	}
}
