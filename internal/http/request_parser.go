package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"finmood/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadBody marks input that could not be read or decoded at all.
var errBadBody = errors.New("malformed request body")

// RequestBodyParser reads JSON or form-encoded bodies and exposes their
// top-level fields as strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body of r, capped at maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// NewQueryParser wraps already parsed values, usually a URL query.
func NewQueryParser(v url.Values) *RequestBodyParser {
	return &RequestBodyParser{formData: v, parsed: true}
}

// Parse decodes the body as JSON when it looks like an object and as a
// form otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadBody, p.err)
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errBadBody, err)
			return p.err
		}
		return nil
	}

	var err error
	if p.formData, err = url.ParseQuery(trimmed); err != nil {
		p.err = fmt.Errorf("%w: %v", errBadBody, err)
	}
	return p.err
}

// Get returns the trimmed, sanitized value for key, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// First returns the first non-empty value among keys.
func (p *RequestBodyParser) First(keys ...string) string {
	for _, k := range keys {
		if v := p.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// Request DTOs. Field errors are reported with the json names.
type (
	transactionRequest struct {
		Date        string `json:"date" validate:"required,datetime=2006-01-02"`
		Amount      string `json:"amount" validate:"required,amount,nonzero_amount"`
		Description string `json:"description" validate:"max=200"`
	}

	searchRequest struct {
		MinAmount string `json:"min_amount" validate:"required,amount"`
		MaxAmount string `json:"max_amount" validate:"required,amount"`
	}

	emotionRequest struct {
		Text string `json:"text" validate:"max=10000"`
	}
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDecimalToCents(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "nonzero_amount", func(fl validator.FieldLevel) bool {
		c, err := core.ParseDecimalToCents(fl.Field().String())
		return err == nil && c != 0
	})
	return v
}

// mustRegister panics when a tag cannot be registered. A missing rule would
// otherwise let every body through unchecked.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var m string
		switch fe.Tag() {
		case "required":
			m = "is required"
		case "datetime":
			m = "must be a YYYY-MM-DD date"
		case "amount":
			m = "must be a decimal number"
		case "nonzero_amount":
			m = "cannot be zero"
		case "max":
			m = "must be at most " + fe.Param() + " characters"
		default:
			m = "is invalid"
		}
		msgs = append(msgs, fe.Field()+" "+m)
	}
	return strings.Join(msgs, "; ")
}

func (req transactionRequest) toTransaction(id int64) (core.Transaction, error) {
	d, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amt, err := core.ParseMoney(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{ID: id, Date: d, Amount: amt, Description: req.Description}, nil
}

func (req searchRequest) toRange() (core.AmountRange, error) {
	lo, err := core.ParseMoney(req.MinAmount)
	if err != nil {
		return core.AmountRange{}, err
	}
	hi, err := core.ParseMoney(req.MaxAmount)
	if err != nil {
		return core.AmountRange{}, err
	}
	return core.AmountRange{Min: lo, Max: hi}, nil
}
