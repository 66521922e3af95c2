package emotion

import (
	"errors"
	"fmt"
)

// Kind classifies why the classifier could not analyze a text.
type Kind int

const (
	// KindUnavailable covers transport failures and unexpected statuses.
	KindUnavailable Kind = iota
	// KindClientRejected means the service refused the input (HTTP 400),
	// typically because the text was empty.
	KindClientRejected
)

func (k Kind) String() string {
	switch k {
	case KindClientRejected:
		return "client_rejected"
	default:
		return "unavailable"
	}
}

// UpstreamError describes a classification that could not be performed.
type UpstreamError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	base := "emotion classifier " + e.Kind.String()
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.Err != nil {
		base += ": " + e.Err.Error()
	}
	return base
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsClientRejected reports whether err is an UpstreamError of KindClientRejected.
func IsClientRejected(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == KindClientRejected
}
