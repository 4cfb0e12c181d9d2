package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// FallbackMessage is shown when the backend gave no usable detail.
const FallbackMessage = "An error occurred"

// APIError is the single failure contract of the client. Status is 0 for
// network errors and timeouts, the HTTP status otherwise.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Detail  string
	Timeout bool
	Err     error
}

func (e *APIError) Error() string {
	return e.Message()
}

func (e *APIError) Unwrap() error { return e.Err }

// Message is the human readable text surfaced to users.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return FallbackMessage
}

// Network reports whether no response was received at all.
func (e *APIError) Network() bool { return e.Status == 0 }

// MessageOf returns what a caller should display for err: the backend detail
// when err is an APIError, err.Error() otherwise.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fallback
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func newNetworkError(method, path string, err error) *APIError {
	apiErr := &APIError{Method: method, Path: path, Err: err}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		apiErr.Timeout = true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		apiErr.Timeout = true
	}
	return apiErr
}

func newStatusError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Status: status,
		Method: method,
		Path:   path,
		Detail: extractDetail(body),
		Err:    fmt.Errorf("backend returned status %d", status),
	}
}

// extractDetail reads the FastAPI {"detail": ...} envelope. detail may be a
// string or a list of validation errors carrying msg fields.
func extractDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string        `json:"msg"`
		Loc []interface{} `json:"loc"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
