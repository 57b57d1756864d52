package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/sony/gobreaker"
)

const (
	MsgTimeout       = "Request timed out. Please try again."
	MsgCancelled     = "Request was cancelled. Please try again."
	MsgCannotConnect = "Cannot connect to server. Please check that the server is running."
	MsgNetworkFailed = "Network connection failed. Please check your internet connection."
	MsgBadResponse   = "Server response error. Please try again or contact support."
	MsgNetwork       = "Network error. Please check your connection and try again."
)

// Error is a non-2xx response. Message is the body's "error" field verbatim.
type Error struct {
	Status  int
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// DecodeError wraps a 2xx body that was not the JSON we expected.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Error
	if msg == "" {
		msg = payload.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(http.StatusText(status))
	}
	return &Error{Status: status, Message: msg, Details: payload.Details}
}

// IsHTTP reports whether err came back from the server rather than the transport.
func IsHTTP(err error) bool {
	var herr *Error
	return errors.As(err, &herr)
}

func IsUnauthorized(err error) bool {
	var herr *Error
	return errors.As(err, &herr) && herr.Status == http.StatusUnauthorized
}

// Message returns the server-provided message, or fallback for transport errors.
func Message(err error, fallback string) string {
	var herr *Error
	if errors.As(err, &herr) && herr.Message != "" {
		return herr.Message
	}
	return fallback
}

// FriendlyMessage maps any client error to one of a small fixed set of
// human-readable strings. HTTP errors keep the server's message.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	var herr *Error
	if errors.As(err, &herr) {
		if herr.Message != "" {
			return herr.Message
		}
		return fmt.Sprintf("Request failed (status %d).", herr.Status)
	}
	var derr *DecodeError
	if errors.As(err, &derr) {
		return MsgBadResponse
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	if errors.Is(err, context.Canceled) {
		return MsgCancelled
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return MsgCannotConnect
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return MsgTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return MsgCannotConnect
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return MsgNetworkFailed
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return MsgCannotConnect
	}
	return MsgNetwork
}
