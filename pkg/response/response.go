// Package response builds the HTTP responses a rule returns.
//
// A Spec is assembled once, when the rule is declared, and validated then:
// an out-of-range status code or a JSON body that cannot be marshalled is a
// build error. Produce turns a Spec into a concrete Response for one request;
// only body sources that read the request (echo, functions) do work per
// request.
package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/getmockd/stubd/pkg/request"
)

// Content types used by the built-in body sources.
const (
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/octet-stream"
)

// StatusTeapot is the status of every diagnostic response.
const StatusTeapot = http.StatusTeapot

// Build errors.
var (
	ErrInvalidStatus = errors.New("invalid status code")
	ErrInvalidOption = errors.New("invalid response option")
)

// Response is a fully materialized HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// BodySource produces the response body for a request.
type BodySource func(v *request.View) ([]byte, error)

// Spec describes how to build a response. It is immutable once built.
type Spec struct {
	status      int
	contentType string
	bodyType    string
	body        BodySource
	headers     HeaderPolicy
}

// Option configures a Spec.
type Option func(*Spec) error

// New builds a Spec with the given status code (100-599). Without a body
// option the body is empty and the content type is text/plain.
func New(status int, opts ...Option) (*Spec, error) {
	if status < 100 || status > 599 {
		return nil, fmt.Errorf("%w: %d (must be between 100 and 599)", ErrInvalidStatus, status)
	}
	s := &Spec{
		status:  status,
		body:    staticBody(nil),
		headers: KeepHeaders(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is New that panics on error, for static rule tables.
func MustNew(status int, opts ...Option) *Spec {
	s, err := New(status, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Status returns the status code.
func (s *Spec) Status() int { return s.status }

func staticBody(data []byte) BodySource {
	return func(*request.View) ([]byte, error) { return data, nil }
}

// WithText sets a plain text body.
func WithText(body string) Option {
	return func(s *Spec) error {
		s.body = staticBody([]byte(body))
		s.bodyType = ContentTypeText
		return nil
	}
}

// WithBytes sets a raw body.
func WithBytes(body []byte) Option {
	data := bytes.Clone(body)
	return func(s *Spec) error {
		s.body = staticBody(data)
		s.bodyType = ContentTypeBinary
		return nil
	}
}

// WithJSON marshals v once, at build time, and uses it as the body.
func WithJSON(v any) Option {
	return func(s *Spec) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("%w: failed to marshal JSON body: %w", ErrInvalidOption, err)
		}
		s.body = staticBody(data)
		s.bodyType = ContentTypeJSON
		return nil
	}
}

// WithEcho returns the request body unchanged. The content type defaults to
// the request's Content-Type.
func WithEcho() Option {
	return func(s *Spec) error {
		s.body = func(v *request.View) ([]byte, error) {
			return v.Body()
		}
		s.bodyType = ""
		return nil
	}
}

// WithBodyFunc computes the body per request.
func WithBodyFunc(fn BodySource) Option {
	return func(s *Spec) error {
		if fn == nil {
			return fmt.Errorf("%w: body function is nil", ErrInvalidOption)
		}
		s.body = fn
		s.bodyType = ""
		return nil
	}
}

// WithContentType overrides the default content type.
func WithContentType(ct string) Option {
	return func(s *Spec) error {
		if ct == "" {
			return fmt.Errorf("%w: content type is empty", ErrInvalidOption)
		}
		s.contentType = ct
		return nil
	}
}

// WithHeaderPolicy sets how extra headers combine with the defaults.
func WithHeaderPolicy(p HeaderPolicy) Option {
	return func(s *Spec) error {
		if p == nil {
			return fmt.Errorf("%w: header policy is nil", ErrInvalidOption)
		}
		s.headers = p
		return nil
	}
}

// Produce builds the response for one request. Content-Type and
// Content-Length are always present; Content-Length always matches the body.
func (s *Spec) Produce(v *request.View) (*Response, error) {
	body, err := s.body(v)
	if err != nil {
		return nil, fmt.Errorf("failed to produce response body: %w", err)
	}

	ct := s.contentType
	if ct == "" {
		ct = s.bodyType
	}
	if ct == "" && v != nil {
		ct = v.Header().Get("Content-Type")
	}
	if ct == "" {
		ct = ContentTypeText
	}

	defaults := http.Header{}
	defaults.Set("Content-Type", ct)
	header := s.headers(defaults)
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", ct)
	}
	header.Set("Content-Length", strconv.Itoa(len(body)))

	return &Response{Status: s.status, Header: header, Body: body}, nil
}

// Diagnostic builds the 418 response used when producing a response failed.
func Diagnostic(err error) *Response {
	return Text(StatusTeapot, "stubd: "+err.Error()+"\n")
}

// Text builds a plain text response directly, bypassing Spec.
func Text(status int, body string) *Response {
	header := http.Header{}
	header.Set("Content-Type", ContentTypeText)
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &Response{Status: status, Header: header, Body: []byte(body)}
}
