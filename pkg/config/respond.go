package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getmockd/stubd/pkg/response"
)

// Header modes.
const (
	HeaderModeMerge   = "merge"
	HeaderModeReplace = "replace"
)

// RespondSpec declares a response. At most one of body, json and echo may
// be set; status defaults to 200.
type RespondSpec struct {
	Status      int               `yaml:"status,omitempty"`
	Body        *string           `yaml:"body,omitempty"`
	JSON        any               `yaml:"json,omitempty"`
	Echo        bool              `yaml:"echo,omitempty"`
	ContentType string            `yaml:"contentType,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	// HeaderMode is merge (default) or replace.
	HeaderMode string `yaml:"headerMode,omitempty"`
}

// Build converts the declaration into a response spec.
func (r *RespondSpec) Build() (*response.Spec, error) {
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}

	var opts []response.Option
	bodies := 0
	if r.Body != nil {
		bodies++
		opts = append(opts, response.WithText(*r.Body))
	}
	if r.JSON != nil {
		bodies++
		opts = append(opts, response.WithJSON(r.JSON))
	}
	if r.Echo {
		bodies++
		opts = append(opts, response.WithEcho())
	}
	if bodies > 1 {
		return nil, errors.New("set at most one of body, json or echo")
	}

	if r.ContentType != "" {
		opts = append(opts, response.WithContentType(r.ContentType))
	}

	if len(r.Headers) > 0 {
		h := make(http.Header, len(r.Headers))
		for k, v := range r.Headers {
			h.Set(k, v)
		}
		switch strings.ToLower(r.HeaderMode) {
		case "", HeaderModeMerge:
			opts = append(opts, response.WithHeaderPolicy(response.MergeHeaders(h)))
		case HeaderModeReplace:
			opts = append(opts, response.WithHeaderPolicy(response.ReplaceHeaders(h)))
		default:
			return nil, fmt.Errorf("unknown headerMode %q (want merge or replace)", r.HeaderMode)
		}
	}

	return response.New(status, opts...)
}
