// Package request provides the read-only view of an inbound HTTP request that
// conditions and response producers evaluate against.
//
// A View is built once per request. The body, the query string and the JSON
// and XML decodings of the body are all computed lazily on first access and
// memoized, so a rule set that never looks at the body never reads it.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/beevik/etree"
)

// DefaultMaxBodyBytes bounds how much of a request body a View will read (10MB).
const DefaultMaxBodyBytes = 10 << 20

// ErrBodyTooLarge is returned by Body when the request body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// View is a per-request fact bundle. It is safe for concurrent use.
type View struct {
	method string
	uri    *url.URL
	header http.Header

	readBody func() ([]byte, error)

	bodyOnce sync.Once
	body     []byte
	bodyErr  error

	queryOnce sync.Once
	query     url.Values

	jsonOnce sync.Once
	json     any
	jsonErr  error

	xmlOnce sync.Once
	xml     *etree.Document
	xmlErr  error
}

// FromHTTP wraps an inbound request. The body is read at most once and at
// most maxBodyBytes bytes are accepted; a non-positive limit uses
// DefaultMaxBodyBytes.
func FromHTTP(r *http.Request, maxBodyBytes int64) *View {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	uri := r.URL
	if uri == nil {
		uri = &url.URL{Path: "/"}
	}
	return &View{
		method: r.Method,
		uri:    uri,
		header: r.Header.Clone(),
		readBody: func() ([]byte, error) {
			if r.Body == nil || r.Body == http.NoBody {
				return nil, nil
			}
			data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
			if err != nil {
				return nil, fmt.Errorf("failed to read request body: %w", err)
			}
			if int64(len(data)) > maxBodyBytes {
				return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, maxBodyBytes)
			}
			return data, nil
		},
	}
}

// New builds a View from plain values. It is used by tooling that evaluates
// rules without a live request, such as the explain command and tests.
func New(method, rawURL string, header http.Header, body []byte) (*View, error) {
	if strings.TrimSpace(method) == "" {
		return nil, errors.New("method is required")
	}
	uri, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URI %q: %w", rawURL, err)
	}
	if header == nil {
		header = http.Header{}
	}
	data := bytes.Clone(body)
	return &View{
		method:   strings.ToUpper(method),
		uri:      uri,
		header:   header.Clone(),
		readBody: func() ([]byte, error) { return data, nil },
	}, nil
}

// Method returns the request method.
func (v *View) Method() string { return v.method }

// URI returns a copy of the request URI.
func (v *View) URI() *url.URL {
	u := *v.uri
	return &u
}

// Path returns the request path.
func (v *View) Path() string {
	if v.uri.Path == "" {
		return "/"
	}
	return v.uri.Path
}

// RequestURI returns the path and raw query as sent by the client.
func (v *View) RequestURI() string {
	return v.uri.RequestURI()
}

// Header returns the request headers. Callers must not modify the result.
func (v *View) Header() http.Header { return v.header }

// Query returns the parsed query string, parsed on first use.
func (v *View) Query() url.Values {
	v.queryOnce.Do(func() {
		q, err := url.ParseQuery(v.uri.RawQuery)
		if err != nil && q == nil {
			q = url.Values{}
		}
		v.query = q
	})
	return v.query
}

// Body returns the raw request body, read on first use.
func (v *View) Body() ([]byte, error) {
	v.bodyOnce.Do(func() {
		v.body, v.bodyErr = v.readBody()
	})
	return v.body, v.bodyErr
}

// JSON returns the body decoded as JSON, decoded on first use.
func (v *View) JSON() (any, error) {
	v.jsonOnce.Do(func() {
		body, err := v.Body()
		if err != nil {
			v.jsonErr = err
			return
		}
		if len(bytes.TrimSpace(body)) == 0 {
			v.jsonErr = errors.New("request body is empty")
			return
		}
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			v.jsonErr = fmt.Errorf("request body is not valid JSON: %w", err)
			return
		}
		v.json = data
	})
	return v.json, v.jsonErr
}

// XML returns the body parsed as an XML document, parsed on first use.
func (v *View) XML() (*etree.Document, error) {
	v.xmlOnce.Do(func() {
		body, err := v.Body()
		if err != nil {
			v.xmlErr = err
			return
		}
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(body); err != nil {
			v.xmlErr = fmt.Errorf("request body is not valid XML: %w", err)
			return
		}
		if doc.Root() == nil {
			v.xmlErr = errors.New("request body has no XML root element")
			return
		}
		v.xml = doc
	})
	return v.xml, v.xmlErr
}
