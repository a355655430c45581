package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/request"
)

func view(t *testing.T, header http.Header, body string) *request.View {
	t.Helper()
	v, err := request.New(http.MethodPost, "/echo", header, []byte(body))
	require.NoError(t, err)
	return v
}

func TestNewRejectsInvalidStatus(t *testing.T) {
	for _, status := range []int{0, 99, 600, -1} {
		_, err := New(status)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidStatus))
	}
	assert.Panics(t, func() { MustNew(42) })
}

func TestProduceDefaults(t *testing.T) {
	spec := MustNew(http.StatusNoContent)

	res, err := spec.Produce(view(t, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Empty(t, res.Body)
	assert.Equal(t, ContentTypeText, res.Header.Get("Content-Type"))
	assert.Equal(t, "0", res.Header.Get("Content-Length"))
}

func TestBodySources(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		reqCT    string
		wantBody string
		wantCT   string
	}{
		{"text", []Option{WithText("hello")}, "", "hello", ContentTypeText},
		{"bytes", []Option{WithBytes([]byte{0x01, 0x02})}, "", "\x01\x02", ContentTypeBinary},
		{"json", []Option{WithJSON(map[string]int{"n": 1})}, "", `{"n":1}`, ContentTypeJSON},
		{"echo keeps request content type", []Option{WithEcho()}, "application/xml", "<a/>", "application/xml"},
		{"explicit content type wins", []Option{WithContentType("application/vnd.api+json"), WithJSON(1)}, "", "1", "application/vnd.api+json"},
		{"last body wins", []Option{WithJSON(1), WithText("t")}, "", "t", ContentTypeText},
		{"body func", []Option{WithBodyFunc(func(v *request.View) ([]byte, error) {
			return []byte(v.Method() + " " + v.Path()), nil
		})}, "", "POST /echo", ContentTypeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := New(http.StatusOK, tt.opts...)
			require.NoError(t, err)

			header := http.Header{}
			if tt.reqCT != "" {
				header.Set("Content-Type", tt.reqCT)
			}
			res, err := spec.Produce(view(t, header, tt.wantBody))
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(res.Body))
			assert.Equal(t, tt.wantCT, res.Header.Get("Content-Type"))
		})
	}
}

func TestOptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"unmarshalable json", WithJSON(make(chan int))},
		{"nil body func", WithBodyFunc(nil)},
		{"empty content type", WithContentType("")},
		{"nil header policy", WithHeaderPolicy(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(http.StatusOK, tt.opt)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOption))
		})
	}
}

func TestProduceBodyError(t *testing.T) {
	boom := errors.New("boom")
	spec := MustNew(http.StatusOK, WithBodyFunc(func(*request.View) ([]byte, error) { return nil, boom }))

	_, err := spec.Produce(view(t, nil, ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
}

func TestHeaderPolicies(t *testing.T) {
	extra := http.Header{}
	extra.Set("Content-Type", "application/problem+json")
	extra.Set("X-Request-Id", "abc")

	replaced, err := MustNew(http.StatusOK, WithJSON("x"), WithHeaderPolicy(ReplaceHeaders(extra))).Produce(view(t, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"application/problem+json"}, replaced.Header.Values("Content-Type"))
	assert.Equal(t, "abc", replaced.Header.Get("X-Request-Id"))

	merged, err := MustNew(http.StatusOK, WithJSON("x"), WithHeaderPolicy(MergeHeaders(extra))).Produce(view(t, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"application/problem+json"}, merged.Header.Values("Content-Type"))
	assert.Equal(t, "abc", merged.Header.Get("X-Request-Id"))

	lying := http.Header{"Content-Length": {"999"}}
	fixed, err := MustNew(http.StatusOK, WithText("four"), WithHeaderPolicy(ReplaceHeaders(lying))).Produce(view(t, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, "4", fixed.Header.Get("Content-Length"))
}

func TestHeaderPolicyDoesNotLeakBetweenRequests(t *testing.T) {
	spec := MustNew(http.StatusOK, WithHeaderPolicy(MergeHeaders(http.Header{"X-A": {"1"}})))

	first, err := spec.Produce(view(t, nil, ""))
	require.NoError(t, err)
	second, err := spec.Produce(view(t, nil, ""))
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, first.Header.Values("X-A"))
	assert.Equal(t, []string{"1"}, second.Header.Values("X-A"))
}

func TestDiagnostic(t *testing.T) {
	res := Diagnostic(errors.New("template exploded"))
	assert.Equal(t, http.StatusTeapot, res.Status)
	assert.Contains(t, string(res.Body), "template exploded")
	assert.Equal(t, ContentTypeText, res.Header.Get("Content-Type"))
}

func TestMergedContentTypeReplacesDefault(t *testing.T) {
	extra := http.Header{}
	extra.Set("Content-Type", "application/xml")

	res, err := MustNew(http.StatusOK, WithText("<a/>"), WithHeaderPolicy(MergeHeaders(extra))).Produce(view(t, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, []string{"application/xml"}, res.Header.Values("Content-Type"))
	assert.Equal(t, "4", res.Header.Get("Content-Length"))
}
