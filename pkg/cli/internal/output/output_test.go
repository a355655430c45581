package output

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/response"
)

func TestResponse(t *testing.T) {
	var buf bytes.Buffer
	res := response.Text(http.StatusTeapot, "no rule matched")
	res.Header.Add("X-B", "2")
	res.Header.Add("X-A", "1")

	Response(&buf, res)
	assert.Equal(t, "HTTP 418 I'm a teapot\n"+
		"Content-Length: 15\n"+
		"Content-Type: text/plain; charset=utf-8\n"+
		"X-A: 1\n"+
		"X-B: 2\n"+
		"\n"+
		"no rule matched\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]int{"hit": 1}))
	assert.Equal(t, "{\n  \"hit\": 1\n}\n", buf.String())
}

func TestWarn(t *testing.T) {
	var buf bytes.Buffer
	Warn(&buf, "rule %q failed", "x")
	assert.Equal(t, "Warning: rule \"x\" failed\n", buf.String())
}
