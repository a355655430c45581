package engine

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/condition"
	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/decision"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/response"
)

func testConfig() *config.ServerConfig {
	cfg := config.DefaultServerConfig()
	cfg.BindRetryDelay = time.Millisecond
	return cfg
}

func textRule(id string, priority int, cond condition.Condition, body string) *decision.Candidate {
	return decision.MustCandidate(id, priority, cond,
		decision.RespondWith(response.MustNew(http.StatusOK, response.WithText(body))))
}

func pathDecision(path, body string) *decision.Decision {
	return decision.MustNew(textRule("rule-"+strings.Trim(path, "/"), 0, condition.PathEquals(path), body))
}

type reply struct {
	status int
	body   string
}

func get(t *testing.T, url string) reply {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return reply{status: res.StatusCode, body: string(body)}
}

func httptestRecorder(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

// lockedBuffer collects output written from server goroutines.
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}
