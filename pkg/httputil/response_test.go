package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/response"
)

func TestWriteResponse(t *testing.T) {
	t.Parallel()

	res := &response.Response{
		Status: http.StatusCreated,
		Header: http.Header{
			"Content-Type":   {"application/json"},
			"Content-Length": {"11"},
			"X-Multi":        {"a", "b"},
		},
		Body: []byte(`{"id":"42"}`),
	}

	t.Run("copies status headers and body", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		require.NoError(t, WriteResponse(rec, httptest.NewRequest(http.MethodPost, "/", nil), res))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, []string{"a", "b"}, rec.Header().Values("X-Multi"))
		assert.JSONEq(t, `{"id":"42"}`, rec.Body.String())
	})

	t.Run("omits body for HEAD", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		require.NoError(t, WriteResponse(rec, httptest.NewRequest(http.MethodHead, "/", nil), res))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "11", rec.Header().Get("Content-Length"))
		assert.Empty(t, rec.Body.String())
	})

	t.Run("omits body for 204", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		noContent := &response.Response{Status: http.StatusNoContent, Header: http.Header{}, Body: []byte("ignored")}

		require.NoError(t, WriteResponse(rec, nil, noContent))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]int64{"hit": 3})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var result map[string]int64
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, int64(3), result["hit"])
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()

	WriteError(rec, http.StatusConflict, "borrow_unavailable", "a borrow is already active")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"borrow_unavailable","message":"a borrow is already active"}`, rec.Body.String())
}
