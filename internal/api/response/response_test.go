package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetrypulse/internal/api/response"
)

func TestJSON_WrapsInDataEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	response.JSON(w, map[string]any{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["data"]["status"])
}

func TestCreated_Status(t *testing.T) {
	w := httptest.NewRecorder()
	response.Created(w, map[string]any{"id": "abc"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestError_Shape(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusNotFound, "UNKNOWN_QUERY", "Unknown query", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "UNKNOWN_QUERY", body["error"]["code"])
	assert.Equal(t, "Unknown query", body["error"]["message"])
	assert.NotContains(t, body["error"], "details")
}

func TestError_WithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	response.Error(w, http.StatusServiceUnavailable, "DEGRADED", "degraded",
		map[string]string{"database": "degraded"})

	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	details := body["error"]["details"].(map[string]any)
	assert.Equal(t, "degraded", details["database"])
}
