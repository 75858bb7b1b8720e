package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusPreconditionFailed, "folder f-1 has 2 child folder(s)", map[string]interface{}{
		"folderId":   "f-1",
		"childCount": 2,
		"status":     999,
	})

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "f-1", body["folderId"])
	assert.EqualValues(t, 2, body["childCount"])
	assert.EqualValues(t, http.StatusPreconditionFailed, body["status"])
	assert.Equal(t, "Precondition Failed", body["title"])
	assert.Contains(t, body["type"], "rfc7232")
}

func TestRespondJSON_EncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestParseJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Recipes","extra":1}`))
	require.NoError(t, ParseJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "Recipes", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	assert.ErrorIs(t, ParseJSON(httptest.NewRecorder(), req, &dst), ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := ParseJSON(httptest.NewRecorder(), req, &dst)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyBody)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(req), tt.header)
	}
}
