package cerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/npcgate/pkg/clog"
)

func TestFromError(t *testing.T) {
	cause := NewError(NotFound, "missing", nil)

	tests := []struct {
		name     string
		err      error
		wantCode Code
		wantMsg  string
	}{
		{"canceled", fmt.Errorf("call: %w", context.Canceled), Canceled, "connection closed"},
		{"wrapped cerr", fmt.Errorf("outer: %w", cause), NotFound, "missing"},
		{"plain", errors.New("boom"), Unknown, "Internal server error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMsg, got.Msg)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, NewError(Unauthenticated, "", nil).HTTPStatus())
	assert.Equal(t, http.StatusBadGateway, NewError(UpstreamRejected, "", nil).HTTPStatus())
	assert.Equal(t, http.StatusServiceUnavailable, NewErrorWithStatus(UpstreamRejected, http.StatusServiceUnavailable, "", nil).HTTPStatus())
	assert.Equal(t, "unknown", Code(99).String())
}

func TestErrorStack(t *testing.T) {
	assert.NotEmpty(t, NewError(Internal, "x", nil).Stack)
	assert.Empty(t, NewError(InvalidArgument, "x", nil).Stack)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewError(Misconfigured, "GraderFunctionUrl environment variable is not set.", nil))
	assert.True(t, IsCode(err, Misconfigured))
	assert.False(t, IsCode(err, Internal))
	assert.False(t, IsCode(errors.New("plain"), Misconfigured))
}

func TestJSONResponseMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name: "response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				SetJSONResponse(r.Context(), map[string]string{"status": "OK"})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"OK"}`,
		},
		{
			name: "response with status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				SetJSONResponseWithStatus(r.Context(), http.StatusAccepted, map[string]int{"n": 1})
			},
			wantStatus: http.StatusAccepted,
			wantBody:   `{"n":1}`,
		},
		{
			name: "error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				SetJSONError(r.Context(), NewErrorWithStatus(UpstreamRejected, http.StatusTeapot, "Failed to call GraderFunctionUrl: I'm a teapot", nil))
			},
			wantStatus: http.StatusTeapot,
			wantBody:   `{"status":"ERROR","code":"upstream_rejected","message":"Failed to call GraderFunctionUrl: I'm a teapot"}`,
		},
		{
			name: "unknown error is masked",
			handler: func(w http.ResponseWriter, r *http.Request) {
				SetJSONError(r.Context(), errors.New("secret detail"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"status":"ERROR","code":"unknown","message":"Internal server error occurred"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewJSONResponseChiMiddleware()(tt.handler)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandlerWritesOwnResponse(t *testing.T) {
	h := NewJSONResponseChiMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>ok</p>", rec.Body.String())
}

func TestWriteJSONErrorRecordsAttributes(t *testing.T) {
	ctx := clog.ContextWithSlog(context.Background())
	rec := httptest.NewRecorder()
	WriteJSONError(ctx, rec, NewError(Internal, "server error", errors.New("disk")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Code)
	assert.Error(t, clog.GetError(ctx))
	assert.NotEmpty(t, clog.GetStack(ctx))
}
