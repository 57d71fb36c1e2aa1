package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budgetly/internal/core"
	"budgetly/internal/middleware/trace"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/x").
		Body(map[string]int{"count": 2}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Location"); got != "/api/expenses/x" {
		t.Errorf("Location = %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"count":2}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "" {
		t.Errorf("Content-Type = %q, want none", got)
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Body(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestErrorResponse_IncludesRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), trace.RequestIDKey, "req-42"))
	w := httptest.NewRecorder()

	ErrorResponse(r, http.StatusNotFound, "expense not found").Write(w)

	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("Status code = %d", w.Code)
	}
	if body.Error != "expense not found" || body.RequestID != "req-42" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteMutationError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
	}{
		{
			name:       "validation",
			err:        &core.ValidationError{Field: "amount", Err: core.ErrNegativeAmount},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "amount",
		},
		{
			name:       "wrapped validation",
			err:        errors.Join(errors.New("context"), &core.ValidationError{Field: "date", Err: errors.New("bad")}),
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "date",
		},
		{
			name:       "other",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeMutationError(w, httptest.NewRequest(http.MethodPost, "/api/expenses", nil), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", body.Field, tt.wantField)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(body.Error, "disk") {
				t.Error("internal error details leaked to the client")
			}
		})
	}
}
