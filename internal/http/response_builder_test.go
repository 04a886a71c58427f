package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/receipts/1").
		JSON(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != contentTypeJSON {
		t.Fatalf("Content-Type = %q", ct)
	}
	if rr.Header().Get("Location") != "/api/receipts/1" {
		t.Fatal("custom header missing")
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"n":1}` {
		t.Fatalf("body = %q", got)
	}
}

func TestJSONResponseBuilder_Attachment(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Bytes("text/plain", []byte("hello")).
		Attachment("note.txt").
		Write(rr)

	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="note.txt"` {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if rr.Header().Get("Content-Length") != "5" || rr.Body.String() != "hello" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestJSONResponseBuilder_UnencodableValue(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().JSON(map[string]any{"f": func() {}}).Write(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name string
		b    *JSONResponseBuilder
		code int
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest},
		{"not found", NotFoundError("x"), http.StatusNotFound},
		{"confirm", ConfirmationRequired("wipe"), http.StatusPreconditionRequired},
		{"validation", ValidationError("x", map[string]string{"name": "required"}), http.StatusUnprocessableEntity},
		{"internal", InternalServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.b.Write(rr)
			if rr.Code != tt.code {
				t.Fatalf("status=%d want %d", rr.Code, tt.code)
			}
			if !strings.Contains(rr.Body.String(), `"error"`) {
				t.Fatalf("body = %q", rr.Body.String())
			}
		})
	}
}
