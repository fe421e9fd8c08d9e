package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(fmt.Errorf("dial tcp: timeout"), CodeGenerationService, "generator unreachable")
	wrapped := fmt.Errorf("generate chapter: %w", err)

	if !stderrors.Is(wrapped, ErrGenerationService) {
		t.Fatalf("expected wrapped error to match ErrGenerationService")
	}
	if stderrors.Is(wrapped, ErrPersistence) {
		t.Fatalf("did not expect match with ErrPersistence")
	}
}

func TestWithErrorDoesNotMutateSentinel(t *testing.T) {
	cause := fmt.Errorf("unique violation")
	derived := ErrConcurrentModification.WithError(cause)

	if ErrConcurrentModification.Err != nil {
		t.Fatalf("sentinel mutated: %v", ErrConcurrentModification.Err)
	}
	if !stderrors.Is(derived, cause) {
		t.Fatalf("expected derived error to unwrap to cause")
	}
	if derived.HTTPStatus != http.StatusConflict {
		t.Fatalf("HTTPStatus = %d, want 409", derived.HTTPStatus)
	}
}

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeMissingContext, http.StatusBadRequest},
		{CodeBookNotFound, http.StatusNotFound},
		{CodeConcurrentModification, http.StatusConflict},
		{CodeGenerationService, http.StatusBadGateway},
		{CodeImageService, http.StatusBadGateway},
		{CodePersistence, http.StatusInternalServerError},
		{CodeTokenExpired, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if got := codeToHTTPStatus(tt.code); got != tt.want {
			t.Fatalf("codeToHTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestAsAppErrorFallsBackToUnknown(t *testing.T) {
	appErr := AsAppError(fmt.Errorf("plain"))
	if appErr.Code != CodeUnknown {
		t.Fatalf("Code = %s, want %s", appErr.Code, CodeUnknown)
	}
	if !IsNotFound(fmt.Errorf("wrap: %w", ErrBookNotFound)) {
		t.Fatalf("expected IsNotFound for wrapped ErrBookNotFound")
	}
}
