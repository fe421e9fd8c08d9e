package main

import (
	"context"
	"errors"
	"testing"

	"serial-story-api/internal/domain/entity"
	"serial-story-api/internal/infrastructure/messaging"
	apperrors "serial-story-api/pkg/errors"
)

type stubEnsurer struct {
	calls []string
	err   error
}

func (s *stubEnsurer) EnsureCover(_ context.Context, bookID string) (*entity.Book, error) {
	s.calls = append(s.calls, bookID)
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Book{ID: bookID, ImagePath: "cover.png"}, nil
}

func bookCreated(t *testing.T, hasImage bool) *messaging.Message {
	t.Helper()
	msg, err := messaging.NewMessage("b1", messaging.TypeBookCreated, "b1", &messaging.BookCreatedPayload{BookID: "b1", HasImage: hasImage})
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	return msg
}

func TestCoverHandler(t *testing.T) {
	stub := &stubEnsurer{}
	h := coverHandler(stub)

	if err := h(context.Background(), bookCreated(t, true)); err != nil {
		t.Fatalf("with image: error = %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("books with a cover must be skipped, calls = %v", stub.calls)
	}

	if err := h(context.Background(), bookCreated(t, false)); err != nil {
		t.Fatalf("without image: error = %v", err)
	}
	if len(stub.calls) != 1 || stub.calls[0] != "b1" {
		t.Fatalf("calls = %v, want [b1]", stub.calls)
	}
}

func TestCoverHandlerErrors(t *testing.T) {
	if err := coverHandler(&stubEnsurer{err: apperrors.ErrBookNotFound})(context.Background(), bookCreated(t, false)); err != nil {
		t.Fatalf("deleted book should be acked, error = %v", err)
	}

	boom := apperrors.ErrImageService.WithError(errors.New("rate limited"))
	if err := coverHandler(&stubEnsurer{err: boom})(context.Background(), bookCreated(t, false)); !errors.Is(err, apperrors.ErrImageService) {
		t.Fatalf("error = %v, want ImageService for retry", err)
	}
}
