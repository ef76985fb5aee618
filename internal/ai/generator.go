package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBackendUnavailable marks failures to reach the generation backend:
	// network errors, timeouts, non-2xx answers, missing configuration.
	ErrBackendUnavailable = errors.New("generation backend unavailable")
	// ErrMalformedResponse marks answers that do not satisfy the expected schema.
	ErrMalformedResponse = errors.New("malformed generation response")
)

// Generator is a text-completion backend: a system prompt and a message in, text out.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Unavailable wraps err so that errors.Is(err, ErrBackendUnavailable) holds.
// Errors already classified are returned unchanged.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrMalformedResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
}

// Malformed wraps err so that errors.Is(err, ErrMalformedResponse) holds.
func Malformed(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMalformedResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
}

// Generate calls g and classifies any failure as ErrBackendUnavailable.
// A nil generator is reported as unavailable too.
func Generate(ctx context.Context, g Generator, system, message string) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: no generator configured", ErrBackendUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return "", Unavailable(err)
	}

	raw, err := g.GenerateContent(ctx, system, message)
	if err != nil {
		return "", Unavailable(err)
	}
	return raw, nil
}

// ModelOf returns the model name of g, or an empty string when g is nil.
func ModelOf(g Generator) string {
	if g == nil {
		return ""
	}
	return g.Model()
}
