package ai

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/utils"
)

const (
	// MaxInputRunes bounds the free text accepted by extraction; longer input is truncated.
	MaxInputRunes = 20000
	// DefaultMaxLogLength bounds prompt and response previews in debug logs.
	DefaultMaxLogLength = 200
)

// Call sends one request to g and decodes the answer into out after validating it
// against the named schema. Errors wrap ErrBackendUnavailable or ErrMalformedResponse.
func Call(ctx context.Context, g Generator, logger *zap.Logger, maxLogLen int, system, message, schema string, out any) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLen <= 0 {
		maxLogLen = DefaultMaxLogLength
	}

	logger.Debug("sending request to generation backend",
		zap.String("schema", schema),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, maxLogLen)),
	)

	raw, err := Generate(ctx, g, system, message)
	if err != nil {
		return err
	}

	logger.Debug("received response from generation backend",
		zap.String("schema", schema),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, maxLogLen)),
	)

	return Decode(raw, schema, out)
}
