package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the generation backend name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the model identifier.
	FieldModel = "ai_model"
	// FieldRun identifies a single ranking call.
	FieldRun = "run_id"
	// FieldJob identifies the requirement being matched against.
	FieldJob = "job_id"
	// FieldCandidate identifies the candidate being scored.
	FieldCandidate = "candidate_id"
	// FieldSource tells whether a result came from the backend or the fallback heuristics.
	FieldSource = "score_source"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns the fields describing a generation backend and its model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// MatchFields returns the fields identifying one ranking run and the pair being scored.
// Empty values are skipped.
func MatchFields(runID, jobID, candidateID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRun, Value: runID},
		StringField{Key: FieldJob, Value: jobID},
		StringField{Key: FieldCandidate, Value: candidateID},
	)
}

// WithCommonFields attaches the backend fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}
