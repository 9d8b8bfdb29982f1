package model

import "fmt"

// ModelNotFoundError means the store has no artifact for a segment. Callers
// treat it as a per-segment warning.
type ModelNotFoundError struct {
	Segment string
	Path    string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model for segment %q not found at %s", e.Segment, e.Path)
}

// ArtifactError means an artifact exists but cannot be decoded or is invalid.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("invalid model artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// PredictionError means the model could not be evaluated on the given input.
type PredictionError struct {
	Segment string
	Err     error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed for segment %q: %v", e.Segment, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }
