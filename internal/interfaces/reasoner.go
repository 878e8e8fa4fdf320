package interfaces

import (
	"context"

	"harvest-advisor/internal/types"
)

// Reasoner is the external reasoning capability behind each debate persona.
// Generate returns the backend's raw response for the given persona, position
// and serialized round context; the debate core parses it into a statement.
// Failures are degraded to a fallback statement by the caller, never fatal.
type Reasoner interface {
	Generate(ctx context.Context, persona types.Persona, position types.Position, roundContext string) (string, error)
}
