// Package evaluate defines the evaluation collaborator boundary: scoring a
// finished interview session from its recorded artifacts.
package evaluate

import (
	"context"

	"github.com/prepview/interview-engine/internal/models"
)

// Evaluator produces a structured evaluation for a completed session
type Evaluator interface {
	Evaluate(ctx context.Context, sessionID string) (*models.Evaluation, error)
}
