// Package audit writes decision records for every state-mutating action
// taken by the reminder session.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/dosewatch/internal/models"
)

// DecisionWriter persists decision records.
type DecisionWriter interface {
	WriteDecision(ctx context.Context, action, inputsHash, outcome, medicineID, details string) (*models.Decision, error)
}

// Journal writes decision records for audit trails.
type Journal struct {
	w DecisionWriter
}

// NewJournal creates a new journal. A nil writer yields a journal that
// discards everything.
func NewJournal(w DecisionWriter) *Journal {
	return &Journal{w: w}
}

// Record writes a decision for a state-mutating action.
func (j *Journal) Record(ctx context.Context, action string, inputs interface{}, outcome, medicineID, details string) (*models.Decision, error) {
	if j == nil || j.w == nil {
		return nil, nil
	}
	return j.w.WriteDecision(ctx, action, hashInputs(inputs), outcome, medicineID, details)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
