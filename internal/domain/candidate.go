package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Provenance records where a code candidate came from. Generated code
// becomes user-edited the moment it is modified before execution.
type Provenance string

// Provenance constants.
const (
	ProvenanceGenerated    Provenance = "generated"
	ProvenanceUserEdited   Provenance = "user-edited"
	ProvenanceUserAuthored Provenance = "user-authored"
)

// CodeCandidate is a code string proposed for execution, not yet validated.
// Candidates are constructed per execute call and never persisted, so stale
// code cannot be replayed across sessions.
type CodeCandidate struct {
	Source     string
	Provenance Provenance
}

// CodeSum returns the hex SHA-256 of code text. Sessions retain only this
// sum for the most recently generated code; comparing sums classifies
// provenance without storing the text.
func CodeSum(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// ClassifyProvenance determines a candidate's provenance given the sum of
// the session's last generated code ("" when none was generated).
func ClassifyProvenance(source, generatedSum string) Provenance {
	if generatedSum == "" {
		return ProvenanceUserAuthored
	}
	if CodeSum(source) == generatedSum {
		return ProvenanceGenerated
	}
	return ProvenanceUserEdited
}
