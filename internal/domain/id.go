package domain

import "github.com/google/uuid"

// NewSessionID generates a session key. Session ids are bearer
// capabilities, so this uses UUIDv4: 122 random bits, no time prefix.
func NewSessionID() string {
	return uuid.NewString()
}

// NewAuditID generates a UUIDv7 string for audit rows, which sort by
// creation time.
func NewAuditID() string {
	return uuid.Must(uuid.NewV7()).String()
}
