package models

import "time"

// PendingRegistration lives only in process memory while an OTP is in
// flight. The plaintext password is hashed before the entry is created.
type PendingRegistration struct {
	Email        string
	Name         string
	PasswordHash string
	Code         string
	ExpiresAt    time.Time
}
