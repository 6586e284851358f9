// Package models holds the persisted domain records shared by repositories
// and services.
package models

import "time"

// Role is the capability tag of an account. It is fixed at creation time.
type Role string

const (
	RoleClient     Role = "client"
	RoleInfluencer Role = "influencer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleInfluencer
}

// EmailChangePhase tracks progress through the two-step email change flow.
// The phase only moves forward: none → old_verified → (new_challenge) → none.
type EmailChangePhase string

const (
	// PhaseNone: no email change in progress.
	PhaseNone EmailChangePhase = "none"
	// PhaseOldVerified: ownership of the current address is confirmed.
	PhaseOldVerified EmailChangePhase = "old_verified"
	// PhaseNewChallenge: a code has been sent to the pending address.
	PhaseNewChallenge EmailChangePhase = "new_challenge"
)

// User is the identity record. The account store owns it; the auth core
// only writes the verification and email-change fields.
type User struct {
	ID             string
	Name           string
	Email          string // stored lowercased, unique
	PhoneNumber    string // unique
	Role           Role
	CreatedByAdmin bool

	// Verified flips to true after the first successful login-code
	// verification and gates the identity guard.
	Verified      bool
	OTPVerifiedAt *time.Time

	EmailChangePhase         EmailChangePhase
	EmailChangeOldVerifiedAt *time.Time
	PendingEmail             *string

	ProfilePictures []string

	CreatedAt time.Time
	UpdatedAt time.Time
}
