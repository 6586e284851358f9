package models

import "time"

// Campaign links a client and an influencer. Plain CRUD glue: the backend
// persists what was sent.
type Campaign struct {
	ID                 string
	ClientID           string
	InfluencerID       string
	NotesForClient     string
	NotesForInfluencer string
	DueDate            *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
