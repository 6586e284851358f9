package models

import "time"

// Profile carries the role-specific attributes of an account. Client and
// influencer profiles share one table; only the fields matching the user's
// role are meaningful.
type Profile struct {
	UserID string

	// client fields
	CompanyName string
	Industry    string
	Website     string
	Campaigns   int

	// influencer fields
	Followers       string
	Engagement      string
	InstagramHandle string

	// shared
	Niche string

	CreatedAt time.Time
	UpdatedAt time.Time
}
