package models

import "time"

// Payment tracks money in and out for a campaign. Plain CRUD glue.
type Payment struct {
	ID                   string
	CampaignID           string
	ReceivedFromClient   float64
	ReceivableFromClient float64
	ReceivableDueDate    *time.Time
	PayableToInfluencer  float64
	PaidToInfluencer     float64
	PaidDueDate          *time.Time
	StatusForClient      string
	StatusForInfluencer  string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
