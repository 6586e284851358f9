package httpapi

import (
	"time"

	"github.com/kingfluencer/backend/internal/server/models"
)

type userResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PhoneNumber      string     `json:"phone_number"`
	Role             string     `json:"role"`
	CreatedByAdmin   bool       `json:"created_by_admin"`
	Verified         bool       `json:"verified"`
	OTPVerifiedAt    *time.Time `json:"otp_verified_at,omitempty"`
	EmailChangePhase string     `json:"email_change_phase"`
	PendingEmail     *string    `json:"pending_email,omitempty"`
	ProfilePictures  []string   `json:"profile_pictures"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toUserResponse(u *models.User) userResponse {
	pictures := u.ProfilePictures
	if pictures == nil {
		pictures = []string{}
	}
	return userResponse{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		PhoneNumber:      u.PhoneNumber,
		Role:             string(u.Role),
		CreatedByAdmin:   u.CreatedByAdmin,
		Verified:         u.Verified,
		OTPVerifiedAt:    u.OTPVerifiedAt,
		EmailChangePhase: string(u.EmailChangePhase),
		PendingEmail:     u.PendingEmail,
		ProfilePictures:  pictures,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func toUserResponses(us []*models.User) []userResponse {
	out := make([]userResponse, 0, len(us))
	for _, u := range us {
		out = append(out, toUserResponse(u))
	}
	return out
}

type profileResponse struct {
	CompanyName     string `json:"company_name"`
	Industry        string `json:"industry"`
	Website         string `json:"website"`
	Campaigns       int    `json:"campaigns"`
	Followers       string `json:"followers"`
	Engagement      string `json:"engagement"`
	InstagramHandle string `json:"instagram_handle"`
	Niche           string `json:"niche"`
}

func toProfileResponse(p *models.Profile) profileResponse {
	return profileResponse{
		CompanyName:     p.CompanyName,
		Industry:        p.Industry,
		Website:         p.Website,
		Campaigns:       p.Campaigns,
		Followers:       p.Followers,
		Engagement:      p.Engagement,
		InstagramHandle: p.InstagramHandle,
		Niche:           p.Niche,
	}
}

type campaignResponse struct {
	ID                 string     `json:"id"`
	ClientID           string     `json:"client_id"`
	InfluencerID       string     `json:"influencer_id"`
	NotesForClient     string     `json:"notes_for_client"`
	NotesForInfluencer string     `json:"notes_for_influencer"`
	DueDate            *time.Time `json:"due_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func toCampaignResponse(c *models.Campaign) campaignResponse {
	return campaignResponse{
		ID:                 c.ID,
		ClientID:           c.ClientID,
		InfluencerID:       c.InfluencerID,
		NotesForClient:     c.NotesForClient,
		NotesForInfluencer: c.NotesForInfluencer,
		DueDate:            c.DueDate,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

type paymentResponse struct {
	ID                   string     `json:"id"`
	CampaignID           string     `json:"campaign_id"`
	ReceivedFromClient   float64    `json:"received_from_client"`
	ReceivableFromClient float64    `json:"receivable_from_client"`
	ReceivableDueDate    *time.Time `json:"receivable_due_date,omitempty"`
	PayableToInfluencer  float64    `json:"payable_to_influencer"`
	PaidToInfluencer     float64    `json:"paid_to_influencer"`
	PaidDueDate          *time.Time `json:"paid_due_date,omitempty"`
	StatusForClient      string     `json:"status_for_client"`
	StatusForInfluencer  string     `json:"status_for_influencer"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toPaymentResponse(p *models.Payment) paymentResponse {
	return paymentResponse{
		ID:                   p.ID,
		CampaignID:           p.CampaignID,
		ReceivedFromClient:   p.ReceivedFromClient,
		ReceivableFromClient: p.ReceivableFromClient,
		ReceivableDueDate:    p.ReceivableDueDate,
		PayableToInfluencer:  p.PayableToInfluencer,
		PaidToInfluencer:     p.PaidToInfluencer,
		PaidDueDate:          p.PaidDueDate,
		StatusForClient:      p.StatusForClient,
		StatusForInfluencer:  p.StatusForInfluencer,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
