package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kingfluencer/backend/internal/server/models"
)

type campaignRequest struct {
	ClientID           string     `json:"client_id" binding:"required"`
	InfluencerID       string     `json:"influencer_id" binding:"required"`
	NotesForClient     string     `json:"notes_for_client"`
	NotesForInfluencer string     `json:"notes_for_influencer"`
	DueDate            *time.Time `json:"due_date"`
}

func (s *Server) handleCreateCampaign(c *gin.Context) {
	var req campaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "client_id and influencer_id are required"})
		return
	}

	created, err := s.deps.Campaigns.Create(c.Request.Context(), &models.Campaign{
		ClientID:           req.ClientID,
		InfluencerID:       req.InfluencerID,
		NotesForClient:     req.NotesForClient,
		NotesForInfluencer: req.NotesForInfluencer,
		DueDate:            req.DueDate,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign": toCampaignResponse(created)})
}

func (s *Server) handleListCampaigns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	list, err := s.deps.Campaigns.List(c.Request.Context(), c.Query("user_id"), limit, (page-1)*limit)
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]campaignResponse, 0, len(list))
	for _, campaign := range list {
		out = append(out, toCampaignResponse(campaign))
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": out, "page": page})
}

func (s *Server) handleGetCampaign(c *gin.Context) {
	campaign, err := s.deps.Campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": toCampaignResponse(campaign)})
}

type campaignUpdateRequest struct {
	NotesForClient     string     `json:"notes_for_client"`
	NotesForInfluencer string     `json:"notes_for_influencer"`
	DueDate            *time.Time `json:"due_date"`
}

func (s *Server) handleUpdateCampaign(c *gin.Context) {
	var req campaignUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := s.deps.Campaigns.Update(c.Request.Context(), &models.Campaign{
		ID:                 c.Param("id"),
		NotesForClient:     req.NotesForClient,
		NotesForInfluencer: req.NotesForInfluencer,
		DueDate:            req.DueDate,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "campaign updated"})
}

func (s *Server) handleDeleteCampaign(c *gin.Context) {
	if err := s.deps.Campaigns.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "campaign deleted"})
}

func (s *Server) handleListCampaignPayments(c *gin.Context) {
	list, err := s.deps.Payments.ListByCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	out := make([]paymentResponse, 0, len(list))
	for _, payment := range list {
		out = append(out, toPaymentResponse(payment))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

type paymentRequest struct {
	CampaignID           string     `json:"campaign_id" binding:"required"`
	ReceivedFromClient   float64    `json:"received_from_client"`
	ReceivableFromClient float64    `json:"receivable_from_client"`
	ReceivableDueDate    *time.Time `json:"receivable_due_date"`
	PayableToInfluencer  float64    `json:"payable_to_influencer"`
	PaidToInfluencer     float64    `json:"paid_to_influencer"`
	PaidDueDate          *time.Time `json:"paid_due_date"`
	StatusForClient      string     `json:"status_for_client"`
	StatusForInfluencer  string     `json:"status_for_influencer"`
}

func (r *paymentRequest) model(id string) *models.Payment {
	return &models.Payment{
		ID:                   id,
		CampaignID:           r.CampaignID,
		ReceivedFromClient:   r.ReceivedFromClient,
		ReceivableFromClient: r.ReceivableFromClient,
		ReceivableDueDate:    r.ReceivableDueDate,
		PayableToInfluencer:  r.PayableToInfluencer,
		PaidToInfluencer:     r.PaidToInfluencer,
		PaidDueDate:          r.PaidDueDate,
		StatusForClient:      r.StatusForClient,
		StatusForInfluencer:  r.StatusForInfluencer,
	}
}

func (s *Server) handleCreatePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "campaign_id is required"})
		return
	}

	created, err := s.deps.Payments.Create(c.Request.Context(), req.model(""))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": toPaymentResponse(created)})
}

func (s *Server) handleGetPayment(c *gin.Context) {
	payment, err := s.deps.Payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": toPaymentResponse(payment)})
}

func (s *Server) handleUpdatePayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.deps.Payments.Update(c.Request.Context(), req.model(c.Param("id"))); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment updated"})
}

func (s *Server) handleDeletePayment(c *gin.Context) {
	if err := s.deps.Payments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment deleted"})
}
