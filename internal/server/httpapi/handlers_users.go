package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/services"
)

type createUserRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Role        string `json:"role" binding:"required"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name, email, phone_number and role are required"})
		return
	}

	user, err := s.deps.Users.Create(c.Request.Context(), services.CreateUserInput{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Role:        models.Role(req.Role),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

func (s *Server) handleListUsers(c *gin.Context) {
	role := models.Role(c.Query("role"))
	search := c.Query("q")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	users, err := s.deps.Users.List(c.Request.Context(), role, search, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": toUserResponses(users), "page": page})
}

func (s *Server) handleGetUser(c *gin.Context) {
	got, err := s.deps.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":    toUserResponse(got.User),
		"profile": toProfileResponse(got.Profile),
	})
}

type updateUserRequest struct {
	Name            *string  `json:"name"`
	PhoneNumber     *string  `json:"phone_number"`
	ProfilePictures []string `json:"profile_pictures"`

	CompanyName     *string `json:"company_name"`
	Industry        *string `json:"industry"`
	Website         *string `json:"website"`
	Campaigns       *int    `json:"campaigns"`
	Followers       *string `json:"followers"`
	Engagement      *string `json:"engagement"`
	InstagramHandle *string `json:"instagram_handle"`
	Niche           *string `json:"niche"`
}

func (r *updateUserRequest) profile() *models.Profile {
	if r.CompanyName == nil && r.Industry == nil && r.Website == nil && r.Campaigns == nil &&
		r.Followers == nil && r.Engagement == nil && r.InstagramHandle == nil && r.Niche == nil {
		return nil
	}
	p := &models.Profile{}
	if r.CompanyName != nil {
		p.CompanyName = *r.CompanyName
	}
	if r.Industry != nil {
		p.Industry = *r.Industry
	}
	if r.Website != nil {
		p.Website = *r.Website
	}
	if r.Campaigns != nil {
		p.Campaigns = *r.Campaigns
	}
	if r.Followers != nil {
		p.Followers = *r.Followers
	}
	if r.Engagement != nil {
		p.Engagement = *r.Engagement
	}
	if r.InstagramHandle != nil {
		p.InstagramHandle = *r.InstagramHandle
	}
	if r.Niche != nil {
		p.Niche = *r.Niche
	}
	return p
}

func (r *updateUserRequest) input() services.UpdateInput {
	return services.UpdateInput{
		Name:            r.Name,
		PhoneNumber:     r.PhoneNumber,
		ProfilePictures: r.ProfilePictures,
		Profile:         r.profile(),
	}
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := s.deps.Users.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleUpdateUserStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	if err := s.deps.Users.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.deps.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

type sendEmailRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

func (s *Server) handleSendEmail(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, subject and body are required"})
		return
	}

	if err := s.deps.Users.SendCustomEmail(c.Request.Context(), req.UserID, req.Subject, req.Body); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email sent"})
}

// --- self-service ---

func (s *Server) handleUpdateMe(c *gin.Context) {
	user := currentUser(c)

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := s.deps.Users.Update(c.Request.Context(), user.ID, req.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(updated)})
}

func (s *Server) handleClientArea(c *gin.Context) {
	s.handleArea(c)
}

func (s *Server) handleInfluencerArea(c *gin.Context) {
	s.handleArea(c)
}

func (s *Server) handleArea(c *gin.Context) {
	user := currentUser(c)

	got, err := s.deps.Users.Get(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":    toUserResponse(got.User),
		"profile": toProfileResponse(got.Profile),
	})
}

// --- email change ---

func (s *Server) handleEmailChangeRequestOld(c *gin.Context) {
	user := currentUser(c)
	if !s.allow(c, "email-change:"+user.Email) {
		return
	}

	if err := s.deps.EmailChange.RequestOldVerification(c.Request.Context(), user); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent"})
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

func (s *Server) handleEmailChangeConfirmOld(c *gin.Context) {
	user := currentUser(c)

	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	if !s.allow(c, "email-change:"+user.Email) {
		return
	}

	// unlike login, the distinct reason goes back to the caller: the client
	// needs to know an expired code from a mistyped one to restart correctly
	if err := s.deps.EmailChange.ConfirmOldVerification(c.Request.Context(), user, req.Code); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "current address verified"})
}

type newEmailRequest struct {
	NewEmail string `json:"new_email" binding:"required"`
}

func (s *Server) handleEmailChangeRequestNew(c *gin.Context) {
	user := currentUser(c)

	var req newEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "new_email is required"})
		return
	}
	if !s.allow(c, "email-change:"+user.Email) {
		return
	}

	if err := s.deps.EmailChange.RequestNewVerification(c.Request.Context(), user, req.NewEmail); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent"})
}

func (s *Server) handleEmailChangeConfirmNew(c *gin.Context) {
	user := currentUser(c)

	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	if !s.allow(c, "email-change:"+user.Email) {
		return
	}

	if err := s.deps.EmailChange.ConfirmNewVerification(c.Request.Context(), user, req.Code); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email address updated"})
}
