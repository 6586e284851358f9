package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (s *Server) handleAdminRequestOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if !s.allow(c, "admin-otp:"+c.ClientIP()) {
		return
	}

	if err := s.deps.Auth.RequestAdminOTP(c.Request.Context(), req.Email); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent"})
}

func (s *Server) handleAdminVerifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
		return
	}
	if !s.allow(c, "admin-verify:"+c.ClientIP()) {
		return
	}

	token, err := s.deps.Auth.VerifyAdminOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		s.respondOTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleAdminLogout(c *gin.Context) {
	token := c.GetHeader(adminTokenHeader)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing admin token"})
		return
	}
	if err := s.deps.Auth.Logout(c.Request.Context(), token); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handleLoginRequestOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.allow(c, "login-otp:"+email) {
		return
	}

	if err := s.deps.Auth.RequestLoginOTP(c.Request.Context(), email); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent"})
}

func (s *Server) handleLoginVerifyOTP(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and code are required"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !s.allow(c, "login-verify:"+email) {
		return
	}

	user, err := s.deps.Auth.VerifyLoginOTP(c.Request.Context(), email, req.Code)
	if err != nil {
		s.respondOTPError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
