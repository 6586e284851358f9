package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleAdminStats(c *gin.Context) {
	stats, err := s.deps.Admin.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handlePresignPut(c *gin.Context) {
	key, url, err := s.deps.Uploads.GetPresignedPutUrl(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url})
}

type presignGetRequest struct {
	Key string `json:"key" binding:"required"`
}

func (s *Server) handlePresignGet(c *gin.Context) {
	var req presignGetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	url, err := s.deps.Uploads.GetPresignedGetUrl(c.Request.Context(), req.Key)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
