package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
)

func (s *Server) CreateOverride(c *gin.Context) {
	var req overridedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.overrideSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOverrides(c *gin.Context) {
	itemID := strings.TrimSpace(c.Query("price_list_item_id"))
	resp, err := s.overrideSvc.List(c.Request.Context(), itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelOverride(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.overrideSvc.Cancel(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": true}})
}
