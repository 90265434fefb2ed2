package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
)

func (s *Server) AssignPriceList(c *gin.Context) {
	var req assignmentdomain.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assignmentSvc.Assign(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAssignments(c *gin.Context) {
	priceListID := strings.TrimSpace(c.Query("price_list_id"))
	resp, err := s.assignmentSvc.List(c.Request.Context(), priceListID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnassignPriceList(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.assignmentSvc.Unassign(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"unassigned": true}})
}
