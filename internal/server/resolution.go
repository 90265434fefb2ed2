package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	resolutiondomain "github.com/smallbiznis/pricebook/internal/resolution/domain"
)

func (s *Server) ResolvePrice(c *gin.Context) {
	var req resolutiondomain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.resolutionSvc.Resolve(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ResolvePrices(c *gin.Context) {
	var req resolutiondomain.ResolveManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.resolutionSvc.ResolveMany(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
