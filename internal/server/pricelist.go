package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
)

func (s *Server) CreatePriceList(c *gin.Context) {
	var req pricelistdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceListSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPriceLists(c *gin.Context) {
	if code := strings.TrimSpace(c.Query("code")); code != "" {
		resp, err := s.priceListSvc.GetByCode(c.Request.Context(), code)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": []any{resp}})
		return
	}

	resp, err := s.priceListSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPriceList(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.priceListSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePriceList(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req pricelistdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceListSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchivePriceList(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.priceListSvc.Archive(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"archived": true}})
}
