package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
)

func (s *Server) AddPriceListItem(c *gin.Context) {
	listID := strings.TrimSpace(c.Param("id"))

	var req itemdomain.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.itemSvc.Add(c.Request.Context(), listID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPriceListItems(c *gin.Context) {
	listID := strings.TrimSpace(c.Param("id"))
	resp, err := s.itemSvc.List(c.Request.Context(), listID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPriceListItem(c *gin.Context) {
	listID := strings.TrimSpace(c.Param("id"))
	sku := strings.TrimSpace(c.Param("sku"))

	resp, err := s.itemSvc.Get(c.Request.Context(), listID, sku)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePriceListItem(c *gin.Context) {
	listID := strings.TrimSpace(c.Param("id"))
	sku := strings.TrimSpace(c.Param("sku"))

	var req itemdomain.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.itemSvc.Update(c.Request.Context(), listID, sku, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type bulkUpsertRequest struct {
	Items []itemdomain.ItemInput `json:"items"`
}

func (s *Server) BulkUpsertItems(c *gin.Context) {
	listID := strings.TrimSpace(c.Param("id"))

	var req bulkUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.itemSvc.BulkUpsert(c.Request.Context(), listID, req.Items)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
