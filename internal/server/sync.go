package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
	"github.com/smallbiznis/pricebook/pkg/db/pagination"
)

func (s *Server) ImportPriceList(c *gin.Context) {
	var req syncdomain.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.syncSvc.Import(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListSyncJobs(c *gin.Context) {
	priceListID := strings.TrimSpace(c.Query("price_list_id"))

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, info, err := s.syncSvc.ListJobs(c.Request.Context(), priceListID, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": info})
}

func (s *Server) GetSyncJob(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.syncSvc.GetJob(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelSyncJob(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.syncSvc.CancelJob(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cancelled": true}})
}

func (s *Server) GetLastDeltaToken(c *gin.Context) {
	priceListID := strings.TrimSpace(c.Query("price_list_id"))
	token, err := s.syncSvc.LastDeltaToken(c.Request.Context(), priceListID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"delta_token": token}})
}

func (s *Server) ProcessDeltaUpdates(c *gin.Context) {
	var req syncdomain.DeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.syncSvc.ProcessDeltaUpdates(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ScheduleBatchSync(c *gin.Context) {
	jobIDs, err := s.syncSvc.ScheduleBatchSync(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ids := make([]string, 0, len(jobIDs))
	for _, id := range jobIDs {
		ids = append(ids, id.String())
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"job_ids": ids}})
}
