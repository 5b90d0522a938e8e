package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gheggie/silverware-mailchimp/pkg/logging"
)

type ListsHandler struct {
	directory ListDirectory
	logger    logging.Logger
	metrics   *SignupMetrics
}

func NewListsHandler(directory ListDirectory, logger logging.Logger, metrics *SignupMetrics) *ListsHandler {
	return &ListsHandler{
		directory: directory,
		logger:    logger,
		metrics:   metrics,
	}
}

// HandleLists answers the available audience lists from the cache. A
// failed fetch is reported as an upstream error so clients can disable
// their list selection instead of rendering an empty one.
func (h *ListsHandler) HandleLists(c *gin.Context) {
	descriptors, err := h.directory.Descriptors(c.Request.Context())
	if err != nil {
		h.metrics.IncLists("error")
		h.logger.WithError(err).Error("Failed to serve audience lists")
		c.JSON(http.StatusBadGateway, gin.H{"error": "List service unavailable"})
		return
	}

	h.metrics.IncLists("success")
	c.JSON(http.StatusOK, gin.H{"lists": descriptors})
}

// HandleFlush drops the cached lists so the next read refetches.
func (h *ListsHandler) HandleFlush(c *gin.Context) {
	h.directory.Flush()
	h.metrics.IncLists("flush")
	h.logger.Info("Audience list cache flushed")
	c.JSON(http.StatusOK, gin.H{"success": true})
}
