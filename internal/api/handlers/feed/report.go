package feed

import (
	"net/http"

	"feed-formulator/internal/pkg/common"
	"feed-formulator/internal/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleReport computes a blend and returns it as an HTML report.
func (h *Handler) HandleReport(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	var req FormulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("invalid report request format",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	if err := req.validate(); err != nil {
		h.writeError(c, requestID, err)
		return
	}

	result, err := h.service.Formulate(c.Request.Context(), req.toCoreRequest())
	if err != nil {
		h.writeError(c, requestID, err)
		return
	}

	page, err := report.HTML(result)
	if err != nil {
		common.LogError("report rendering failed",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Report rendering failed",
			"code":  common.ErrCodeInternalError,
		})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
