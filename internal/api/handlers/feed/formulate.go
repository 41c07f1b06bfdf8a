package feed

import (
	"errors"
	"fmt"
	"net/http"

	"feed-formulator/internal/core/formulation"
	"feed-formulator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FormulateRequest is the HTTP payload for a formulation call. Mass bounds
// are expressed per 100 kg of blend, matching the spreadsheet the catalog
// comes from, and are converted to proportions for the core.
type FormulateRequest struct {
	Species     string      `json:"species" binding:"required"`
	Ingredients []string    `json:"ingredients" binding:"required"`
	Constraints Constraints `json:"constraints"`
	BatchSizes  []float64   `json:"batch_sizes,omitempty"`
	Mode        string      `json:"mode,omitempty"`
}

// Constraints are the optional per-request restrictions.
type Constraints struct {
	Exclude     []string           `json:"exclude,omitempty"`
	MinAmountKg map[string]float64 `json:"min_amount_kg,omitempty"`
	MaxAmountKg map[string]float64 `json:"max_amount_kg,omitempty"`
	Prices      map[string]float64 `json:"prices,omitempty"`
}

// Handler serves the feed formulation endpoints.
type Handler struct {
	service *formulation.Service
}

// NewHandler creates the feed handler.
func NewHandler(service *formulation.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// validate rejects payload values the core has no meaningful answer for.
func (r *FormulateRequest) validate() error {
	for _, size := range r.BatchSizes {
		if size <= 0 {
			return common.NewValidationError(fmt.Sprintf("batch size %g must be positive", size))
		}
	}
	for name, kg := range r.Constraints.MinAmountKg {
		if kg < 0 {
			return common.NewValidationError(fmt.Sprintf("min_amount_kg for %q must not be negative", name))
		}
	}
	for name, kg := range r.Constraints.MaxAmountKg {
		if kg < 0 {
			return common.NewValidationError(fmt.Sprintf("max_amount_kg for %q must not be negative", name))
		}
	}
	for name, price := range r.Constraints.Prices {
		if price < 0 {
			return common.NewValidationError(fmt.Sprintf("price for %q must not be negative", name))
		}
	}
	return nil
}

// toCoreRequest maps the transport payload onto a core request.
func (r *FormulateRequest) toCoreRequest() *formulation.Request {
	return &formulation.Request{
		Species:       r.Species,
		Ingredients:   r.Ingredients,
		Exclude:       r.Constraints.Exclude,
		MinProportion: per100ToProportion(r.Constraints.MinAmountKg),
		MaxProportion: per100ToProportion(r.Constraints.MaxAmountKg),
		Prices:        r.Constraints.Prices,
		BatchSizes:    r.BatchSizes,
		Mode:          formulation.Mode(r.Mode),
	}
}

func per100ToProportion(amounts map[string]float64) map[string]float64 {
	if len(amounts) == 0 {
		return nil
	}
	out := make(map[string]float64, len(amounts))
	for name, kg := range amounts {
		out[name] = kg / 100
	}
	return out
}

// HandleFormulate computes a blend and returns it as JSON.
func (h *Handler) HandleFormulate(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = common.GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}

	common.LogInfo("formulation request received",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	var req FormulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("invalid request format",
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

	c.JSON(http.StatusOK, result)
}

// HandleSpecies lists the registered species keys.
func (h *Handler) HandleSpecies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"species": h.service.Registry().Species(),
	})
}

// HandleIngredients lists the catalog ingredients.
func (h *Handler) HandleIngredients(c *gin.Context) {
	all := h.service.Catalog().All()
	names := make([]string, 0, len(all))
	for _, ing := range all {
		names = append(names, ing.Name)
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": names,
		"nutrients":   h.service.Catalog().Nutrients(),
	})
}

// writeError maps core failures onto HTTP responses.
func (h *Handler) writeError(c *gin.Context, requestID string, err error) {
	if fe, ok := formulation.AsError(err); ok {
		common.LogWarn("formulation failed",
			zap.String("kind", string(fe.Kind)),
			zap.String("detail", fe.Detail),
			zap.String("request_id", requestID),
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fe.Detail,
			"code":  string(fe.Kind),
		})
		return
	}

	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	var ce *common.CustomError
	if errors.As(err, &ce) {
		c.JSON(ce.Status, gin.H{
			"error": ce.Message,
			"code":  ce.Code,
		})
		return
	}

	common.LogError("formulation error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Formulation failed",
		"code":  common.ErrCodeInternalError,
	})
}
