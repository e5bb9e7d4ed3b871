package v1

import (
	"context"
	"net/http"
	"time"

	"go-form-relay/internal/delivery/http/response"
	"go-form-relay/internal/domain"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC domain.HealthUsecase
}

func NewHealthHandler(r *gin.RouterGroup, healthUC domain.HealthUsecase) {
	h := &HealthHandler{healthUC: healthUC}
	r.GET("/health", h.Health)
}

// Health godoc
// @Summary      Health Check
// @Description  Reports process liveness and the state of optional dependencies.
// @Tags         system
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	// Optional dependencies degrade features, they never fail liveness
	response.Success(c, http.StatusOK, "System operational", h.healthUC.Check(ctx))
}
