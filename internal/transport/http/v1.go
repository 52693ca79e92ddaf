package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/alph-swap-backend/internal/handler"
	"github.com/dwarvesf/alph-swap-backend/internal/view"
)

var routedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

func loadSwapRoutes(r *gin.Engine, h *handler.Handler) {
	swap := r.Group("/api/swap")
	{
		handleOnly(swap, http.MethodPost, "/initiate", h.SwapHandler.Initiate)
		handleOnly(swap, http.MethodGet, "/status/:swapId", h.SwapHandler.Status)
		handleOnly(swap, http.MethodPost, "/deposit/:swapId", h.SwapHandler.AttachDeposit)
		handleOnly(swap, http.MethodGet, "/history", h.SwapHandler.History)
		handleOnly(swap, http.MethodGet, "/tokens", h.SwapHandler.Tokens)
	}
}

func loadV1Routes(r *gin.Engine, h *handler.Handler) {
	v1 := r.Group("/api/v1")

	health := v1.Group("/health")
	{
		health.GET("/db", h.HealthHandler.Database)
		health.GET("/external", h.HealthHandler.External)
		health.GET("/jobs", h.HealthHandler.Jobs)
	}

	r.GET("/healthz", h.HealthHandler.Basic)
	r.GET("/metrics", h.MetricsHandler.Handler())
}

// handleOnly serves path for a single method and answers every other method
// with 405 and an Allow header.
func handleOnly(group *gin.RouterGroup, method, path string, handle gin.HandlerFunc) {
	group.Handle(method, path, handle)

	notAllowed := func(c *gin.Context) {
		c.Header("Allow", method)
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, view.MessageResponse{
			Message: "Method " + c.Request.Method + " not allowed, use " + method,
		})
	}
	for _, m := range routedMethods {
		if m != method {
			group.Handle(m, path, notAllowed)
		}
	}
}

func routeCount(r *gin.Engine) string {
	return strconv.Itoa(len(r.Routes()))
}
