package pipeline

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docproc-backend/internal/engine"
	"docproc-backend/internal/shared/server/middleware"
	"docproc-backend/internal/shared/server/respond"
	"docproc-backend/internal/users"
)

// Handler exposes search, question answering, and engine management.
type Handler struct {
	Coord *Coordinator
	Users users.Repo
}

// NewHandler constructs a Handler.
func NewHandler(coord *Coordinator, userRepo users.Repo) *Handler {
	return &Handler{Coord: coord, Users: userRepo}
}

// RegisterRoutes attaches query and engine routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
	rg.POST("/ask", h.ask)
	rg.GET("/engines", h.engines)
	rg.POST("/engines/switch", h.switchEngine)
	rg.POST("/admin/cleanup-orphans", h.cleanupOrphans)
}

func (h *Handler) search(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "q is required", nil)
		return
	}

	k := 4
	if v := c.Query("k"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			k = parsed
		}
	}
	if k > 20 {
		k = 20
	}

	hits, engineName, err := h.Coord.Router.Search(c.Request.Context(), query, userID, k)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "search failed", nil)
		return
	}
	c.Set("engine", engineName)

	respond.OK(c, gin.H{
		"query":   query,
		"engine":  engineName,
		"results": hits,
	})
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *Handler) ask(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		return
	}

	answer, err := h.Coord.Router.Answer(c.Request.Context(), req.Question, userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer question", nil)
		return
	}
	c.Set("engine", answer.EngineUsed)

	respond.OK(c, answer)
}

func (h *Handler) engines(c *gin.Context) {
	infos := h.Coord.Router.Infos(c.Request.Context())
	respond.OK(c, gin.H{
		"preferred": h.Coord.Router.Preferred(),
		"engines":   infos,
	})
}

type switchRequest struct {
	Engine string `json:"engine"`
}

func (h *Handler) switchEngine(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Engine = strings.TrimSpace(req.Engine)
	if req.Engine == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "engine is required", nil)
		return
	}

	if err := h.Coord.Router.SwitchEngine(c.Request.Context(), req.Engine); err != nil {
		switch {
		case errors.Is(err, engine.ErrUnavailable):
			respond.Error(c, http.StatusConflict, "engine_unavailable", err.Error(), nil)
		default:
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		}
		return
	}

	respond.OK(c, gin.H{"preferred": req.Engine})
}

func (h *Handler) cleanupOrphans(c *gin.Context) {
	report, err := h.Coord.CleanupOrphans(c.Request.Context(), h.Users)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "cleanup failed", nil)
		return
	}
	respond.OK(c, report)
}
