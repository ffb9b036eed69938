package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/pkg/logger"
)

const (
	defaultOverviewLimit = 50
	maxOverviewLimit     = 500
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type createTestMatchRequest struct {
	CreatorID  string `json:"creator_id" binding:"required"`
	OpponentID string `json:"opponent_id" binding:"required"`
	MatchType  string `json:"match_type"`
}

// overviewLimit reads ?limit=, clamped to (0, maxOverviewLimit].
func overviewLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > maxOverviewLimit {
		return maxOverviewLimit
	}
	return limit
}

func (h *HandlerManager) HandleAdminOverview(c *gin.Context) {
	rows, err := h.Matches.AdminOverview(c.Request.Context(), overviewLimit(c, defaultOverviewLimit))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": rows})
}

func (h *HandlerManager) HandleCreateTestMatch(c *gin.Context) {
	var req createTestMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "생성자와 상대를 모두 선택해 주세요")
		return
	}

	match, err := h.Matches.CreateTestMatch(c.Request.Context(), req.CreatorID, req.OpponentID, req.MatchType, middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

func (h *HandlerManager) HandleAdminCompleteMatch(c *gin.Context) {
	match, err := h.Matches.CompleteMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *HandlerManager) HandleAdminCancelMatch(c *gin.Context) {
	match, err := h.Matches.CancelMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// HandleAdminExport downloads the overview as a spreadsheet.
func (h *HandlerManager) HandleAdminExport(c *gin.Context) {
	rows, err := h.Matches.AdminOverview(c.Request.Context(), overviewLimit(c, maxOverviewLimit))
	if err != nil {
		renderError(c, err)
		return
	}

	f, err := BuildOverviewWorkbook(rows)
	if err != nil {
		renderError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("matches-%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		logger.Error("Failed to write match export", "error", err)
	}
}
