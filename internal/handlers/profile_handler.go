package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/internal/services"
)

const avatarFormField = "avatar"

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func (h *HandlerManager) HandleHome(c *gin.Context) {
	home, err := h.Profiles.Home(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, home)
}

func (h *HandlerManager) HandleGetProfile(c *gin.Context) {
	profile, err := h.Profiles.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *HandlerManager) HandleUpdateProfile(c *gin.Context) {
	var in services.UpdateProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "요청 형식이 올바르지 않아요")
		return
	}

	profile, err := h.Profiles.Update(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *HandlerManager) HandleSetAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "available 값이 필요해요")
		return
	}

	profile, err := h.Profiles.SetAvailability(c.Request.Context(), middleware.UserID(c), *req.Available)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandleUploadAvatar accepts a multipart upload in the "avatar" field.
func (h *HandlerManager) HandleUploadAvatar(c *gin.Context) {
	fh, err := c.FormFile(avatarFormField)
	if err != nil {
		badRequest(c, "업로드할 사진을 선택해 주세요")
		return
	}

	file, err := fh.Open()
	if err != nil {
		renderError(c, err)
		return
	}
	defer file.Close()

	profile, err := h.Profiles.UploadAvatar(c.Request.Context(), middleware.UserID(c),
		fh.Filename, fh.Header.Get("Content-Type"), file, fh.Size)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// HandleTrustSnapshot answers 204 when the snapshot cannot be built; the
// client then hides the trust section instead of showing an error.
func (h *HandlerManager) HandleTrustSnapshot(c *gin.Context) {
	snapshot, ok := h.Trust.GetSnapshot(c.Request.Context(), c.Param("id"))
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshot": snapshot,
		"badges":   services.BadgeDetails(snapshot.Badges),
	})
}
