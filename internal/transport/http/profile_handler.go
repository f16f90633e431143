package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neuroguard/neuroguard-api/internal/domain"
	"github.com/neuroguard/neuroguard-api/internal/service"
	"github.com/neuroguard/neuroguard-api/internal/util"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Register(e *echo.Echo, auth *service.AuthService) {
	e.GET("/profile", h.getProfile, RequireAuth(auth))
}

func (h *ProfileHandler) getProfile(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return domain.NewInvalidToken("Not authenticated. Please log in.")
	}
	profile, err := h.profiles.GetProfile(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.Success(profile))
}
