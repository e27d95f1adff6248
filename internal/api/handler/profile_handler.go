package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/linhthach/sanctum/internal/api/metrics"
	"github.com/linhthach/sanctum/internal/core/domain"
	"github.com/linhthach/sanctum/internal/core/ports"
)

// ProfileHandler exposes profile reads, self-edits, and the one-time gift.
type ProfileHandler struct {
	profiles ports.ProfileService
}

func NewProfileHandler(profiles ports.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Roles handles GET /roles — the static role metadata table.
func (h *ProfileHandler) Roles(c echo.Context) error {
	roles := domain.AllRoles()
	infos := make([]domain.RoleInfo, 0, len(roles))
	for _, r := range roles {
		infos = append(infos, r.Info())
	}
	return c.JSON(http.StatusOK, infos)
}

// Get handles GET /profiles/:userId.
func (h *ProfileHandler) Get(c echo.Context) error {
	userID := c.Param("userId")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}
	profile, err := h.profiles.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

type batchRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1,max=100"`
}

// Batch handles POST /profiles/batch. Absent ids are omitted from the
// response map rather than erroring the whole batch.
func (h *ProfileHandler) Batch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profiles, err := h.profiles.GetProfiles(c.Request().Context(), req.UserIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profiles)
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,min=1,max=64"`
	Bio         *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
	Website     *string `json:"website" validate:"omitempty,url"`
	CustomTags  *string `json:"custom_tags"`
}

// UpdateMe handles PATCH /profiles/me. Only the caller's own profile is
// editable, and only the cosmetic fields; role and balance moves go through
// their dedicated operations.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.profiles.UpdateProfile(c.Request().Context(), profile.UserID, ports.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
		Location:    req.Location,
		Website:     req.Website,
		CustomTags:  req.CustomTags,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// ClaimGift handles POST /profiles/me/gift.
func (h *ProfileHandler) ClaimGift(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}

	result, err := h.profiles.ClaimNewbieGift(c.Request().Context(), profile.UserID)
	if err != nil {
		return err
	}

	metrics.GiftClaimsTotal.WithLabelValues(string(profile.Role)).Inc()
	return c.JSON(http.StatusOK, map[string]int64{
		"reward":      result.Reward,
		"new_balance": result.NewBalance,
	})
}
