package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// updateProfileBody is decoded by hand; documents keep their raw form so the
// object variant preserves key order.
type updateProfileBody struct {
	FullName       *string         `json:"fullName"`
	Phone          *string         `json:"phone"`
	NomorTelepon   *string         `json:"nomorTelepon"`
	CompanyProfile json.RawMessage `json:"companyProfile"`
	Documents      json.RawMessage `json:"documents"`
}

// updateProfileRequest documents the PATCH /api/users/me body.
type updateProfileRequest struct {
	FullName       string           `json:"fullName,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	NomorTelepon   string           `json:"nomorTelepon,omitempty"`
	CompanyProfile map[string]any   `json:"companyProfile,omitempty"`
	Documents      []documentObject `json:"documents,omitempty"`
}

type setRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=CULTURAL_PARTNER LICENSE_BUYER ADMIN"`
}

// Me returns the authenticated user.
//
// @Summary      Get current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  apierror.Response
// @Failure      404  {object}  apierror.Response
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.userService.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe changes the authenticated user's profile.
//
// @Summary      Update current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Profile changes"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  apierror.Response
// @Failure      401   {object}  apierror.Response
// @Failure      404   {object}  apierror.Response
// @Router       /api/users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return domain.Validation("invalid payload")
	}
	var body updateProfileBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.Validation("invalid payload")
	}
	docs, err := parseDocumentsJSON(body.Documents)
	if err != nil {
		return err
	}

	in := ports.ProfileUpdateInput{
		FullName:       body.FullName,
		Phone:          body.NomorTelepon,
		CompanyProfile: objectOrNil(body.CompanyProfile),
		Documents:      docs,
	}
	if in.Phone == nil {
		in.Phone = body.Phone
	}

	user, err := h.userService.UpdateProfile(c.Request().Context(), id.UserID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetRole changes another user's role.
//
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "User ID"
// @Param        body  body      setRoleRequest  true  "New role"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  apierror.Response
// @Failure      403   {object}  apierror.Response
// @Failure      404   {object}  apierror.Response
// @Router       /api/users/{id}/role [put]
func (h *UserHandler) SetRole(c echo.Context) error {
	var req setRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userService.SetRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Verify marks a user's email as verified.
//
// @Summary      Verify a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  apierror.Response
// @Failure      404  {object}  apierror.Response
// @Router       /api/users/{id}/verify [post]
func (h *UserHandler) Verify(c echo.Context) error {
	user, err := h.userService.VerifyEmail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
