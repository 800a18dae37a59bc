package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rupagen/marketplace-api/internal/api/apierror"
	"github.com/rupagen/marketplace-api/internal/api/metrics"
	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

type AuthHandler struct {
	authService    ports.AuthService
	maxUploadBytes int64
}

func NewAuthHandler(authService ports.AuthService, maxUploadBytes int64) *AuthHandler {
	return &AuthHandler{authService: authService, maxUploadBytes: maxUploadBytes}
}

// registerRequest documents the JSON registration body. documents may also
// be an object keyed by document field names.
type registerRequest struct {
	Email          string           `json:"email"`
	Password       string           `json:"password"`
	FullName       string           `json:"fullName,omitempty"`
	NomorTelepon   string           `json:"nomorTelepon,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	Role           string           `json:"role,omitempty" enums:"CULTURAL_PARTNER,LICENSE_BUYER,ADMIN"`
	CompanyProfile map[string]any   `json:"companyProfile,omitempty"`
	Documents      []documentObject `json:"documents,omitempty"`
	UploadFolder   string           `json:"uploadFolder,omitempty"`
}

// registerBody is what Register actually decodes; documents and
// companyProfile stay raw so their shape can be inspected.
type registerBody struct {
	Email          string          `json:"email"`
	Password       string          `json:"password"`
	FullName       string          `json:"fullName"`
	NomorTelepon   string          `json:"nomorTelepon"`
	Phone          string          `json:"phone"`
	Role           string          `json:"role"`
	CompanyProfile json.RawMessage `json:"companyProfile"`
	Documents      json.RawMessage `json:"documents"`
	UploadFolder   string          `json:"uploadFolder"`
}

// Presence is checked by the service so both fields share one message.
type loginRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=72"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Description  Accepts JSON or multipart/form-data. Multipart document slots may carry files, which are uploaded to the object store first.
// @Tags         auth
// @Accept       json,mpfd
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  apierror.Response
// @Failure      403   {object}  apierror.Response
// @Failure      409   {object}  apierror.Response
// @Failure      500   {object}  apierror.Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	in, err := h.registerInput(c)
	if err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), in)
	metrics.RegistrationsTotal.WithLabelValues(roleLabel(in.Role), registrationResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) registerInput(c echo.Context) (ports.RegisterInput, error) {
	if isMultipart(c) {
		return h.multipartRegisterInput(c)
	}

	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return ports.RegisterInput{}, domain.Validation("invalid payload")
	}
	var body registerBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return ports.RegisterInput{}, domain.Validation("invalid payload")
	}

	docs, err := parseDocumentsJSON(body.Documents)
	if err != nil {
		return ports.RegisterInput{}, err
	}

	return ports.RegisterInput{
		Email:          body.Email,
		Password:       body.Password,
		FullName:       body.FullName,
		Phone:          firstNonEmpty(body.NomorTelepon, body.Phone),
		Role:           body.Role,
		CompanyProfile: objectOrNil(body.CompanyProfile),
		Documents:      docs,
		UploadFolder:   strings.TrimSpace(body.UploadFolder),
	}, nil
}

func (h *AuthHandler) multipartRegisterInput(c echo.Context) (ports.RegisterInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return ports.RegisterInput{}, domain.Validation("invalid multipart payload")
	}

	docs, err := formDocuments(form, h.maxUploadBytes)
	if err != nil {
		return ports.RegisterInput{}, err
	}

	var profile map[string]any
	if raw := formValue(form, "companyProfile"); raw != "" {
		profile = objectOrNil([]byte(raw))
	}

	return ports.RegisterInput{
		Email:          formValue(form, "email"),
		Password:       formValue(form, "password"),
		FullName:       formValue(form, "fullName"),
		Phone:          firstNonEmpty(formValue(form, "nomorTelepon"), formValue(form, "phone")),
		Role:           formValue(form, "role"),
		CompanyProfile: profile,
		Documents:      docs,
		UploadFolder:   formValue(form, "uploadFolder"),
	}, nil
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  apierror.Response
// @Failure      401   {object}  apierror.Response
// @Failure      429   {object}  apierror.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Validation("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

func roleLabel(role string) string {
	r, ok := domain.ParseRole(role)
	if !ok {
		return "invalid"
	}
	return string(r)
}

func registrationResult(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	code, _ := apierror.Resolve(err)
	return strconv.Itoa(code)
}

func loginResult(err error) string {
	code, _ := apierror.Resolve(err)
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case code == http.StatusUnauthorized:
		return "invalid_credentials"
	case code == http.StatusTooManyRequests:
		return "locked"
	default:
		return metrics.ResultError
	}
}
