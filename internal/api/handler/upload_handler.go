package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rupagen/marketplace-api/internal/api/metrics"
	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

const (
	uploadKindGeneric  = "generic"
	uploadKindDocument = "user_document"
)

type UploadHandler struct {
	uploadService  ports.UploadService
	maxUploadBytes int64
}

func NewUploadHandler(uploadService ports.UploadService, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxUploadBytes: maxUploadBytes}
}

type signatureRequest struct {
	Folder string `json:"folder" validate:"max=200"`
}

type userDocumentResponse struct {
	OK   bool         `json:"ok"`
	URL  string       `json:"url"`
	User *domain.User `json:"user"`
}

type usageResponse struct {
	OK   bool   `json:"ok"`
	Info string `json:"info"`
}

// Upload stores an arbitrary file in the object store.
//
// @Summary      Upload a file
// @Tags         upload
// @Accept       mpfd
// @Produce      json
// @Param        file    formData  file    true   "File to upload"
// @Param        folder  formData  string  false  "Target folder"
// @Success      200     {object}  ports.UploadResult
// @Failure      400     {object}  apierror.Response
// @Failure      500     {object}  apierror.Response
// @Router       /api/upload/cloudinary [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	file, err := h.formFile(c, "file")
	if err != nil {
		return err
	}
	folder := strings.TrimSpace(c.FormValue("folder"))

	res, err := h.uploadService.Upload(c.Request().Context(), file, folder)
	h.observe(uploadKindGeneric, file, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// UploadUserDocument stores a file and records its URL on a user.
//
// @Summary      Upload a user document
// @Tags         upload
// @Accept       mpfd
// @Produce      json
// @Param        userId  formData  string  true   "User ID"
// @Param        type    formData  string  true   "Document type or field name"
// @Param        file    formData  file    true   "Document file"
// @Param        folder  formData  string  false  "Target folder"
// @Success      200     {object}  userDocumentResponse
// @Failure      400     {object}  apierror.Response
// @Failure      404     {object}  apierror.Response
// @Failure      500     {object}  apierror.Response
// @Router       /api/upload/user-document [post]
func (h *UploadHandler) UploadUserDocument(c echo.Context) error {
	var (
		userID, docType, folder string
		file                    domain.FilePayload
	)
	if isMultipart(c) {
		var err error
		if file, err = h.formFile(c, "file"); err != nil {
			return err
		}
		userID = strings.TrimSpace(c.FormValue("userId"))
		docType = strings.TrimSpace(c.FormValue("type"))
		folder = strings.TrimSpace(c.FormValue("folder"))
	}

	url, user, err := h.uploadService.UploadUserDocument(c.Request().Context(), userID, docType, file, folder)
	h.observe(uploadKindDocument, file, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userDocumentResponse{OK: true, URL: url, User: user})
}

// Signature issues a signature for direct client uploads.
//
// @Summary      Sign a direct upload
// @Tags         upload
// @Accept       json
// @Produce      json
// @Param        body  body      signatureRequest  false  "Optional target folder"
// @Success      200   {object}  ports.UploadSignature
// @Failure      500   {object}  apierror.Response
// @Router       /api/upload/signature [post]
func (h *UploadHandler) Signature(c echo.Context) error {
	var req signatureRequest
	// An unreadable body is treated as an empty one.
	_ = c.Bind(&req)
	req.Folder = strings.TrimSpace(req.Folder)
	if err := c.Validate(&req); err != nil {
		return err
	}

	sig, err := h.uploadService.Sign(req.Folder)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sig)
}

// UploadUsage describes how to call the generic upload endpoint.
func (h *UploadHandler) UploadUsage(c echo.Context) error {
	return c.JSON(http.StatusOK, usageResponse{
		OK:   true,
		Info: "POST multipart/form-data to this endpoint with field `file` and optional `folder`",
	})
}

// UserDocumentUsage describes how to call the user document endpoint.
func (h *UploadHandler) UserDocumentUsage(c echo.Context) error {
	return c.JSON(http.StatusOK, usageResponse{
		OK:   true,
		Info: "POST multipart/form-data with userId, type, file (and optional folder). Saves the stored URL to the user record.",
	})
}

// SignatureUsage describes how to call the signature endpoint.
func (h *UploadHandler) SignatureUsage(c echo.Context) error {
	return c.JSON(http.StatusOK, usageResponse{
		OK:   true,
		Info: "POST to this endpoint with optional { folder } to get signature",
	})
}

// formFile reads the named file part. A missing part yields an empty payload
// so the service decides which check fails first.
func (h *UploadHandler) formFile(c echo.Context, name string) (domain.FilePayload, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return domain.FilePayload{}, nil
	}
	payload, err := readFormFile(fh, h.maxUploadBytes)
	if err != nil {
		return domain.FilePayload{}, err
	}
	return *payload, nil
}

func (h *UploadHandler) observe(kind string, file domain.FilePayload, err error) {
	metrics.UploadsTotal.WithLabelValues(kind, metrics.Result(err)).Inc()
	if err == nil {
		metrics.UploadBytes.Observe(float64(len(file.Data)))
	}
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}
