package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rupagen/marketplace-api/internal/api/metrics"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

const (
	upstreamChat  = "chat"
	upstreamImage = "image"
)

type StudioHandler struct {
	studioService ports.StudioService
}

func NewStudioHandler(studioService ports.StudioService) *StudioHandler {
	return &StudioHandler{studioService: studioService}
}

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required,max=1000"`
}

type generateResponse struct {
	Image string `json:"image,omitempty"`
	URL   string `json:"url,omitempty"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// Generate renders a batik motif from a text prompt.
//
// @Summary      Generate a batik image
// @Tags         studio
// @Accept       json
// @Produce      json
// @Param        body  body      generateRequest  true  "Prompt"
// @Success      200   {object}  generateResponse
// @Failure      400   {object}  apierror.Response
// @Failure      429   {object}  apierror.Response
// @Failure      503   {object}  apierror.Response
// @Failure      500   {object}  apierror.Response
// @Router       /api/generate [post]
func (h *StudioHandler) Generate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	start := time.Now()
	image, url, err := h.studioService.GenerateImage(c.Request().Context(), req.Prompt)
	observeUpstream(upstreamImage, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, generateResponse{Image: image, URL: url})
}

// ListTitles returns the caller's conversations.
//
// @Summary      List chat titles
// @Tags         studio
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  ports.ChatTitlePage
// @Failure      401    {object}  apierror.Response
// @Failure      503    {object}  apierror.Response
// @Router       /api/studio/titles [get]
func (h *StudioHandler) ListTitles(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	start := time.Now()
	titles, err := h.studioService.ListTitles(c.Request().Context(), id.Token, page, limit)
	observeUpstream(upstreamChat, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, titles)
}

// CreateTitle opens a new conversation.
//
// @Summary      Create a chat title
// @Tags         studio
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  ports.ChatTitle
// @Failure      401  {object}  apierror.Response
// @Failure      503  {object}  apierror.Response
// @Router       /api/studio/titles [post]
func (h *StudioHandler) CreateTitle(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	start := time.Now()
	title, err := h.studioService.CreateTitle(c.Request().Context(), id.Token)
	observeUpstream(upstreamChat, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, title)
}

// History returns the messages of a conversation.
//
// @Summary      Get chat history
// @Tags         studio
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Title ID"
// @Success      200  {object}  ports.ChatHistory
// @Failure      401  {object}  apierror.Response
// @Failure      503  {object}  apierror.Response
// @Router       /api/studio/titles/{id}/messages [get]
func (h *StudioHandler) History(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	start := time.Now()
	history, err := h.studioService.History(c.Request().Context(), id.Token, c.Param("id"))
	observeUpstream(upstreamChat, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}

// SendMessage posts a message to a conversation and returns the updated log.
//
// @Summary      Send a chat message
// @Tags         studio
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Title ID"
// @Param        body  body      sendMessageRequest  true  "Message"
// @Success      200   {object}  ports.ChatHistory
// @Failure      400   {object}  apierror.Response
// @Failure      401   {object}  apierror.Response
// @Failure      503   {object}  apierror.Response
// @Router       /api/studio/titles/{id}/messages [post]
func (h *StudioHandler) SendMessage(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	start := time.Now()
	history, err := h.studioService.SendMessage(c.Request().Context(), id.Token, c.Param("id"), req.Content)
	observeUpstream(upstreamChat, start, err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}

func observeUpstream(upstream string, start time.Time, err error) {
	metrics.UpstreamCallsTotal.WithLabelValues(upstream, metrics.Result(err)).Inc()
	metrics.UpstreamDuration.WithLabelValues(upstream).Observe(time.Since(start).Seconds())
}
