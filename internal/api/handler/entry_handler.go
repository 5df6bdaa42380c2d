package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aijournal/journal-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /entries safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// EntryHandler handles HTTP requests for journal entries. Every route sits
// behind the Auth middleware.
type EntryHandler struct {
	service ports.EntryService
}

func NewEntryHandler(service ports.EntryService) *EntryHandler {
	return &EntryHandler{service: service}
}

// List handles GET /entries.
//
// @Summary      List the caller's entries, newest first
// @Tags         entries
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   entryResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /entries [get]
func (h *EntryHandler) List(c echo.Context) error {
	auth, err := authContext(c)
	if err != nil {
		return err
	}

	entries, err := h.service.List(c.Request().Context(), auth)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponses(entries))
}

// Get handles GET /entries/:id.
//
// @Summary      Get one of the caller's entries
// @Tags         entries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Entry id"
// @Success      200  {object}  entryResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /entries/{id} [get]
func (h *EntryHandler) Get(c echo.Context) error {
	auth, err := authContext(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}

	entry, err := h.service.Get(c.Request().Context(), auth, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponse(*entry))
}

// Create handles POST /entries.
//
// @Summary      Create an entry
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string        false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      entryRequest  true   "Entry text"
// @Success      201              {object}  entryResponse
// @Success      200              {object}  entryResponse  "Replay of an earlier request with the same key"
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Router       /entries [post]
func (h *EntryHandler) Create(c echo.Context) error {
	auth, err := authContext(c)
	if err != nil {
		return err
	}
	var req entryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.service.Add(c.Request().Context(), auth, ports.AddEntryInput{
		Text:           req.Text,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, toEntryResponse(result.Entry))
}

// Update handles PUT /entries/:id.
//
// @Summary      Replace the text of an entry
// @Tags         entries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int           true  "Entry id"
// @Param        body  body      entryRequest  true  "New text"
// @Success      200   {object}  entryResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /entries/{id} [put]
func (h *EntryHandler) Update(c echo.Context) error {
	auth, err := authContext(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}
	var req entryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Update(c.Request().Context(), auth, id, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponse(*entry))
}

// Delete handles DELETE /entries/:id.
//
// @Summary      Delete an entry
// @Tags         entries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Entry id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /entries/{id} [delete]
func (h *EntryHandler) Delete(c echo.Context) error {
	auth, err := authContext(c)
	if err != nil {
		return err
	}
	id, err := entryID(c)
	if err != nil {
		return err
	}

	if err := h.service.Remove(c.Request().Context(), auth, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Entry deleted"})
}
