package handlers

import (
	"errors"
	"log"
	"net/http"

	request "bizops_billing/internal/adapter/http/dto/request"
	response "bizops_billing/internal/adapter/http/dto/response"
	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase"
	"bizops_billing/internal/usecase/interfaces"
	"bizops_billing/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidQuotePayload = pkg.NewDomainErrorSimple("INVALID_QUOTE_INPUT", "Invalid quote payload", http.StatusBadRequest)
)

// QuoteHandler handles HTTP requests for quotes.

type QuoteHandler struct {
	usecase usecase.IQuoteUseCase
}

func NewQuoteHandler(uc usecase.IQuoteUseCase) *QuoteHandler {
	return &QuoteHandler{usecase: uc}
}

// CreateQuote godoc
//
//	@Summary	Create a quote
//	@Tags		quotes
//	@Accept		json
//	@Produce	json
//	@Param		quote	body		request.QuoteCreateRequest	true	"Quote payload"
//	@Success	201		{object}	response.QuoteResponse
//	@Failure	400		{object}	pkg.HTTPError
//	@Failure	409		{object}	pkg.HTTPError
//	@Router		/v1/quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var payload request.QuoteCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidQuotePayload.HTTPStatus, errInvalidQuotePayload.ToHTTPError())
		return
	}

	quote, err := h.usecase.Create(c.Request.Context(), payload.ToInput())
	if err != nil {
		log.Printf("[quote][handler] create failed err=%v", err)
		appErr := mapQuoteError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromQuote(quote))
}

// GetQuote godoc
//
//	@Summary	Get a quote by id
//	@Tags		quotes
//	@Produce	json
//	@Param		id	path		string	true	"Quote id"
//	@Success	200	{object}	response.QuoteResponse
//	@Failure	404	{object}	pkg.HTTPError
//	@Router		/v1/quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quote, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapQuoteError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromQuote(quote))
}

// ListQuotes godoc
//
//	@Summary	List quotes
//	@Tags		quotes
//	@Produce	json
//	@Param		status		query		string	false	"Filter by status"
//	@Param		clientId	query		string	false	"Filter by client"
//	@Param		cursor		query		string	false	"Pagination cursor"
//	@Success	200			{object}	response.QuoteListResponse
//	@Router		/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	filter := interfaces.QuoteFilter{
		Status:   entities.QuoteStatus(c.Query("status")),
		ClientID: c.Query("clientId"),
		Cursor:   c.Query("cursor"),
		Limit:    parseLimit(c.Query("limit")),
	}

	quotes, nextCursor, err := h.usecase.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[quote][handler] list failed err=%v", err)
		appErr := mapQuoteError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromQuotes(quotes, nextCursor))
}

// UpdateQuote godoc
//
//	@Summary	Update a quote
//	@Tags		quotes
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Quote id"
//	@Param		quote	body		request.QuoteUpdateRequest	true	"Fields to update"
//	@Success	200		{object}	response.QuoteResponse
//	@Failure	404		{object}	pkg.HTTPError
//	@Failure	409		{object}	pkg.HTTPError
//	@Router		/v1/quotes/{id} [patch]
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	var payload request.QuoteUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidQuotePayload.HTTPStatus, errInvalidQuotePayload.ToHTTPError())
		return
	}

	quote, err := h.usecase.Update(c.Request.Context(), c.Param("id"), payload.ToInput())
	if err != nil {
		log.Printf("[quote][handler] update failed quote_id=%s err=%v", c.Param("id"), err)
		appErr := mapQuoteError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromQuote(quote))
}

// AcceptQuote godoc
//
//	@Summary	Accept a sent quote and generate its invoice
//	@Tags		quotes
//	@Produce	json
//	@Param		id	path		string	true	"Quote id"
//	@Success	200	{object}	response.AcceptQuoteResponse
//	@Failure	404	{object}	pkg.HTTPError
//	@Failure	409	{object}	pkg.HTTPError
//	@Router		/v1/quotes/{id}/accept [post]
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	id := c.Param("id")
	quote, invoice, err := h.usecase.Accept(c.Request.Context(), id)
	if err != nil {
		log.Printf("[quote][handler] accept failed quote_id=%s err=%v", id, err)
		appErr := mapQuoteError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[quote][handler] accept success quote_id=%s invoice_id=%s", quote.ID, invoice.ID)

	c.JSON(http.StatusOK, response.FromAcceptedQuote(quote, invoice))
}

// RejectQuote godoc
//
//	@Summary	Reject a sent quote
//	@Tags		quotes
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string						true	"Quote id"
//	@Param		body	body		request.QuoteRejectRequest	false	"Rejection reason"
//	@Success	200		{object}	response.QuoteResponse
//	@Failure	404		{object}	pkg.HTTPError
//	@Failure	409		{object}	pkg.HTTPError
//	@Router		/v1/quotes/{id}/reject [post]
func (h *QuoteHandler) RejectQuote(c *gin.Context) {
	// The body is optional; a missing or empty payload rejects without a
	// recorded reason.
	var payload request.QuoteRejectRequest
	_ = c.ShouldBindJSON(&payload)

	quote, err := h.usecase.Reject(c.Request.Context(), c.Param("id"), payload.RejectionReason)
	if err != nil {
		log.Printf("[quote][handler] reject failed quote_id=%s err=%v", c.Param("id"), err)
		appErr := mapQuoteError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromQuote(quote))
}

// DeleteQuote godoc
//
//	@Summary	Delete a draft quote
//	@Tags		quotes
//	@Param		id	path	string	true	"Quote id"
//	@Success	204
//	@Failure	404	{object}	pkg.HTTPError
//	@Failure	409	{object}	pkg.HTTPError
//	@Router		/v1/quotes/{id} [delete]
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("[quote][handler] delete failed quote_id=%s err=%v", c.Param("id"), err)
		appErr := mapQuoteError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.Status(http.StatusNoContent)
}

func mapQuoteError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidQuoteID), errors.Is(err, usecase.ErrQuoteValidation):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrQuoteNotFound):
		return pkg.NewDomainErrorSimple("QUOTE_NOT_FOUND", "Quote not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrQuoteLocked):
		return pkg.NewDomainErrorSimple("QUOTE_LOCKED", "Accepted and rejected quotes cannot be updated", http.StatusConflict)
	case errors.Is(err, usecase.ErrQuoteNotSent):
		return pkg.NewDomainErrorSimple("QUOTE_NOT_SENT", "Only sent quotes can be accepted or rejected", http.StatusConflict)
	case errors.Is(err, usecase.ErrQuoteNotDraft):
		return pkg.NewDomainErrorSimple("QUOTE_NOT_DRAFT", "Only draft quotes can be deleted", http.StatusConflict)
	case errors.Is(err, interfaces.ErrReferenceTaken):
		return pkg.NewDomainErrorSimple("REFERENCE_TAKEN", "Reference is already in use", http.StatusConflict)
	case errors.Is(err, interfaces.ErrStaleEntity):
		return pkg.NewDomainErrorSimple("CONCURRENT_UPDATE", "Quote was modified concurrently, retry", http.StatusConflict)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
