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
	errInvalidInvoicePayload = pkg.NewDomainErrorSimple("INVALID_INVOICE_INPUT", "Invalid invoice payload", http.StatusBadRequest)
)

// InvoiceHandler handles HTTP requests for invoices. Reads of a single
// invoice include its transaction ledger, so the handler also depends on the
// transaction use case.

type InvoiceHandler struct {
	usecase      usecase.IInvoiceUseCase
	transactions usecase.ITransactionUseCase
}

func NewInvoiceHandler(uc usecase.IInvoiceUseCase, transactions usecase.ITransactionUseCase) *InvoiceHandler {
	return &InvoiceHandler{usecase: uc, transactions: transactions}
}

// CreateInvoice godoc
//
//	@Summary	Create an invoice
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Param		invoice	body		request.InvoiceCreateRequest	true	"Invoice payload"
//	@Success	201		{object}	response.InvoiceResponse
//	@Failure	400		{object}	pkg.HTTPError
//	@Failure	409		{object}	pkg.HTTPError
//	@Router		/v1/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var payload request.InvoiceCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidInvoicePayload.HTTPStatus, errInvalidInvoicePayload.ToHTTPError())
		return
	}

	invoice, err := h.usecase.Create(c.Request.Context(), payload.ToInput())
	if err != nil {
		log.Printf("[invoice][handler] create failed err=%v", err)
		appErr := mapInvoiceError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusCreated, response.FromInvoice(invoice))
}

// GetInvoice godoc
//
//	@Summary	Get an invoice with its transaction ledger
//	@Tags		invoices
//	@Produce	json
//	@Param		id	path		string	true	"Invoice id"
//	@Success	200	{object}	response.InvoiceDetailResponse
//	@Failure	404	{object}	pkg.HTTPError
//	@Router		/v1/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	invoice, err := h.usecase.GetByID(c.Request.Context(), id)
	if err != nil {
		appErr := mapInvoiceError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	transactions, err := h.transactions.ListByInvoiceID(c.Request.Context(), id)
	if err != nil {
		log.Printf("[invoice][handler] ledger load failed invoice_id=%s err=%v", id, err)
		appErr := mapInvoiceError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromInvoiceWithTransactions(invoice, transactions))
}

// ListInvoices godoc
//
//	@Summary	List invoices
//	@Tags		invoices
//	@Produce	json
//	@Param		status		query		string	false	"Filter by status"
//	@Param		clientId	query		string	false	"Filter by client"
//	@Param		cursor		query		string	false	"Pagination cursor"
//	@Success	200			{object}	response.InvoiceListResponse
//	@Router		/v1/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	filter := interfaces.InvoiceFilter{
		Status:   entities.InvoiceStatus(c.Query("status")),
		ClientID: c.Query("clientId"),
		Cursor:   c.Query("cursor"),
		Limit:    parseLimit(c.Query("limit")),
	}

	invoices, nextCursor, err := h.usecase.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[invoice][handler] list failed err=%v", err)
		appErr := mapInvoiceError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromInvoices(invoices, nextCursor))
}

// UpdateInvoice godoc
//
//	@Summary	Update an invoice
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Invoice id"
//	@Param		invoice	body		request.InvoiceUpdateRequest	true	"Fields to update"
//	@Success	200		{object}	response.InvoiceResponse
//	@Failure	404		{object}	pkg.HTTPError
//	@Failure	409		{object}	pkg.HTTPError
//	@Router		/v1/invoices/{id} [patch]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var payload request.InvoiceUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidInvoicePayload.HTTPStatus, errInvalidInvoicePayload.ToHTTPError())
		return
	}

	invoice, err := h.usecase.Update(c.Request.Context(), c.Param("id"), payload.ToInput())
	if err != nil {
		log.Printf("[invoice][handler] update failed invoice_id=%s err=%v", c.Param("id"), err)
		appErr := mapInvoiceError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromInvoice(invoice))
}

// DeleteInvoice godoc
//
//	@Summary	Delete a draft invoice
//	@Tags		invoices
//	@Param		id	path	string	true	"Invoice id"
//	@Success	204
//	@Failure	404	{object}	pkg.HTTPError
//	@Failure	409	{object}	pkg.HTTPError
//	@Router		/v1/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		log.Printf("[invoice][handler] delete failed invoice_id=%s err=%v", c.Param("id"), err)
		appErr := mapInvoiceError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.Status(http.StatusNoContent)
}

func mapInvoiceError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidInvoiceID), errors.Is(err, usecase.ErrInvoiceValidation):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvoiceStatusDerived):
		return pkg.NewDomainErrorSimple("INVOICE_STATUS_DERIVED", "Paid, overdue and cancelled statuses cannot be set directly", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrInvoiceNotFound):
		return pkg.NewDomainErrorSimple("INVOICE_NOT_FOUND", "Invoice not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvoicePaidLocked):
		return pkg.NewDomainErrorSimple("INVOICE_PAID", "Paid invoices cannot change status", http.StatusConflict)
	case errors.Is(err, usecase.ErrInvoiceNotDraft):
		return pkg.NewDomainErrorSimple("INVOICE_NOT_DRAFT", "Only draft invoices can be deleted", http.StatusConflict)
	case errors.Is(err, interfaces.ErrReferenceTaken):
		return pkg.NewDomainErrorSimple("REFERENCE_TAKEN", "Reference is already in use", http.StatusConflict)
	case errors.Is(err, interfaces.ErrStaleEntity):
		return pkg.NewDomainErrorSimple("CONCURRENT_UPDATE", "Invoice was modified concurrently, retry", http.StatusConflict)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
