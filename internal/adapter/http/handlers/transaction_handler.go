package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	request "bizops_billing/internal/adapter/http/dto/request"
	response "bizops_billing/internal/adapter/http/dto/response"
	"bizops_billing/internal/domain/entities"
	"bizops_billing/internal/usecase"
	"bizops_billing/internal/usecase/interfaces"
	"bizops_billing/pkg"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidTransactionPayload = pkg.NewDomainErrorSimple("INVALID_TRANSACTION_INPUT", "Invalid transaction payload", http.StatusBadRequest)
)

// TransactionHandler handles HTTP requests for ledger transactions.

type TransactionHandler struct {
	usecase usecase.ITransactionUseCase
}

func NewTransactionHandler(uc usecase.ITransactionUseCase) *TransactionHandler {
	return &TransactionHandler{usecase: uc}
}

// CreateTransaction godoc
//
//	@Summary	Record a transaction against an invoice
//	@Tags		transactions
//	@Accept		json
//	@Produce	json
//	@Param		transaction	body		request.TransactionCreateRequest	true	"Transaction payload"
//	@Success	201			{object}	response.TransactionResponse
//	@Failure	400			{object}	pkg.HTTPError
//	@Failure	404			{object}	pkg.HTTPError
//	@Failure	409			{object}	pkg.HTTPError
//	@Router		/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var payload request.TransactionCreateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidTransactionPayload.HTTPStatus, errInvalidTransactionPayload.ToHTTPError())
		return
	}

	transaction, err := h.usecase.Create(c.Request.Context(), payload.ToInput())
	if err != nil {
		log.Printf("[transaction][handler] create failed invoice_id=%s err=%v", payload.InvoiceID, err)
		appErr := mapTransactionError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[transaction][handler] create success transaction_id=%s invoice_id=%s status=%s", transaction.ID, transaction.InvoiceID, transaction.Status)

	c.JSON(http.StatusCreated, response.FromTransaction(transaction))
}

// GetTransaction godoc
//
//	@Summary	Get a transaction by id
//	@Tags		transactions
//	@Produce	json
//	@Param		id	path		string	true	"Transaction id"
//	@Success	200	{object}	response.TransactionResponse
//	@Failure	404	{object}	pkg.HTTPError
//	@Router		/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transaction, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		appErr := mapTransactionError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromTransaction(transaction))
}

// ListTransactions godoc
//
//	@Summary	List transactions
//	@Tags		transactions
//	@Produce	json
//	@Param		status		query		string	false	"Filter by status"
//	@Param		type		query		string	false	"Filter by type"
//	@Param		invoiceId	query		string	false	"Filter by invoice"
//	@Param		cursor		query		string	false	"Pagination cursor"
//	@Success	200			{object}	response.TransactionListResponse
//	@Router		/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	filter := interfaces.TransactionFilter{
		Status:    entities.TransactionStatus(c.Query("status")),
		Type:      entities.TransactionType(c.Query("type")),
		InvoiceID: c.Query("invoiceId"),
		Cursor:    c.Query("cursor"),
		Limit:     parseLimit(c.Query("limit")),
	}

	transactions, nextCursor, err := h.usecase.List(c.Request.Context(), filter)
	if err != nil {
		log.Printf("[transaction][handler] list failed err=%v", err)
		appErr := mapTransactionError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromTransactions(transactions, nextCursor))
}

// UpdateTransaction godoc
//
//	@Summary	Update a pending transaction
//	@Tags		transactions
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string								true	"Transaction id"
//	@Param		transaction	body		request.TransactionUpdateRequest	true	"Fields to update"
//	@Success	200			{object}	response.TransactionResponse
//	@Failure	404			{object}	pkg.HTTPError
//	@Failure	409			{object}	pkg.HTTPError
//	@Router		/v1/transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	var payload request.TransactionUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(errInvalidTransactionPayload.HTTPStatus, errInvalidTransactionPayload.ToHTTPError())
		return
	}

	transaction, err := h.usecase.Update(c.Request.Context(), c.Param("id"), payload.ToInput())
	if err != nil {
		log.Printf("[transaction][handler] update failed transaction_id=%s err=%v", c.Param("id"), err)
		appErr := mapTransactionError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}

	c.JSON(http.StatusOK, response.FromTransaction(transaction))
}

// RefundTransaction godoc
//
//	@Summary	Refund a completed payment and cancel its invoice
//	@Tags		transactions
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Transaction id"
//	@Param		body	body		request.TransactionRefundRequest	false	"Refund reason"
//	@Success	200		{object}	response.RefundTransactionResponse
//	@Failure	404		{object}	pkg.HTTPError
//	@Failure	409		{object}	pkg.HTTPError
//	@Router		/v1/transactions/{id}/refund [post]
func (h *TransactionHandler) RefundTransaction(c *gin.Context) {
	var payload request.TransactionRefundRequest
	_ = c.ShouldBindJSON(&payload)

	refund, err := h.usecase.Refund(c.Request.Context(), c.Param("id"), payload.Reason)
	if err != nil {
		log.Printf("[transaction][handler] refund failed transaction_id=%s err=%v", c.Param("id"), err)
		appErr := mapTransactionError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[transaction][handler] refund success transaction_id=%s refund_id=%s invoice_id=%s", c.Param("id"), refund.ID, refund.InvoiceID)

	c.JSON(http.StatusOK, response.FromRefundedTransaction(refund))
}

// CaptureTransaction godoc
//
//	@Summary	Capture a pending payment through the payment gateway
//	@Tags		transactions
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string	true	"Transaction id"
//	@Param		body	body		object	false	"Provider payload (payment method, payer)"
//	@Success	200		{object}	response.TransactionResponse
//	@Failure	404		{object}	pkg.HTTPError
//	@Failure	409		{object}	pkg.HTTPError
//	@Router		/v1/transactions/{id}/capture [post]
func (h *TransactionHandler) CaptureTransaction(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(errInvalidTransactionPayload.HTTPStatus, errInvalidTransactionPayload.ToHTTPError())
		return
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		c.JSON(errInvalidTransactionPayload.HTTPStatus, errInvalidTransactionPayload.ToHTTPError())
		return
	}

	transaction, err := h.usecase.Capture(c.Request.Context(), c.Param("id"), json.RawMessage(raw))
	if err != nil {
		log.Printf("[transaction][handler] capture failed transaction_id=%s err=%v", c.Param("id"), err)
		appErr := mapTransactionError(err)
		c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
		return
	}
	log.Printf("[transaction][handler] capture success transaction_id=%s status=%s", transaction.ID, transaction.Status)

	c.JSON(http.StatusOK, response.FromTransaction(transaction))
}

func mapTransactionError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrInvalidTransactionID), errors.Is(err, usecase.ErrTransactionValidation), errors.Is(err, usecase.ErrInvalidInvoiceID):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrTransactionNotFound):
		return pkg.NewDomainErrorSimple("TRANSACTION_NOT_FOUND", "Transaction not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvoiceNotFound):
		return pkg.NewDomainErrorSimple("INVOICE_NOT_FOUND", "Invoice not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrInvoiceCancelled):
		return pkg.NewDomainErrorSimple("INVOICE_CANCELLED", "Cancelled invoices do not accept transactions", http.StatusConflict)
	case errors.Is(err, usecase.ErrInvoiceAlreadyPaid):
		return pkg.NewDomainErrorSimple("INVOICE_PAID", "Invoice is already paid", http.StatusConflict)
	case errors.Is(err, usecase.ErrRefundReserved):
		return pkg.NewDomainErrorSimple("REFUND_RESERVED", "Refunds are created through the refund endpoint", http.StatusConflict)
	case errors.Is(err, usecase.ErrTransactionImmutable):
		return pkg.NewDomainErrorSimple("TRANSACTION_COMPLETED", "Completed transactions cannot be updated", http.StatusConflict)
	case errors.Is(err, usecase.ErrNotRefundable):
		return pkg.NewDomainErrorSimple("NOT_REFUNDABLE", "Only completed payments can be refunded", http.StatusConflict)
	case errors.Is(err, usecase.ErrNotCapturable):
		return pkg.NewDomainErrorSimple("NOT_CAPTURABLE", "Only pending payments can be captured", http.StatusConflict)
	case errors.Is(err, usecase.ErrGatewayNotConfigured):
		return pkg.NewDomainErrorSimple("GATEWAY_NOT_CONFIGURED", "Payment gateway not configured", http.StatusServiceUnavailable)
	case errors.Is(err, usecase.ErrSettlementContention):
		return pkg.NewDomainErrorSimple("CONCURRENT_UPDATE", "Invoice was modified concurrently, retry", http.StatusConflict)
	case errors.Is(err, interfaces.ErrReferenceTaken):
		return pkg.NewDomainErrorSimple("REFERENCE_TAKEN", "Reference is already in use", http.StatusConflict)
	case errors.Is(err, interfaces.ErrStaleEntity):
		return pkg.NewDomainErrorSimple("CONCURRENT_UPDATE", "Transaction was modified concurrently, retry", http.StatusConflict)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}
