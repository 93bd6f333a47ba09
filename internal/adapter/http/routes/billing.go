package routes

import (
	"bizops_billing/internal/adapter/http/handlers"

	"github.com/gin-gonic/gin"
)

const (
	PathQuotes       = "/quotes"
	PathInvoices     = "/invoices"
	PathTransactions = "/transactions"
)

func addBillingRoutes(rg *gin.RouterGroup, quoteHandler *handlers.QuoteHandler, invoiceHandler *handlers.InvoiceHandler, transactionHandler *handlers.TransactionHandler) {
	quotes := rg.Group(PathQuotes)
	{
		quotes.POST("", quoteHandler.CreateQuote)
		quotes.GET("", quoteHandler.ListQuotes)
		quotes.GET("/:id", quoteHandler.GetQuote)
		quotes.PATCH("/:id", quoteHandler.UpdateQuote)
		quotes.DELETE("/:id", quoteHandler.DeleteQuote)
		quotes.POST("/:id/accept", quoteHandler.AcceptQuote)
		quotes.POST("/:id/reject", quoteHandler.RejectQuote)
	}

	invoices := rg.Group(PathInvoices)
	{
		invoices.POST("", invoiceHandler.CreateInvoice)
		invoices.GET("", invoiceHandler.ListInvoices)
		invoices.GET("/:id", invoiceHandler.GetInvoice)
		invoices.PATCH("/:id", invoiceHandler.UpdateInvoice)
		invoices.DELETE("/:id", invoiceHandler.DeleteInvoice)
	}

	transactions := rg.Group(PathTransactions)
	{
		transactions.POST("", transactionHandler.CreateTransaction)
		transactions.GET("", transactionHandler.ListTransactions)
		transactions.GET("/:id", transactionHandler.GetTransaction)
		transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
		transactions.POST("/:id/refund", transactionHandler.RefundTransaction)
		transactions.POST("/:id/capture", transactionHandler.CaptureTransaction)
	}
}
