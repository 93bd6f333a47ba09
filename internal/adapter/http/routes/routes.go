package routes

import (
	"log"
	"os"
	"strconv"

	_ "bizops_billing/docs" // swag-generated docs
	"bizops_billing/internal/adapter/http/handlers"
	repository2 "bizops_billing/internal/adapter/persistence/repository"
	"bizops_billing/internal/infrastructure/database"
	"bizops_billing/internal/infrastructure/payments"
	"bizops_billing/internal/infrastructure/scheduler"
	"bizops_billing/internal/usecase"
	"bizops_billing/internal/usecase/interfaces"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var router = gin.Default()

const PORT = 8080

// Run will start the server
func Run() {
	setMiddlewares()

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	getRoutes()

	err := router.Run(":" + strconv.Itoa(PORT))
	if err != nil {
		log.Fatalf("Failed to startup the application: %v", err.Error())
	}
}

func getRoutes() {
	ddb := database.NewClient()

	quoteRepo := repository2.NewQuoteDynamoRepository(ddb)
	invoiceRepo := repository2.NewInvoiceDynamoRepository(ddb)
	transactionRepo := repository2.NewTransactionDynamoRepository(ddb)
	uow := repository2.NewBillingUnitOfWork(ddb)

	var paymentGateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(os.Getenv("MERCADOPAGO_ACCESS_TOKEN"))
	if err != nil {
		log.Printf("Mercado Pago gateway not configured: %v", err)
	} else {
		paymentGateway = mpGateway
	}

	quoteUseCase := usecase.NewQuoteUseCase(quoteRepo, uow)
	invoiceUseCase := usecase.NewInvoiceUseCase(invoiceRepo)
	transactionUseCase := usecase.NewTransactionUseCase(transactionRepo, invoiceRepo, uow, paymentGateway)

	quoteHandler := handlers.NewQuoteHandler(quoteUseCase)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceUseCase, transactionUseCase)
	transactionHandler := handlers.NewTransactionHandler(transactionUseCase)

	sweep := scheduler.NewOverdueScheduler(usecase.NewOverdueSweeper(invoiceRepo))
	if err := sweep.Start(); err != nil {
		log.Fatalf("Failed to start overdue sweep: %v", err)
	}

	// Rotas publicas
	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addBillingRoutes(v1, quoteHandler, invoiceHandler, transactionHandler)
}

func setMiddlewares() {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(500)
	}))
}
