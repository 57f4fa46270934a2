package main

import (
	"fmt"
	"os"

	"github.com/itops-hk/itpm-service/internal/auth"
	"github.com/itops-hk/itpm-service/internal/config"
	"github.com/itops-hk/itpm-service/internal/db"
	"github.com/itops-hk/itpm-service/internal/excel"
	httphandler "github.com/itops-hk/itpm-service/internal/http"
	"github.com/itops-hk/itpm-service/internal/http/middleware"
	"github.com/itops-hk/itpm-service/internal/logger"
	"github.com/itops-hk/itpm-service/internal/notify"
	"github.com/itops-hk/itpm-service/internal/pdf"
	"github.com/itops-hk/itpm-service/internal/repository"
	"github.com/itops-hk/itpm-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	proposalRepo := repository.NewProposalRepository(database)
	projectRepo := repository.NewProjectRepository(database)
	poolRepo := repository.NewBudgetPoolRepository(database)
	orderRepo := repository.NewPurchaseOrderRepository(database)
	expenseRepo := repository.NewExpenseRepository(database)
	chargeOutRepo := repository.NewChargeOutRepository(database)
	vendorRepo := repository.NewVendorRepository(database)
	omExpenseRepo := repository.NewOMExpenseRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	userRepo := repository.NewUserRepository(database)

	mailer := notify.NewMailer(cfg.SMTP)
	excelGenerator := excel.NewGenerator()
	pdfGenerator := pdf.NewGenerator()

	notificationService := service.NewNotificationService(notificationRepo, userRepo, mailer, cfg.BaseURL, log)
	proposalService := service.NewProposalService(proposalRepo, projectRepo, notificationService)
	projectService := service.NewProjectService(projectRepo, excelGenerator)
	poolService := service.NewBudgetPoolService(poolRepo, excelGenerator)
	orderService := service.NewPurchaseOrderService(orderRepo)
	expenseService := service.NewExpenseService(expenseRepo, orderRepo, notificationService)
	chargeOutService := service.NewChargeOutService(chargeOutRepo, projectRepo, vendorRepo, pdfGenerator)
	catalogService := service.NewCatalogService(vendorRepo, userRepo, projectRepo)
	omExpenseService := service.NewOMExpenseService(omExpenseRepo, vendorRepo, vendorRepo, expenseRepo)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(
		proposalService,
		projectService,
		poolService,
		orderService,
		expenseService,
		chargeOutService,
		catalogService,
		omExpenseService,
		notificationService,
		log,
	)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting itpm service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
