package app

import (
	"net/http"

	"go-schoolops/internal/config"
	"go-schoolops/internal/employee"
	"go-schoolops/internal/invoice"
	"go-schoolops/internal/leave"
	"go-schoolops/internal/messaging/kafka"
	"go-schoolops/internal/middleware"
	"go-schoolops/internal/posting"
	"go-schoolops/internal/rbac"
	"go-schoolops/internal/rbac/infra"
	"go-schoolops/internal/school"
	"go-schoolops/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type services struct {
	rbac     rbac.Service
	school   school.Service
	employee employee.Service
	posting  posting.Service
	leave    leave.Service
	invoice  invoice.Service
}

func buildServices(
	cfg *config.Config,
	gormDB *gorm.DB,
	rdb *redis.Client,
	documents invoice.DocumentStore,
	logger *zap.Logger,
) (services, error) {
	// --- Repositories ---
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	invoiceRepo := invoice.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)
	postingRepo := posting.NewRepository(gormDB)
	schoolRepo := school.NewRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(cfg.RBACModelPath, cfg.RBACPolicyPath)
	if err != nil {
		return services{}, err
	}

	// --- Services ---
	return services{
		rbac:     rbac.NewService(enforcer, logger),
		school:   school.NewService(schoolRepo, logger),
		employee: employee.NewService(gormDB, employeeRepo, counterRepo, logger),
		posting:  posting.NewService(gormDB, postingRepo, employeeRepo, schoolRepo, outboxRepo, logger),
		leave:    leave.NewService(leaveRepo, employeeRepo, schoolRepo, logger),
		invoice: invoice.NewService(invoice.Dependencies{
			DB:        gormDB,
			Invoices:  invoiceRepo,
			Schools:   schoolRepo,
			Postings:  postingRepo,
			Leaves:    leaveRepo,
			Counter:   counterRepo,
			Outbox:    outboxRepo,
			Cache:     rdb,
			Documents: documents,
			Logger:    logger,
		}),
	}, nil
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	svc, err := buildServices(cfg, gormDB, rdb, nil, logger)
	if err != nil {
		return err
	}

	// --- Handlers ---
	employeeHandler := employee.NewHandler(svc.employee, logger)
	invoiceHandler := invoice.NewHandler(svc.invoice, logger)
	leaveHandler := leave.NewHandler(svc.leave, logger)
	postingHandler := posting.NewHandler(svc.posting, logger)
	rbacHandler := rbac.NewHandler(svc.rbac)
	schoolHandler := school.NewHandler(svc.school, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	api.Use(
		middleware.RateLimitByIP(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.ContextLogger(logger),
		middleware.RateLimitByUser(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	)
	{
		employee.RegisterRoutes(api, employeeHandler, svc.rbac)
		invoice.RegisterRoutes(api, invoiceHandler, svc.rbac, rdb)
		leave.RegisterRoutes(api, leaveHandler, svc.rbac)
		posting.RegisterRoutes(api, postingHandler, svc.rbac)
		rbac.RegisterRoutes(api, rbacHandler)
		school.RegisterRoutes(api, schoolHandler, svc.rbac)
	}

	return nil
}
