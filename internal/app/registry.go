package app

import (
	"context"
	"net/http"
	"time"

	"go-ems/internal/auth"
	"go-ems/internal/auth/token"
	"go-ems/internal/config"
	"go-ems/internal/employee"
	"go-ems/internal/leave"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/middleware"
	"go-ems/internal/rbac"
	"go-ems/internal/rbac/infra"
	"go-ems/internal/reconcile"
	"go-ems/internal/shared/apperror"
	"go-ems/internal/shared/docstore"
	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	mongoClient *mongo.Client,
	mongoDB *mongo.Database,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) error {
	if err := gormDB.AutoMigrate(&auth.User{}); err != nil {
		return err
	}

	// --- Repositories ---
	authRepo := auth.NewRepository(gormDB)
	employeeView := employee.NewRepository(mongoDB, docstore.CollectionEmployee)
	adminView := employee.NewRepository(mongoDB, docstore.CollectionAdmin)
	leaveEmployeeView := leave.NewRepository(mongoDB, docstore.CollectionEmployee)
	leaveAdminView := leave.NewRepository(mongoDB, docstore.CollectionAdmin)
	outboxRepo := kafka.NewOutboxRepository(mongoDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(cfg.RBACPolicyPath)
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer, logger)
	if err != nil {
		return err
	}

	// --- Services ---
	tokens := token.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authService := auth.NewService(authRepo, tokens, cfg.AdminEmailDomain, logger)
	employeeService := employee.NewService(
		employeeView,
		adminView,
		authService,
		rbacService,
		employee.WithLogger(logger),
		employee.WithOutbox(outboxRepo),
		employee.WithCache(rdb),
		employee.WithAdminDomain(cfg.AdminEmailDomain),
	)
	leaveService := leave.NewService(
		leaveEmployeeView,
		leave.NewMirror(leaveAdminView, outboxRepo, logger),
		rbacService,
		leave.WithLogger(logger),
		leave.WithLocation(cfg.Location()),
		leave.WithOutbox(outboxRepo),
		leave.WithCacheInvalidation(rdb, employee.EmployeeListKey),
	)
	reconcileService := reconcile.NewService(
		employeeView,
		adminView,
		reconcile.WithLogger(logger),
		reconcile.WithCache(rdb),
		reconcile.WithLegacyMigrators(
			leave.NewLegacyMigrator(mongoDB, docstore.CollectionEmployee),
			leave.NewLegacyMigrator(mongoDB, docstore.CollectionAdmin),
		),
	)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction())
	rbacHandler := rbac.NewHandler(rbacService)
	employeeHandler := employee.NewHandler(employeeService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	reconcileHandler := reconcile.NewHandler(reconcileService, logger)

	// --- Routes ---
	router.Use(middleware.RequestID())
	router.GET("/healthz", healthz(mongoClient, rdb))

	authMW := middleware.AuthMiddleware(cfg.JWTSecret, cfg.AdminEmailDomain)
	api := router.Group("/api/v1")

	auth.RegisterRoutes(api, authHandler, authMW)
	rbac.RegisterRoutes(api, rbacHandler, rbacService, authMW)
	employee.RegisterRoutes(api, employeeHandler, rbacService, authMW, logger)
	leave.RegisterRoutes(api, leaveHandler, rbacService, authMW, rdb, logger)
	reconcile.RegisterRoutes(api, reconcileHandler, rbacService, authMW, logger)

	return nil
}

func healthz(mongoClient *mongo.Client, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"mongo": "up", "redis": "up"}
		healthy := true
		if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
			status["mongo"] = "down"
			healthy = false
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
			healthy = false
		}

		if !healthy {
			response.Error(c, http.StatusServiceUnavailable, apperror.CodeServiceUnavailable, "dependency unavailable", status)
			return
		}
		response.Success(c, http.StatusOK, status, nil)
	}
}
