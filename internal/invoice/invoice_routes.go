package invoice

import (
	"go-schoolops/internal/middleware"
	"go-schoolops/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service, rdb *redis.Client) {
	invoices := r.Group("/invoices")
	{
		invoices.GET("",
			middleware.RBACAuthorize(rbacService, "invoice", "read"),
			handler.GetAll,
		)
		invoices.GET("/:id",
			middleware.RBACAuthorize(rbacService, "invoice", "read"),
			handler.GetByID,
		)
		invoices.POST("",
			middleware.RBACAuthorize(rbacService, "invoice", "generate"),
			middleware.Idempotency(rdb),
			handler.Generate,
		)
		invoices.POST("/batch",
			middleware.RBACAuthorize(rbacService, "invoice", "generate"),
			handler.GenerateMonthly,
		)
		invoices.POST("/:id/payments",
			middleware.RBACAuthorize(rbacService, "payment", "create"),
			middleware.Idempotency(rdb),
			handler.RecordPayment,
		)
	}

	r.GET("/schools/:id/outstanding",
		middleware.RBACAuthorize(rbacService, "invoice", "read"),
		handler.GetSchoolOutstanding,
	)
}
