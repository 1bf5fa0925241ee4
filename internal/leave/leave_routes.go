package leave

import (
	"go-schoolops/internal/middleware"
	"go-schoolops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	leaves := r.Group("/leaves")
	{
		leaves.GET("",
			middleware.RBACAuthorize(rbacService, "leave", "read"),
			handler.ListSchool,
		)
		leaves.PUT("",
			middleware.RBACAuthorize(rbacService, "leave", "upsert"),
			handler.Upsert,
		)
	}

	r.GET("/employees/:id/leaves",
		middleware.RBACAuthorize(rbacService, "leave", "read"),
		handler.GetByEmployee,
	)
}
