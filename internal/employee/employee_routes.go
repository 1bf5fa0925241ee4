package employee

import (
	"go-schoolops/internal/middleware"
	"go-schoolops/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes expects r to already carry authentication and request logging.
func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	employees := r.Group("/employees")
	{
		employees.GET("",
			middleware.RBACAuthorize(rbacService, "employee", "read"),
			handler.GetAll,
		)
		employees.GET("/:id",
			middleware.RBACAuthorize(rbacService, "employee", "read"),
			handler.GetByID,
		)
		employees.POST("",
			middleware.RBACAuthorize(rbacService, "employee", "create"),
			handler.Create,
		)
	}
}
