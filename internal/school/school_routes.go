package school

import (
	"go-schoolops/internal/middleware"
	"go-schoolops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	schools := r.Group("/schools")
	{
		schools.GET("",
			middleware.RBACAuthorize(rbacService, "school", "read"),
			handler.GetAll,
		)
		schools.GET("/:id",
			middleware.RBACAuthorize(rbacService, "school", "read"),
			handler.GetByID,
		)
		schools.POST("",
			middleware.RBACAuthorize(rbacService, "school", "create"),
			handler.Create,
		)
		schools.PATCH("/:id/status",
			middleware.RBACAuthorize(rbacService, "school", "update"),
			handler.UpdateStatus,
		)
	}
}
