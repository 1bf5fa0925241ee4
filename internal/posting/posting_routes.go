package posting

import (
	"go-schoolops/internal/middleware"
	"go-schoolops/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	postings := r.Group("/postings")
	{
		postings.GET("",
			middleware.RBACAuthorize(rbacService, "posting", "read"),
			handler.GetAll,
		)
		postings.GET("/:id",
			middleware.RBACAuthorize(rbacService, "posting", "read"),
			handler.GetByID,
		)
		postings.POST("",
			middleware.RBACAuthorize(rbacService, "posting", "create"),
			handler.Create,
		)
		postings.PATCH("/:id",
			middleware.RBACAuthorize(rbacService, "posting", "update"),
			handler.Update,
		)
		postings.POST("/reconcile",
			middleware.RBACAuthorize(rbacService, "roster", "reconcile"),
			handler.Reconcile,
		)
	}
}
