package router

import (
	"github.com/facturacion/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers groups the HTTP handlers of the API
type Handlers struct {
	System     *handler.SystemHandler
	Channel    *handler.ChannelHandler
	Membership *handler.MembershipHandler
	Branch     *handler.BranchHandler
	Ledger     *handler.LedgerHandler
	Catalog    *handler.CatalogHandler
}

// RegisterAPI registers every domain group of the API on r
func RegisterAPI(r *Router, h Handlers) *Router {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/document-types", h.System.ListDocumentTypes)
	sys := system.Group("system-info", "/system")
	sys.GET("/ping", h.System.Ping)
	sys.GET("/info", h.System.GetSystemInfo)

	channels := NewDomainGroup("channels", "/channels")
	channels.POST("", h.Channel.Create)
	current := channels.Group("current-channel", "/current")
	current.GET("", h.Channel.GetCurrent)
	current.PUT("", h.Channel.UpdateCurrent)
	current.DELETE("", h.Channel.DeleteCurrent)
	current.POST("/activate", h.Channel.Activate)
	current.POST("/deactivate", h.Channel.Deactivate)
	current.GET("/membership", h.Membership.Me)
	current.PUT("/members/:userId", h.Membership.Grant)

	activities := NewDomainGroup("activities", "/activities")
	activities.POST("", h.Channel.CreateActivity)
	activities.GET("", h.Channel.ListActivities)

	branches := NewDomainGroup("branches", "/branches")
	branches.POST("", h.Branch.Create)
	branches.GET("", h.Branch.List)
	branches.GET("/:id", h.Branch.GetByID)
	branches.PUT("/:id", h.Branch.Update)
	branches.PATCH("/:id/code", h.Branch.UpdateCode)
	branches.DELETE("/:id", h.Branch.Delete)
	branches.POST("/:id/registers", h.Branch.CreateRegister)
	branches.GET("/:id/registers", h.Branch.ListRegisters)

	registers := NewDomainGroup("registers", "/registers")
	registers.GET("/:id", h.Branch.GetRegister)
	registers.PUT("/:id", h.Branch.RenameRegister)
	registers.DELETE("/:id", h.Branch.DeleteRegister)
	registers.GET("/:id/sequences", h.Ledger.Numbering)
	registers.PUT("/:id/sequences", h.Ledger.SetCounters)
	registers.GET("/:id/sequences/:type", h.Ledger.Peek)
	registers.POST("/:id/sequences/:type/next", h.Ledger.Next)

	catalog := NewDomainGroup("catalog", "/catalog")
	catalog.GET("/classifications/:code", h.Catalog.Lookup)
	catalog.GET("/options/:field", h.Catalog.ListOptions)
	catalog.GET("/kinds", h.Catalog.ListKinds)
	catalog.GET("/overrides", h.Catalog.ListOverrides)
	catalog.GET("/overrides/:code", h.Catalog.GetOverride)
	catalog.PUT("/overrides/:code", h.Catalog.UpsertOverride)
	catalog.POST("/reference/refresh", h.Catalog.RefreshReference)

	return r.Register(system).
		Register(channels).
		Register(activities).
		Register(branches).
		Register(registers).
		Register(catalog)
}

// RegisterHealthRoutes exposes the health check outside the versioned API for
// load balancers
func RegisterHealthRoutes(engine *gin.Engine, system *handler.SystemHandler) {
	engine.GET("/health", system.Health)
}
