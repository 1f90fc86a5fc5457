package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"washsync-backend/internal/auth"
	"washsync-backend/internal/machine"
	"washsync-backend/internal/mw"
	"washsync-backend/internal/store"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Store     store.Store
	Machines  *machine.Service
	WebPush   *webpush.Options
	JWTSecret string
	Limiter   *mw.IPRateLimiter
	CacheTTL  time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID())

	handler := NewHandler(d.Store, d.Machines, d.WebPush)

	cacheTTL := d.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	caching := mw.Cache(cache.New(cacheTTL, 2*cacheTTL), cacheTTL)

	api := r.Group("/api")
	if d.Limiter != nil {
		api.Use(mw.RateLimiter(d.Limiter))
	}

	// Public
	api.GET("/health", handler.Health)
	api.GET("/branches/active", caching, handler.GetActiveBranches)
	api.GET("/machines/:id/queue", handler.GetQueue)
	api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

	authed := api.Group("")
	authed.Use(auth.Middleware(d.JWTSecret, d.Store))
	{
		authed.GET("/machines", handler.ListMachines)
		authed.GET("/machines/:id", handler.GetMachine)
		authed.POST("/machines/:id/occupy", handler.OccupyMachine)
		authed.POST("/machines/:id/release", handler.ReleaseMachine)
		authed.POST("/machines/:id/queue/join", handler.JoinQueue)
		authed.POST("/machines/:id/queue/leave", handler.LeaveQueue)

		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	admin := authed.Group("/admin")
	admin.Use(auth.RequireAdmin())
	{
		admin.POST("/machines", handler.CreateMachine)
		admin.DELETE("/machines/:id", handler.DeleteMachine)
		admin.PATCH("/machines/:id/status", handler.SetMachineStatus)
		admin.POST("/machines/:id/override", handler.OverrideMachine)

		admin.GET("/users", handler.ListUsers)
		admin.PATCH("/users/:id/branch", handler.AssignUserBranch)
	}

	return r
}
