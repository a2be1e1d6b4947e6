package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/civicworks/legisrev/src/api/config"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authH := NewAuth(db, []byte(cfg.JWTSecret))
	billH := NewBills(db)
	commentH := NewComments(db, rdb)
	proposalH := NewProposals(db, rdb)
	voteH := NewVotes(db, rdb)

	authLimiter := NewRateLimiter(10, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authLimiter.Middleware(), authH.Register)
		v1.POST("/auth/login", authLimiter.Middleware(), authH.Login)

		secured := v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		secured.GET("/bills", billH.List)
		secured.GET("/bills/:id", billH.Get)
		secured.GET("/articles/:id", billH.GetArticle)
		secured.POST("/comments", commentH.Create)
		secured.GET("/comments", commentH.List)
		secured.POST("/proposals", proposalH.Create)
		secured.PATCH("/proposals/:id/start-voting", proposalH.StartVoting)
		secured.POST("/votes", voteH.Cast)
		secured.GET("/votes", voteH.List)
	}

	admin := v1.Group("/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)), AdminMiddleware(db))
	{
		adminH := NewAdmin(db)
		admin.GET("/users", adminH.ListUsers)
		admin.PATCH("/users/:id/role", adminH.SetRole)
	}
}
