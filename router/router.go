package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/restaurant-waitlist/controllers"
	"github.com/yeremiapane/restaurant-waitlist/limiter"
	"github.com/yeremiapane/restaurant-waitlist/middlewares"
	"github.com/yeremiapane/restaurant-waitlist/models"
	"github.com/yeremiapane/restaurant-waitlist/services"
)

// Dependencies are the services and settings the HTTP layer is built from.
type Dependencies struct {
	Restaurants *services.RestaurantService
	Queue       *services.QueueService
	Seating     *services.SeatingService
	Tables      *services.TableService
	Users       *services.UserService
	Exporter    *services.HistoryExporter
	Limiter     limiter.Limiter

	CORSOrigin     string
	JoinPerMinute  int
	LoginPerMinute int
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.MetricsMiddleware())

	// Inisialisasi controller
	restaurantCtrl := controllers.NewRestaurantController(deps.Restaurants)
	queueCtrl := controllers.NewQueueController(deps.Queue, deps.Seating, deps.Restaurants)
	tableCtrl := controllers.NewTableController(deps.Tables, deps.Restaurants)
	historyCtrl := controllers.NewHistoryController(deps.Exporter, deps.Restaurants)
	userCtrl := controllers.NewUserController(deps.Users)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", middlewares.RateLimit(deps.Limiter, "login", deps.LoginPerMinute, time.Minute), userCtrl.Login)
	r.GET("/restaurants/:slug", restaurantCtrl.GetRestaurant)

	queue := r.Group("/queue")
	{
		queue.POST("/join", middlewares.RateLimit(deps.Limiter, "join", deps.JoinPerMinute, time.Minute), queueCtrl.JoinQueue)
		queue.GET("/status/:queue_id", queueCtrl.GetQueueStatus)
		queue.POST("/status/:queue_id/cancel", queueCtrl.LeaveQueue)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	staff := middlewares.RoleCheck(models.RoleOwner, models.RoleStaff)

	r.GET("/profile", middlewares.AuthMiddleware(), userCtrl.GetProfile)
	r.POST("/logout", middlewares.AuthMiddleware(), userCtrl.Logout)

	dashboard := r.Group("/dashboard/:slug")
	dashboard.Use(middlewares.AuthMiddleware(), staff)
	{
		dashboard.GET("/queue", queueCtrl.GetDashboardQueue)
		dashboard.PATCH("/queue/:queue_id", queueCtrl.UpdateQueueStatus)

		dashboard.GET("/tables", tableCtrl.GetTables)
		dashboard.POST("/tables", tableCtrl.CreateTable)
		dashboard.GET("/tables/suggestions", tableCtrl.SuggestTables)
		dashboard.PATCH("/tables/:table_id", tableCtrl.UpdateTableStatus)
		dashboard.DELETE("/tables/:table_id", middlewares.RoleCheck(models.RoleOwner), tableCtrl.DeactivateTable)

		dashboard.GET("/layout", tableCtrl.GetLayout)
		dashboard.POST("/layout", tableCtrl.SaveLayout)

		dashboard.GET("/history/export", historyCtrl.ExportHistory)
	}

	seating := r.Group("/restaurants/by-id/:restaurant_id")
	seating.Use(middlewares.AuthMiddleware(), staff)
	{
		seating.POST("/queue/:queue_id/seat", queueCtrl.SeatCustomer)
	}

	return r
}
