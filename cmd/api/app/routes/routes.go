package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cwmaia/townhub/cmd/api/app/internal/handler"
	"github.com/cwmaia/townhub/cmd/api/app/internal/services"
	"github.com/cwmaia/townhub/middlewares"
	"github.com/cwmaia/townhub/pkg/push"
	"github.com/cwmaia/townhub/pkg/utils"
)

func Notifications(r *gin.RouterGroup, db *gorm.DB, transport push.Transport, producer services.Publisher, auth *middlewares.MiddlewareConfig, log *zap.Logger) {
	notificationHandler := handler.NewNotificationHandler(db, transport, producer, log)

	required := middlewares.AuthMiddleware(auth, true)
	r.POST("/", required, notificationHandler.Create)
	r.GET("/inbox", required, notificationHandler.Inbox)
	r.GET("/:id", required, notificationHandler.Get)
	r.POST("/:id/send", required, notificationHandler.Send)
	r.POST("/:id/redrive", required, notificationHandler.Redrive)
	r.POST("/:id/click", required, notificationHandler.Click)
}

func Subscriptions(r *gin.RouterGroup, db *gorm.DB, auth *middlewares.MiddlewareConfig) {
	subscriptionHandler := handler.NewSubscriptionHandler(db)

	required := middlewares.AuthMiddleware(auth, true)
	optional := middlewares.AuthMiddleware(auth, false)
	r.POST("/", required, subscriptionHandler.Subscribe)
	r.DELETE("/", required, subscriptionHandler.Unsubscribe)
	r.GET("/", required, subscriptionHandler.List)
	r.GET("/status/:id", optional, subscriptionHandler.Status)
}

func Devices(r *gin.RouterGroup, db *gorm.DB, auth *middlewares.MiddlewareConfig) {
	deviceHandler := handler.NewDeviceHandler(db)

	required := middlewares.AuthMiddleware(auth, true)
	r.POST("/", required, deviceHandler.Register)
	r.DELETE("/", required, deviceHandler.Unregister)
	r.GET("/", required, deviceHandler.List)
}

func Quotas(r *gin.RouterGroup, db *gorm.DB, auth *middlewares.MiddlewareConfig, log *zap.Logger) {
	quotaHandler := handler.NewQuotaHandler(db, log)

	required := middlewares.AuthMiddleware(auth, true)
	r.GET("/businesses/:id", required, quotaHandler.CheckBusiness)
	r.GET("/towns/:id", required, quotaHandler.CheckTown)
	r.POST("/reset", middlewares.CronSecretMiddleware(utils.GetEnv("CRON_SECRET")), quotaHandler.Reset)
}

func Directory(r *gin.RouterGroup, db *gorm.DB, auth *middlewares.MiddlewareConfig, log *zap.Logger) {
	directoryHandler := handler.NewDirectoryHandler(db, log)

	required := middlewares.AuthMiddleware(auth, true)
	r.POST("/towns", required, directoryHandler.CreateTown)
	r.GET("/towns", directoryHandler.ListTowns)
	r.GET("/towns/:id", directoryHandler.GetTown)
	r.GET("/towns/:id/businesses", directoryHandler.ListBusinesses)
	r.GET("/towns/:id/places", directoryHandler.ListPlaces)
	r.GET("/towns/:id/events", directoryHandler.ListEvents)

	r.POST("/businesses", required, directoryHandler.CreateBusiness)
	r.GET("/businesses/:id", directoryHandler.GetBusiness)
	r.PUT("/businesses/:id", required, directoryHandler.UpdateBusiness)

	r.POST("/places", required, directoryHandler.CreatePlace)
	r.GET("/places/:id", directoryHandler.GetPlace)

	r.POST("/events", required, directoryHandler.CreateEvent)
}
