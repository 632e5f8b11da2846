package routes

import (
	"sos-http-service/config"
	"sos-http-service/controllers"
	_ "sos-http-service/docs"
	"sos-http-service/middleware"
	"sos-http-service/services/container"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由和服务容器
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-API-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 记录请求指标
	r.Use(middleware.Metrics())

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg)

	// 初始化中间件
	middleware.InitAuthMiddleware(cfg)

	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Prometheus指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 注册路由
	registerRoutes(r, serviceContainer, cfg)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	svcContainer *container.ServiceContainer,
	cfg *config.Config,
) {
	// 健康检查
	healthController := controllers.NewHealthCheckController()
	r.GET("/", healthController.Root())
	r.GET("/health", healthController.Health(svcContainer))

	// API 路由根路径
	api := r.Group("/api/v1")

	// 查询路由，开放访问
	api.GET("/active-sos", controllers.HandleSOSFunc(svcContainer, "getActiveSOS"))
	api.GET("/sos/:id", controllers.HandleSOSFunc(svcContainer, "getSOSByID"))

	// 写入路由：可选API密钥，上传接口附加按IP限流
	api.POST("/upload-sos",
		middleware.RequireAPIKey(),
		middleware.RateLimitByIP(cfg.RateLimitPerSec),
		controllers.HandleSOSFunc(svcContainer, "uploadSOS"))
	api.POST("/mark-responded",
		middleware.RequireAPIKey(),
		controllers.HandleSOSFunc(svcContainer, "markResponded"))
}
