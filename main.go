// @title           Mesh SOS Backend API
// @version         1.0
// @description     收集离线Mesh网络中继上来的紧急SOS数据包，供响应方查询和处理

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sos-http-service/config"
	"sos-http-service/internal/infrastructure/database"
	"sos-http-service/models"
	"sos-http-service/routes"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 初始化日志配置
	if err := config.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		config.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		config.Info("成功加载.env文件")
	}

	// 加载配置
	cfg := config.LoadConfig()

	// 连接数据库
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("无法连接数据库: %v", err)
	}
	defer pool.Close()
	db := pool.DB

	// 自动迁移，只会添加新列和新表
	if err := autoMigrate(db); err != nil {
		log.Fatalf("自动迁移失败: %v", err)
	}

	// 初始化路由和服务容器
	r, svcContainer := routes.SetupRouter(db, cfg)
	defer svcContainer.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// 启动服务器
	go func() {
		config.Info("服务器启动在: http://localhost:%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			config.Error("启动服务器失败: %v", err)
			os.Exit(1)
		}
	}()

	// 等待退出信号后优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	config.Info("收到退出信号，正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		config.Error("服务器关闭失败: %v", err)
	}
	config.Info("服务器已关闭")
}

// autoMigrate 自动迁移所有模型
func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SosPacket{}); err != nil {
		return err
	}

	fmt.Println("Database migration completed")
	return nil
}
