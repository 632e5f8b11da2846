package container

import (
	"sync"

	"sos-http-service/config"
	"sos-http-service/services"

	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 数据存储服务
	redisService *services.RedisService

	// 业务服务
	sosService services.InterfaceSOSService

	// MQTT网关上行服务
	mqttGatewayService services.InterfaceMQTTGatewayService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化Redis服务，连接失败时降级为直接查库
	if !c.config.RedisDisabled {
		redisService := services.NewRedisService(c.config)
		if err := redisService.Ping(); err != nil {
			config.Warning("Redis连接测试失败: %v，将不使用Redis缓存", err)
		} else {
			c.redisService = redisService
		}
	}

	// 初始化业务服务
	c.sosService = services.NewSOSService(c.db, c.config, c.redisService)

	// 初始化MQTT网关上行服务，未配置broker时不启用
	if c.config.MQTTBrokerURL != "" {
		c.mqttGatewayService = services.NewMQTTGatewayService(c.config, c.sosService)
		if err := c.mqttGatewayService.Connect(); err != nil {
			config.Warning("MQTT网关服务连接失败: %v", err)
		}
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetSOSService 获取SOS服务
func (c *ServiceContainer) GetSOSService() services.InterfaceSOSService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sosService
}

// GetRedisService 获取Redis服务，可能为nil
func (c *ServiceContainer) GetRedisService() *services.RedisService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redisService
}

// GetMQTTGatewayService 获取MQTT网关服务，未启用时为nil
func (c *ServiceContainer) GetMQTTGatewayService() services.InterfaceMQTTGatewayService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mqttGatewayService
}

// Close 关闭容器持有的外部连接
func (c *ServiceContainer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mqttGatewayService != nil {
		c.mqttGatewayService.Disconnect()
	}
	if c.redisService != nil {
		if err := c.redisService.Client.Close(); err != nil {
			config.Warning("关闭Redis连接失败: %v", err)
		}
	}
}
