package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config stores all configuration of the application
type Config struct {
	// Database
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Server
	ServerPort string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisDB       int
	CacheTTLSecs  int // 活跃SOS查询结果的缓存时间（秒），0表示禁用缓存
	RedisDisabled bool

	// MQTT配置
	MQTTBrokerURL  string // MQTT服务器地址，如 tcp://broker.example.com:1883，为空则禁用MQTT上行链路
	MQTTClientID   string // MQTT客户端ID
	MQTTUsername   string // MQTT用户名
	MQTTPassword   string // MQTT密码
	MQTTQoS        int    // 服务质量 (0, 1, 2)
	MQTTSSLEnabled bool   // 是否启用SSL/TLS

	// SOS策略
	MaxPacketAgeHours int    // 数据包时间戳的最大允许年龄（小时），超过则拒绝
	APIKey            string // 上传/响应接口的API密钥，为空表示开放访问
	RateLimitPerSec   int    // 上传接口每IP每秒请求数限制
}

// LoadConfig loads config from environment variables
func LoadConfig() *Config {
	return &Config{
		// Database config
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "mesh_sos"),
		DBPort:     getEnv("DB_PORT", "3306"),

		// Server config
		ServerPort: getEnv("SERVER_PORT", "8080"),

		// Redis config
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		CacheTTLSecs:  getEnvAsInt("SOS_CACHE_TTL_SECONDS", 10),
		RedisDisabled: getEnvAsBool("REDIS_DISABLED", false),

		// MQTT配置
		MQTTBrokerURL:  getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "sos_server"),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:        getEnvAsInt("MQTT_QOS", 1),
		MQTTSSLEnabled: getEnvAsBool("MQTT_SSL_ENABLED", false),

		// SOS策略配置
		MaxPacketAgeHours: getEnvAsInt("SOS_MAX_PACKET_AGE_HOURS", 24),
		APIKey:            getEnv("SOS_API_KEY", ""),
		RateLimitPerSec:   getEnvAsInt("SOS_RATE_LIMIT_PER_SEC", 20),
	}
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// getEnv 获取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 获取整数类型的环境变量
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		fmt.Printf("Warning: invalid value for %s: %s, using default %d\n", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsBool 获取布尔类型的环境变量
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
