package services

import (
	"errors"
	"fmt"
	"sos-http-service/config"
	"sos-http-service/models"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrSOSNotFound 指定的SOS数据包不存在
	ErrSOSNotFound = errors.New("SOS数据包不存在")
	// ErrStalePacket 数据包时间戳超过允许的最大年龄
	ErrStalePacket = errors.New("SOS数据包时间戳过旧")
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 携带字段级详情的校验错误
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "字段校验失败: " + strings.Join(parts, "; ")
}

// SosPacketInput 上传SOS数据包的输入，HTTP和MQTT上行链路共用
type SosPacketInput struct {
	SosID              string    `json:"sos_id"`
	DeviceID           string    `json:"device_id"`
	Timestamp          time.Time `json:"timestamp"`
	Latitude           *float64  `json:"latitude"`
	Longitude          *float64  `json:"longitude"`
	Accuracy           *float64  `json:"accuracy"`
	EmergencyType      string    `json:"emergency_type"`
	OptionalMessage    *string   `json:"optional_message"`
	BatteryPercentage  *int      `json:"battery_percentage"`
	HopCount           *int      `json:"hop_count"`
	TTL                *int      `json:"ttl"`
	Signature          *string   `json:"signature"`
	UploadedByDeviceID *string   `json:"uploaded_by_device_id"`
}

// InterfaceSOSService 定义SOS数据包服务接口
type InterfaceSOSService interface {
	UploadSOS(input *SosPacketInput) (*models.SosPacket, bool, error)
	GetActiveSOS(emergencyType string, hours, limit int) ([]models.SosPacket, error)
	MarkResponded(sosID, responderID string) (*models.SosPacket, bool, error)
	GetSOSByID(sosID string) (*models.SosPacket, error)
}

// SOSService 提供SOS数据包的接收、查询和响应服务
type SOSService struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  *RedisService // 可为nil，此时直接查库
}

// NewSOSService 创建新的SOS服务
func NewSOSService(db *gorm.DB, cfg *config.Config, cache *RedisService) InterfaceSOSService {
	return &SOSService{
		DB:     db,
		Config: cfg,
		Cache:  cache,
	}
}

// validateInput 校验上传输入，返回规范化后的紧急情况类型和字段级错误
func validateInput(input *SosPacketInput) (models.EmergencyType, *ValidationError) {
	var fields []FieldError
	addErr := func(field, message string) {
		fields = append(fields, FieldError{Field: field, Message: message})
	}

	if input.SosID == "" {
		addErr("sos_id", "必填")
	} else if _, err := uuid.Parse(input.SosID); err != nil {
		addErr("sos_id", "必须是合法的UUID")
	}

	if input.DeviceID == "" {
		addErr("device_id", "必填")
	} else if len(input.DeviceID) > 128 {
		addErr("device_id", "长度不能超过128")
	}

	if input.Timestamp.IsZero() {
		addErr("timestamp", "必填")
	}

	if input.Latitude == nil {
		addErr("latitude", "必填")
	} else if *input.Latitude < -90 || *input.Latitude > 90 {
		addErr("latitude", "必须在[-90,90]范围内")
	}

	if input.Longitude == nil {
		addErr("longitude", "必填")
	} else if *input.Longitude < -180 || *input.Longitude > 180 {
		addErr("longitude", "必须在[-180,180]范围内")
	}

	if input.Accuracy != nil && *input.Accuracy < 0 {
		addErr("accuracy", "不能为负数")
	}

	// 紧急情况类型大小写不敏感，未提供时默认GENERAL
	emergencyType := models.EmergencyTypeGeneral
	if input.EmergencyType != "" {
		parsed, err := models.ParseEmergencyType(input.EmergencyType)
		if err != nil {
			addErr("emergency_type", "未知的紧急情况类型")
		} else {
			emergencyType = parsed
		}
	}

	if input.OptionalMessage != nil && len([]rune(*input.OptionalMessage)) > 500 {
		addErr("optional_message", "长度不能超过500")
	}

	if input.BatteryPercentage != nil && (*input.BatteryPercentage < 0 || *input.BatteryPercentage > 100) {
		addErr("battery_percentage", "必须在[0,100]范围内")
	}

	if input.HopCount != nil && (*input.HopCount < 0 || *input.HopCount > 100) {
		addErr("hop_count", "必须在[0,100]范围内")
	}

	if input.TTL != nil && (*input.TTL < 0 || *input.TTL > 100) {
		addErr("ttl", "必须在[0,100]范围内")
	}

	if input.Signature != nil && len(*input.Signature) > 128 {
		addErr("signature", "长度不能超过128")
	}

	if len(fields) > 0 {
		return "", &ValidationError{Fields: fields}
	}
	return emergencyType, nil
}

// 1 UploadSOS 接收SOS数据包，重复的sos_id视为正常的Mesh重复投递，返回已存在的记录
func (s *SOSService) UploadSOS(input *SosPacketInput) (*models.SosPacket, bool, error) {
	emergencyType, verr := validateInput(input)
	if verr != nil {
		return nil, false, verr
	}

	// 去重检查：同一个sos_id经多条中继路径重复上传是Mesh网络的正常现象
	var existing models.SosPacket
	err := s.DB.Where("sos_id = ?", input.SosID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	// 新数据包才做时效校验，避免已入库数据包的重复投递被误拒
	now := time.Now().UTC()
	if s.Config.MaxPacketAgeHours > 0 {
		maxAge := time.Duration(s.Config.MaxPacketAgeHours) * time.Hour
		if now.Sub(input.Timestamp.UTC()) > maxAge {
			return nil, false, ErrStalePacket
		}
	}

	packet := &models.SosPacket{
		SosID:              input.SosID,
		DeviceID:           input.DeviceID,
		Timestamp:          input.Timestamp.UTC(),
		Latitude:           *input.Latitude,
		Longitude:          *input.Longitude,
		Accuracy:           input.Accuracy,
		EmergencyType:      emergencyType,
		OptionalMessage:    input.OptionalMessage,
		BatteryPercentage:  input.BatteryPercentage,
		HopCount:           0,
		TTL:                10,
		Signature:          input.Signature,
		Status:             models.DeliveryStatusDelivered,
		ReceivedAt:         now,
		UploadedByDeviceID: input.UploadedByDeviceID,
	}
	if input.HopCount != nil {
		packet.HopCount = *input.HopCount
	}
	if input.TTL != nil {
		packet.TTL = *input.TTL
	}

	if err := s.DB.Create(packet).Error; err != nil {
		// 并发的重复插入由主键约束兜底，同样走"已存在"成功路径
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := s.DB.Where("sos_id = ?", input.SosID).First(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}

	s.invalidateActiveCache()
	return packet, true, nil
}

// 2 GetActiveSOS 查询时间窗口内未响应的SOS数据包，按客户端时间戳倒序
func (s *SOSService) GetActiveSOS(emergencyType string, hours, limit int) ([]models.SosPacket, error) {
	var fields []FieldError
	if hours < 1 || hours > 168 {
		fields = append(fields, FieldError{Field: "hours", Message: "必须在[1,168]范围内"})
	}
	if limit < 1 || limit > 500 {
		fields = append(fields, FieldError{Field: "limit", Message: "必须在[1,500]范围内"})
	}

	var typeFilter models.EmergencyType
	if emergencyType != "" {
		parsed, err := models.ParseEmergencyType(emergencyType)
		if err != nil {
			fields = append(fields, FieldError{Field: "emergency_type", Message: "未知的紧急情况类型"})
		} else {
			typeFilter = parsed
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	cacheKey := s.activeCacheKey(string(typeFilter), hours, limit)
	if cacheKey != "" {
		var cached []models.SosPacket
		if err := s.Cache.Get(cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	query := s.DB.Where("status <> ? AND received_at >= ?", models.DeliveryStatusResponded, cutoff)
	if typeFilter != "" {
		query = query.Where("emergency_type = ?", typeFilter)
	}

	packets := make([]models.SosPacket, 0)
	if err := query.Order("timestamp DESC").Limit(limit).Find(&packets).Error; err != nil {
		return nil, err
	}

	if cacheKey != "" {
		ttl := time.Duration(s.Config.CacheTTLSecs) * time.Second
		if err := s.Cache.Set(cacheKey, packets, ttl); err != nil {
			config.Warning("缓存活跃SOS列表失败: %v", err)
		}
	}
	return packets, nil
}

// 3 MarkResponded 将数据包标记为已响应，重复标记为幂等成功，不覆盖首次响应信息
func (s *SOSService) MarkResponded(sosID, responderID string) (*models.SosPacket, bool, error) {
	var fields []FieldError
	if sosID == "" {
		fields = append(fields, FieldError{Field: "sos_id", Message: "必填"})
	}
	if responderID == "" {
		fields = append(fields, FieldError{Field: "responder_id", Message: "必填"})
	} else if len(responderID) > 64 {
		fields = append(fields, FieldError{Field: "responder_id", Message: "长度不能超过64"})
	}
	if len(fields) > 0 {
		return nil, false, &ValidationError{Fields: fields}
	}

	var packet models.SosPacket
	if err := s.DB.Where("sos_id = ?", sosID).First(&packet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrSOSNotFound
		}
		return nil, false, err
	}

	if packet.IsResponded() {
		return &packet, false, nil
	}

	// 带status守卫的单行更新：并发响应时首个写入者生效，后到者走幂等路径
	now := time.Now().UTC()
	result := s.DB.Model(&models.SosPacket{}).
		Where("sos_id = ? AND status <> ?", sosID, models.DeliveryStatusResponded).
		Updates(map[string]interface{}{
			"status":       models.DeliveryStatusResponded,
			"responded_at": now,
			"responder_id": responderID,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}

	if err := s.DB.Where("sos_id = ?", sosID).First(&packet).Error; err != nil {
		return nil, false, err
	}

	s.invalidateActiveCache()
	return &packet, result.RowsAffected > 0, nil
}

// 4 GetSOSByID 按ID查询单个SOS数据包
func (s *SOSService) GetSOSByID(sosID string) (*models.SosPacket, error) {
	var packet models.SosPacket
	if err := s.DB.Where("sos_id = ?", sosID).First(&packet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSOSNotFound
		}
		return nil, err
	}
	return &packet, nil
}

// activeCacheKey 构造带版本号的缓存键，缓存不可用时返回空串
func (s *SOSService) activeCacheKey(typeFilter string, hours, limit int) string {
	if s.Cache == nil || s.Config.CacheTTLSecs <= 0 {
		return ""
	}
	ver, err := s.Cache.ActiveSOSVersion()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("active_sos:v%d:%s:%d:%d", ver, typeFilter, hours, limit)
}

// invalidateActiveCache 写操作后递增缓存版本号，使旧的查询缓存失效
func (s *SOSService) invalidateActiveCache() {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.BumpActiveSOSVersion(); err != nil {
		config.Warning("递增SOS缓存版本号失败: %v", err)
	}
}
