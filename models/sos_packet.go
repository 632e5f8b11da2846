package models

import (
	"fmt"
	"strings"
	"time"
)

// EmergencyType 紧急情况类型
type EmergencyType string

const (
	EmergencyTypeMedical    EmergencyType = "MEDICAL"
	EmergencyTypeFire       EmergencyType = "FIRE"
	EmergencyTypeFlood      EmergencyType = "FLOOD"
	EmergencyTypeEarthquake EmergencyType = "EARTHQUAKE"
	EmergencyTypeGeneral    EmergencyType = "GENERAL"
)

// ParseEmergencyType 解析紧急情况类型，输入大小写不敏感，未知类型返回错误
func ParseEmergencyType(s string) (EmergencyType, error) {
	switch EmergencyType(strings.ToUpper(strings.TrimSpace(s))) {
	case EmergencyTypeMedical:
		return EmergencyTypeMedical, nil
	case EmergencyTypeFire:
		return EmergencyTypeFire, nil
	case EmergencyTypeFlood:
		return EmergencyTypeFlood, nil
	case EmergencyTypeEarthquake:
		return EmergencyTypeEarthquake, nil
	case EmergencyTypeGeneral:
		return EmergencyTypeGeneral, nil
	default:
		return "", fmt.Errorf("未知的紧急情况类型: %s", s)
	}
}

// DeliveryStatus SOS数据包的投递状态
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusRelayed   DeliveryStatus = "RELAYED"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusResponded DeliveryStatus = "RESPONDED"
)

// SosPacket 表示通过Mesh网络中继上来的SOS数据包
type SosPacket struct {
	// 客户端生成的唯一标识，作为去重键
	SosID string `gorm:"type:char(36);primaryKey" json:"sos_id"`

	// 设备信息（客户端应上传隐私哈希后的设备ID）
	DeviceID string `gorm:"type:varchar(128);not null;index" json:"device_id"`

	// 客户端记录紧急情况的时间
	Timestamp time.Time `gorm:"not null" json:"timestamp"`

	// 位置信息
	Latitude  float64  `gorm:"not null" json:"latitude"`
	Longitude float64  `gorm:"not null" json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"` // 定位精度（米）

	// 紧急情况详情
	EmergencyType   EmergencyType `gorm:"type:varchar(20);not null;default:'GENERAL'" json:"emergency_type"`
	OptionalMessage *string       `gorm:"type:varchar(500)" json:"optional_message,omitempty"`

	// 电量信息
	BatteryPercentage *int `json:"battery_percentage,omitempty"`

	// Mesh中继信息，仅存储不做解释
	HopCount int `gorm:"not null;default:0" json:"hop_count"`
	TTL      int `gorm:"not null;default:10" json:"ttl"`

	// 签名仅透传存储，本服务不做校验
	Signature *string `gorm:"type:varchar(128)" json:"signature,omitempty"`

	// 服务端跟踪字段
	Status      DeliveryStatus `gorm:"type:varchar(20);not null;default:'DELIVERED'" json:"status"`
	ReceivedAt  time.Time      `gorm:"not null" json:"received_at"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	ResponderID *string        `gorm:"type:varchar(64)" json:"responder_id,omitempty"`

	// 上传该数据包的网关设备ID（哈希后）
	UploadedByDeviceID *string `gorm:"type:varchar(64)" json:"uploaded_by_device_id,omitempty"`
}

// TableName 指定表名
func (SosPacket) TableName() string {
	return "sos_packets"
}

// IsResponded 判断数据包是否已被响应
func (p *SosPacket) IsResponded() bool {
	return p.Status == DeliveryStatusResponded
}
