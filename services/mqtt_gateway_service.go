package services

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sos-http-service/config"
	"sos-http-service/utils"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// 主题常量
const (
	// 网关上行主题，离线Mesh网关把携带的SOS数据包发布到这里
	TopicSOSUplink = "sos/uplink"

	// 按网关回执主题，格式 sos/ack/<gateway_id>
	TopicSOSAckPrefix = "sos/ack/"

	// 新SOS广播主题，供响应方看板订阅
	TopicSOSNotify = "sos/notify"
)

// UplinkMessage 网关上行消息结构
type UplinkMessage struct {
	MessageID string          `json:"message_id"` // 网关生成的消息ID，用于回执和去重
	GatewayID string          `json:"gateway_id"` // 上传网关的设备ID（明文，入库前哈希）
	Packet    *SosPacketInput `json:"packet"`
}

// UplinkAck 发回网关的回执
type UplinkAck struct {
	MessageID string `json:"message_id"`
	SosID     string `json:"sos_id,omitempty"`
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// NotifyMessage 新SOS广播消息
type NotifyMessage struct {
	SosID         string  `json:"sos_id"`
	EmergencyType string  `json:"emergency_type"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	ReceivedAt    int64   `json:"received_at"`
}

// InterfaceMQTTGatewayService 定义MQTT网关上行链路服务接口
type InterfaceMQTTGatewayService interface {
	Connect() error
	Disconnect()
	SubscribeToTopics() error
	PublishNotify(notify *NotifyMessage) error
}

// MQTTGatewayService 为只有MQTT出口的网关提供SOS上行链路
type MQTTGatewayService struct {
	Config         *config.Config
	SOSService     InterfaceSOSService
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	PublishMutex   sync.Mutex   // 保护MQTT消息发布
	ProcessedMsgs  *sync.Map    // 记录已处理的消息ID，防止broker重投导致重复处理
}

// NewMQTTGatewayService 创建一个新的MQTT网关服务
func NewMQTTGatewayService(cfg *config.Config, sosService InterfaceSOSService) InterfaceMQTTGatewayService {
	service := &MQTTGatewayService{
		Config:        cfg,
		SOSService:    sosService,
		IsConnected:   false,
		ProcessedMsgs: &sync.Map{},
	}

	// 设置MQTT客户端
	service.setupMQTTClient()

	// 启动消息去重清理任务
	go service.startMsgCleanupTask()

	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTGatewayService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", s.Config.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(false) // 断线期间broker保留上行消息

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") || s.Config.MQTTSSLEnabled {
		log.Println("[MQTT] 使用TLS连接")
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: true,
		})
	}

	// 连接恢复后重新订阅
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
		if err := s.SubscribeToTopics(); err != nil {
			config.Error("[MQTT] 重新订阅失败: %v", err)
		}
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
		config.Warning("[MQTT] 连接断开: %v", err)
	})

	s.Client = mqtt.NewClient(opts)
}

// Connect 连接MQTT服务器
func (s *MQTTGatewayService) Connect() error {
	if s.Config.MQTTBrokerURL == "" {
		return errors.New("未配置MQTT服务器地址")
	}

	token := s.Client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("连接MQTT服务器超时")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("连接MQTT服务器失败: %w", err)
	}

	config.Info("[MQTT] 已连接到 %s", s.Config.MQTTBrokerURL)
	return nil
}

// Disconnect 断开MQTT连接
func (s *MQTTGatewayService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
	s.connectedMutex.Lock()
	s.IsConnected = false
	s.connectedMutex.Unlock()
}

// SubscribeToTopics 订阅网关上行主题
func (s *MQTTGatewayService) SubscribeToTopics() error {
	qos := byte(s.Config.MQTTQoS)
	token := s.Client.Subscribe(TopicSOSUplink, qos, s.handleUplinkMessage)
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("订阅上行主题超时")
	}
	return token.Error()
}

// handleUplinkMessage 处理一条网关上行消息
func (s *MQTTGatewayService) handleUplinkMessage(client mqtt.Client, msg mqtt.Message) {
	var uplink UplinkMessage
	if err := json.Unmarshal(msg.Payload(), &uplink); err != nil {
		config.Warning("[MQTT] 解析上行消息失败: %v", err)
		return
	}

	if uplink.GatewayID == "" || uplink.Packet == nil {
		config.Warning("[MQTT] 上行消息缺少gateway_id或packet字段")
		return
	}

	// broker在QoS1下可能重投同一条消息
	if uplink.MessageID != "" {
		if _, loaded := s.ProcessedMsgs.LoadOrStore(uplink.MessageID, time.Now()); loaded {
			return
		}
	}

	// 网关ID哈希后入库，保持与device_id一致的隐私策略
	hashedGateway := utils.HashDeviceID(uplink.GatewayID)
	uplink.Packet.UploadedByDeviceID = &hashedGateway

	packet, created, err := s.SOSService.UploadSOS(uplink.Packet)

	ack := &UplinkAck{
		MessageID: uplink.MessageID,
		Timestamp: time.Now().Unix(),
	}
	switch {
	case err == nil && created:
		ack.Success = true
		ack.SosID = packet.SosID
		ack.Message = "SOS数据包上传成功"
	case err == nil:
		ack.Success = true
		ack.Duplicate = true
		ack.SosID = packet.SosID
		ack.Message = "SOS数据包已存在"
	default:
		ack.Success = false
		ack.Message = err.Error()
	}

	if err := s.publishJSON(TopicSOSAckPrefix+uplink.GatewayID, ack); err != nil {
		config.Warning("[MQTT] 发送回执失败: %v", err)
	}

	// 只有新入库的数据包才广播给响应方看板
	if err == nil && created {
		notify := &NotifyMessage{
			SosID:         packet.SosID,
			EmergencyType: string(packet.EmergencyType),
			Latitude:      packet.Latitude,
			Longitude:     packet.Longitude,
			ReceivedAt:    packet.ReceivedAt.Unix(),
		}
		if err := s.PublishNotify(notify); err != nil {
			config.Warning("[MQTT] 广播新SOS失败: %v", err)
		}
	}
}

// PublishNotify 向响应方看板广播新SOS
func (s *MQTTGatewayService) PublishNotify(notify *NotifyMessage) error {
	return s.publishJSON(TopicSOSNotify, notify)
}

// publishJSON 序列化并发布消息
func (s *MQTTGatewayService) publishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	token := s.Client.Publish(topic, byte(s.Config.MQTTQoS), false, data)
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("发布消息超时")
	}
	return token.Error()
}

// startMsgCleanupTask 定期清理过期的去重记录
func (s *MQTTGatewayService) startMsgCleanupTask() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-30 * time.Minute)
		s.ProcessedMsgs.Range(func(key, value interface{}) bool {
			if t, ok := value.(time.Time); ok && t.Before(cutoff) {
				s.ProcessedMsgs.Delete(key)
			}
			return true
		})
	}
}
