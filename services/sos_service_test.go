package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"sos-http-service/config"
	"sos-http-service/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 创建独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&models.SosPacket{}); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (InterfaceSOSService, *gorm.DB) {
	t.Helper()

	cfg := &config.Config{
		MaxPacketAgeHours: 24,
		CacheTTLSecs:      0,
	}
	db := newTestDB(t)
	return NewSOSService(db, cfg, nil), db
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func validInput(sosID string) *SosPacketInput {
	return &SosPacketInput{
		SosID:         sosID,
		DeviceID:      "device-abc",
		Timestamp:     time.Now().UTC().Add(-5 * time.Minute),
		Latitude:      floatPtr(37.7749),
		Longitude:     floatPtr(-122.4194),
		EmergencyType: "medical",
	}
}

func TestUploadSOSNormalizesAndDelivers(t *testing.T) {
	service, _ := newTestService(t)

	packet, created, err := service.UploadSOS(validInput("550e8400-e29b-41d4-a716-446655440000"))
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if !created {
		t.Fatalf("首次上传应返回created=true")
	}
	if packet.EmergencyType != models.EmergencyTypeMedical {
		t.Errorf("期望类型MEDICAL，实际 %s", packet.EmergencyType)
	}
	if packet.Status != models.DeliveryStatusDelivered {
		t.Errorf("期望状态DELIVERED，实际 %s", packet.Status)
	}
	if packet.ReceivedAt.IsZero() {
		t.Errorf("received_at应由服务端设置")
	}
	if packet.HopCount != 0 || packet.TTL != 10 {
		t.Errorf("期望默认hop_count=0 ttl=10，实际 %d/%d", packet.HopCount, packet.TTL)
	}
}

func TestUploadSOSDuplicateIsIdempotent(t *testing.T) {
	service, db := newTestService(t)
	input := validInput("550e8400-e29b-41d4-a716-446655440001")

	if _, created, err := service.UploadSOS(input); err != nil || !created {
		t.Fatalf("首次上传失败: created=%v err=%v", created, err)
	}
	packet, created, err := service.UploadSOS(input)
	if err != nil {
		t.Fatalf("重复上传不应报错: %v", err)
	}
	if created {
		t.Fatalf("重复上传应返回created=false")
	}
	if packet.SosID != input.SosID {
		t.Errorf("应返回已存在的记录")
	}

	var count int64
	db.Model(&models.SosPacket{}).Where("sos_id = ?", input.SosID).Count(&count)
	if count != 1 {
		t.Errorf("同一sos_id应只有一行记录，实际 %d", count)
	}
}

func TestUploadSOSValidation(t *testing.T) {
	service, _ := newTestService(t)

	cases := []struct {
		name    string
		mutate  func(*SosPacketInput)
		field   string
	}{
		{"纬度超限", func(in *SosPacketInput) { in.Latitude = floatPtr(200) }, "latitude"},
		{"经度超限", func(in *SosPacketInput) { in.Longitude = floatPtr(-181) }, "longitude"},
		{"非法UUID", func(in *SosPacketInput) { in.SosID = "not-a-uuid" }, "sos_id"},
		{"未知类型", func(in *SosPacketInput) { in.EmergencyType = "tsunami" }, "emergency_type"},
		{"电量超限", func(in *SosPacketInput) { in.BatteryPercentage = intPtr(150) }, "battery_percentage"},
		{"跳数超限", func(in *SosPacketInput) { in.HopCount = intPtr(101) }, "hop_count"},
		{"TTL为负", func(in *SosPacketInput) { in.TTL = intPtr(-1) }, "ttl"},
		{"消息过长", func(in *SosPacketInput) { in.OptionalMessage = strPtr(strings.Repeat("a", 501)) }, "optional_message"},
		{"设备ID缺失", func(in *SosPacketInput) { in.DeviceID = "" }, "device_id"},
		{"时间戳缺失", func(in *SosPacketInput) { in.Timestamp = time.Time{} }, "timestamp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput("550e8400-e29b-41d4-a716-446655440002")
			tc.mutate(input)

			_, _, err := service.UploadSOS(input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("期望ValidationError，实际 %v", err)
			}
			found := false
			for _, f := range verr.Fields {
				if f.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("错误详情应包含字段 %s: %v", tc.field, verr.Fields)
			}
		})
	}
}

func TestUploadSOSRejectsStalePacket(t *testing.T) {
	service, _ := newTestService(t)

	input := validInput("550e8400-e29b-41d4-a716-446655440003")
	input.Timestamp = time.Now().UTC().Add(-25 * time.Hour)

	_, _, err := service.UploadSOS(input)
	if !errors.Is(err, ErrStalePacket) {
		t.Fatalf("期望ErrStalePacket，实际 %v", err)
	}
}

func TestUploadSOSDuplicateSkipsStalenessCheck(t *testing.T) {
	service, _ := newTestService(t)

	input := validInput("550e8400-e29b-41d4-a716-446655440004")
	if _, _, err := service.UploadSOS(input); err != nil {
		t.Fatalf("首次上传失败: %v", err)
	}

	// 同一数据包经更慢的中继路径再次到达时，时间戳可能已超龄，不应被拒
	input.Timestamp = time.Now().UTC().Add(-48 * time.Hour)
	_, created, err := service.UploadSOS(input)
	if err != nil {
		t.Fatalf("已存在数据包的重复投递不应报错: %v", err)
	}
	if created {
		t.Errorf("应走已存在路径")
	}
}

func TestGetActiveSOSFiltersByType(t *testing.T) {
	service, _ := newTestService(t)

	medical := validInput("550e8400-e29b-41d4-a716-446655440010")
	medical.EmergencyType = "MEDICAL"
	fire := validInput("550e8400-e29b-41d4-a716-446655440011")
	fire.EmergencyType = "FIRE"
	for _, in := range []*SosPacketInput{medical, fire} {
		if _, _, err := service.UploadSOS(in); err != nil {
			t.Fatalf("上传失败: %v", err)
		}
	}

	packets, err := service.GetActiveSOS("medical", 24, 100)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("期望1条MEDICAL记录，实际 %d", len(packets))
	}
	if packets[0].EmergencyType != models.EmergencyTypeMedical {
		t.Errorf("过滤结果类型错误: %s", packets[0].EmergencyType)
	}
}

func TestGetActiveSOSExcludesOldPackets(t *testing.T) {
	service, db := newTestService(t)

	// 直接写入一条接收时间超出窗口的记录
	old := models.SosPacket{
		SosID:         "550e8400-e29b-41d4-a716-446655440020",
		DeviceID:      "device-old",
		Timestamp:     time.Now().UTC().Add(-40 * time.Hour),
		Latitude:      10,
		Longitude:     20,
		EmergencyType: models.EmergencyTypeGeneral,
		Status:        models.DeliveryStatusDelivered,
		ReceivedAt:    time.Now().UTC().Add(-48 * time.Hour),
		TTL:           10,
	}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("写入测试数据失败: %v", err)
	}

	packets, err := service.GetActiveSOS("", 24, 100)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(packets) != 0 {
		t.Errorf("窗口外的记录不应返回，实际返回 %d 条", len(packets))
	}

	// 放宽窗口后应能查到
	packets, err = service.GetActiveSOS("", 72, 100)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(packets) != 1 {
		t.Errorf("72小时窗口应包含该记录，实际 %d 条", len(packets))
	}
}

func TestGetActiveSOSOrdersByTimestampDesc(t *testing.T) {
	service, _ := newTestService(t)

	earlier := validInput("550e8400-e29b-41d4-a716-446655440030")
	earlier.Timestamp = time.Now().UTC().Add(-2 * time.Hour)
	later := validInput("550e8400-e29b-41d4-a716-446655440031")
	later.Timestamp = time.Now().UTC().Add(-1 * time.Hour)

	// 故意先上传较新的，再上传较旧的，排序不应依赖插入顺序
	for _, in := range []*SosPacketInput{later, earlier} {
		if _, _, err := service.UploadSOS(in); err != nil {
			t.Fatalf("上传失败: %v", err)
		}
	}

	packets, err := service.GetActiveSOS("", 24, 100)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("期望2条记录，实际 %d", len(packets))
	}
	if packets[0].SosID != later.SosID {
		t.Errorf("最新的紧急情况应排在最前，实际第一条是 %s", packets[0].SosID)
	}
}

func TestGetActiveSOSRejectsOutOfRangeParams(t *testing.T) {
	service, _ := newTestService(t)

	cases := []struct {
		name  string
		hours int
		limit int
	}{
		{"hours过小", 0, 100},
		{"hours过大", 169, 100},
		{"limit过小", 24, 0},
		{"limit过大", 24, 501},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.GetActiveSOS("", tc.hours, tc.limit)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("期望ValidationError，实际 %v", err)
			}
		})
	}
}

func TestGetActiveSOSEmptyResult(t *testing.T) {
	service, _ := newTestService(t)

	packets, err := service.GetActiveSOS("", 24, 100)
	if err != nil {
		t.Fatalf("空结果不应报错: %v", err)
	}
	if packets == nil || len(packets) != 0 {
		t.Errorf("应返回空切片，实际 %v", packets)
	}
}

func TestGetActiveSOSRespectsLimit(t *testing.T) {
	service, _ := newTestService(t)

	for i := 0; i < 5; i++ {
		in := validInput(fmt.Sprintf("550e8400-e29b-41d4-a716-4466554400%02d", 40+i))
		if _, _, err := service.UploadSOS(in); err != nil {
			t.Fatalf("上传失败: %v", err)
		}
	}

	packets, err := service.GetActiveSOS("", 24, 3)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(packets) != 3 {
		t.Errorf("期望截断到3条，实际 %d", len(packets))
	}
}

func TestMarkRespondedIsIdempotent(t *testing.T) {
	service, _ := newTestService(t)

	input := validInput("550e8400-e29b-41d4-a716-446655440050")
	if _, _, err := service.UploadSOS(input); err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	first, changed, err := service.MarkResponded(input.SosID, "responder-1")
	if err != nil {
		t.Fatalf("标记失败: %v", err)
	}
	if !changed {
		t.Fatalf("首次标记应返回changed=true")
	}
	if first.Status != models.DeliveryStatusResponded {
		t.Errorf("状态应为RESPONDED，实际 %s", first.Status)
	}
	if first.ResponderID == nil || *first.ResponderID != "responder-1" {
		t.Errorf("responder_id应为responder-1")
	}

	// 第二个响应方重复标记：幂等成功，首次响应信息不被覆盖
	second, changed, err := service.MarkResponded(input.SosID, "responder-2")
	if err != nil {
		t.Fatalf("重复标记不应报错: %v", err)
	}
	if changed {
		t.Errorf("重复标记应返回changed=false")
	}
	if second.ResponderID == nil || *second.ResponderID != "responder-1" {
		t.Errorf("responder_id不应被覆盖，实际 %v", second.ResponderID)
	}
	if second.RespondedAt == nil || first.RespondedAt == nil || !second.RespondedAt.Equal(*first.RespondedAt) {
		t.Errorf("responded_at不应被覆盖")
	}
}

func TestMarkRespondedExcludesFromActive(t *testing.T) {
	service, _ := newTestService(t)

	input := validInput("550e8400-e29b-41d4-a716-446655440051")
	if _, _, err := service.UploadSOS(input); err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if _, _, err := service.MarkResponded(input.SosID, "responder-1"); err != nil {
		t.Fatalf("标记失败: %v", err)
	}

	packets, err := service.GetActiveSOS("", 24, 100)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	for _, p := range packets {
		if p.SosID == input.SosID {
			t.Errorf("已响应的数据包不应出现在活跃列表中")
		}
	}
}

func TestMarkRespondedNotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, _, err := service.MarkResponded("550e8400-e29b-41d4-a716-446655440099", "responder-1")
	if !errors.Is(err, ErrSOSNotFound) {
		t.Fatalf("期望ErrSOSNotFound，实际 %v", err)
	}
}

func TestGetSOSByID(t *testing.T) {
	service, _ := newTestService(t)

	input := validInput("550e8400-e29b-41d4-a716-446655440060")
	if _, _, err := service.UploadSOS(input); err != nil {
		t.Fatalf("上传失败: %v", err)
	}

	packet, err := service.GetSOSByID(input.SosID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if packet.DeviceID != input.DeviceID {
		t.Errorf("返回的记录不匹配")
	}

	if _, err := service.GetSOSByID("nonexistent"); !errors.Is(err, ErrSOSNotFound) {
		t.Fatalf("期望ErrSOSNotFound，实际 %v", err)
	}
}
