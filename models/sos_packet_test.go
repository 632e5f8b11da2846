package models

import "testing"

func TestParseEmergencyType(t *testing.T) {
	cases := []struct {
		input   string
		want    EmergencyType
		wantErr bool
	}{
		{"MEDICAL", EmergencyTypeMedical, false},
		{"medical", EmergencyTypeMedical, false},
		{"Fire", EmergencyTypeFire, false},
		{" flood ", EmergencyTypeFlood, false},
		{"earthquake", EmergencyTypeEarthquake, false},
		{"general", EmergencyTypeGeneral, false},
		{"tsunami", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParseEmergencyType(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseEmergencyType(%q) 应返回错误", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseEmergencyType(%q) 意外报错: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseEmergencyType(%q) = %s，期望 %s", tc.input, got, tc.want)
		}
	}
}

func TestIsResponded(t *testing.T) {
	p := SosPacket{Status: DeliveryStatusDelivered}
	if p.IsResponded() {
		t.Errorf("DELIVERED状态不应视为已响应")
	}
	p.Status = DeliveryStatusResponded
	if !p.IsResponded() {
		t.Errorf("RESPONDED状态应视为已响应")
	}
}
