package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashDeviceID 对设备ID做SHA-256哈希，入库前统一脱敏
func HashDeviceID(deviceID string) string {
	sum := sha256.Sum256([]byte(deviceID))
	return hex.EncodeToString(sum[:])
}
