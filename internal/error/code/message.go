package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrAPIKeyInvalid:   "无效的API密钥",
	ErrTooManyRequests: "请求频率过高",

	// SOS相关错误码
	ErrSOSNotFound:   "SOS数据包不存在",
	ErrSOSStale:      "SOS数据包时间戳过旧",
	ErrSOSValidation: "SOS数据包字段校验失败",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusUnprocessableEntity,
	ErrValidation:      StatusUnprocessableEntity,
	ErrAPIKeyInvalid:   StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// SOS相关错误码
	ErrSOSNotFound:   StatusNotFound,
	ErrSOSStale:      StatusBadRequest,
	ErrSOSValidation: StatusUnprocessableEntity,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
