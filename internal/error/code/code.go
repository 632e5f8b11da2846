package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusUnprocessableEntity - 422: 请求参数校验失败.
	StatusUnprocessableEntity = 422
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 422: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 422: 请求参数验证错误.
	ErrValidation
	// ErrAPIKeyInvalid - 401: API密钥无效.
	ErrAPIKeyInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// SOS相关错误码 (106xxx).
const (
	// ErrSOSNotFound - 404: SOS数据包不存在.
	ErrSOSNotFound int = iota + 106000
	// ErrSOSStale - 400: SOS数据包时间戳过旧.
	ErrSOSStale
	// ErrSOSValidation - 422: SOS数据包字段校验失败.
	ErrSOSValidation
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
