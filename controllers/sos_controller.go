package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"sos-http-service/internal/error/code"
	"sos-http-service/internal/error/response"
	"sos-http-service/services"
	"sos-http-service/services/container"

	"github.com/gin-gonic/gin"
)

// SOSController 处理SOS数据包相关的请求
type SOSController struct {
	BaseControllerImpl
}

// NewSOSController 创建一个新的SOS控制器
func (f *ControllerFactory) NewSOSController(ctx *gin.Context) *SOSController {
	return &SOSController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// MarkRespondedRequest 表示标记已响应请求
type MarkRespondedRequest struct {
	SosID       string `json:"sos_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ResponderID string `json:"responder_id" example:"responder-042"`
}

// UploadSOS 处理上传SOS数据包的请求
// @Summary      上传SOS数据包
// @Description  接收Mesh网关中继上来的SOS数据包，重复的sos_id视为正常投递并返回成功
// @Tags         SOS
// @Accept       json
// @Produce      json
// @Param        request body services.SosPacketInput true "SOS数据包"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  response.Response "时间戳过旧"
// @Failure      422  {object}  response.Response "字段校验失败"
// @Router       /upload-sos [post]
func (c *SOSController) UploadSOS() {
	var input services.SosPacketInput
	if err := c.Context.ShouldBindJSON(&input); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	sosService := c.Container.GetSOSService()
	packet, created, err := sosService.UploadSOS(&input)
	if err != nil {
		c.failSOS(err)
		return
	}

	message := "SOS数据包上传成功"
	if !created {
		message = "SOS数据包已存在"
	}
	c.Context.JSON(http.StatusOK, gin.H{
		"success": true,
		"sos_id":  packet.SosID,
		"message": message,
	})
}

// GetActiveSOS 处理查询活跃SOS数据包的请求
// @Summary      查询活跃SOS数据包
// @Description  返回时间窗口内未响应的SOS数据包，按客户端时间戳倒序
// @Tags         SOS
// @Produce      json
// @Param        emergency_type query string false "紧急情况类型过滤" Enums(MEDICAL, FIRE, FLOOD, EARTHQUAKE, GENERAL)
// @Param        hours query int false "时间窗口（小时），范围[1,168]" default(24)
// @Param        limit query int false "最大返回条数，范围[1,500]" default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  response.Response "参数超出范围"
// @Router       /active-sos [get]
func (c *SOSController) GetActiveSOS() {
	hours, err := strconv.Atoi(c.Context.DefaultQuery("hours", "24"))
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "hours必须是整数", nil)
		return
	}
	limit, err := strconv.Atoi(c.Context.DefaultQuery("limit", "100"))
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "limit必须是整数", nil)
		return
	}
	emergencyType := c.Context.Query("emergency_type")

	sosService := c.Container.GetSOSService()
	packets, err := sosService.GetActiveSOS(emergencyType, hours, limit)
	if err != nil {
		c.failSOS(err)
		return
	}

	c.Context.JSON(http.StatusOK, gin.H{
		"count":       len(packets),
		"sos_packets": packets,
	})
}

// MarkResponded 处理标记SOS已响应的请求
// @Summary      标记SOS已响应
// @Description  响应方处理完紧急情况后调用，重复标记为幂等成功
// @Tags         SOS
// @Accept       json
// @Produce      json
// @Param        request body MarkRespondedRequest true "标记请求参数"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  response.Response "数据包不存在"
// @Failure      422  {object}  response.Response "字段校验失败"
// @Router       /mark-responded [post]
func (c *SOSController) MarkResponded() {
	var req MarkRespondedRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	sosService := c.Container.GetSOSService()
	packet, changed, err := sosService.MarkResponded(req.SosID, req.ResponderID)
	if err != nil {
		c.failSOS(err)
		return
	}

	message := "SOS数据包已标记为已响应"
	if !changed {
		message = "SOS数据包此前已被响应"
	}
	c.Context.JSON(http.StatusOK, gin.H{
		"success": true,
		"sos_id":  packet.SosID,
		"message": message,
	})
}

// GetSOSByID 处理按ID查询SOS数据包的请求
// @Summary      按ID查询SOS数据包
// @Tags         SOS
// @Produce      json
// @Param        id path string true "SOS数据包ID"
// @Success      200  {object}  models.SosPacket
// @Failure      404  {object}  response.Response "数据包不存在"
// @Router       /sos/{id} [get]
func (c *SOSController) GetSOSByID() {
	sosID := c.Context.Param("id")

	sosService := c.Container.GetSOSService()
	packet, err := sosService.GetSOSByID(sosID)
	if err != nil {
		c.failSOS(err)
		return
	}

	c.Context.JSON(http.StatusOK, packet)
}

// failSOS 把服务层错误映射为统一的失败响应
func (c *SOSController) failSOS(err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Fail(c.Context, code.ErrSOSValidation, gin.H{"fields": verr.Fields})
	case errors.Is(err, services.ErrStalePacket):
		response.Fail(c.Context, code.ErrSOSStale, nil)
	case errors.Is(err, services.ErrSOSNotFound):
		response.NotFound(c.Context, "SOS数据包不存在")
	default:
		response.ServerError(c.Context)
	}
}

// HandleSOSFunc 返回一个处理SOS请求的Gin处理函数
func HandleSOSFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewSOSController(ctx)

		switch method {
		case "uploadSOS":
			controller.UploadSOS()
		case "getActiveSOS":
			controller.GetActiveSOS()
		case "markResponded":
			controller.MarkResponded()
		case "getSOSByID":
			controller.GetSOSByID()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}
