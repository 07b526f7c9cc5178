package controller

import (
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
)

type InvitationController struct {
	InvitationService *service.InvitationService
}

func NewInvitationController(invitationService *service.InvitationService) *InvitationController {
	return &InvitationController{InvitationService: invitationService}
}

// Validate godoc
// @Summary 校验邀请链接
// @Description 返回邀请对应的班级与教师信息，无需登录
// @Tags 邀请
// @Produce json
// @Param token path string true "邀请令牌"
// @Success 200 {object} util.Response{data=service.InvitationPreview}
// @Failure 404 {object} util.Response "邀请不存在"
// @Failure 410 {object} util.Response "邀请已失效"
// @Router /api/invitations/{token} [get]
func (c *InvitationController) Validate(ctx *gin.Context) {
	preview, err := c.InvitationService.ValidateToken(ctx.Request.Context(), ctx.Param("token"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, preview)
}

// Consume godoc
// @Summary 使用邀请加入班级
// @Description 已登录学生直接加入；未登录时请求体为学生注册信息，注册后加入并返回登录令牌
// @Tags 邀请
// @Accept json
// @Produce json
// @Param token path string true "邀请令牌"
// @Param body body service.SignupForm false "未登录时的注册信息"
// @Success 200 {object} util.Response{data=service.ConsumeResult}
// @Failure 400 {object} util.Response "注册信息不完整"
// @Failure 403 {object} util.Response "非学生账号"
// @Failure 409 {object} util.Response "邮箱或用户名已被占用"
// @Failure 410 {object} util.Response "邀请已失效"
// @Router /api/invitations/{token} [post]
func (c *InvitationController) Consume(ctx *gin.Context) {
	who := util.IdentityFromContext(ctx)

	var signup *service.SignupForm
	if who == nil {
		var form service.SignupForm
		if err := ctx.ShouldBindJSON(&form); err != nil {
			if !errors.Is(err, io.EOF) {
				util.BadRequest(ctx, err.Error())
				return
			}
		} else {
			signup = &form
		}
	}

	result, err := c.InvitationService.ConsumeInvitation(ctx.Request.Context(), ctx.Param("token"), who, signup)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Create godoc
// @Summary 创建邀请链接
// @Description 班级所属教师可创建，可设置有效天数与最大使用次数
// @Tags 邀请
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateInvitationRequest true "邀请参数"
// @Success 201 {object} util.Response{data=service.CreatedInvitation}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 401 {object} util.Response "非教师"
// @Failure 403 {object} util.Response "不是班级所属教师"
// @Router /api/invitations [post]
func (c *InvitationController) Create(ctx *gin.Context) {
	var req service.CreateInvitationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	created, err := c.InvitationService.CreateInvitation(ctx.Request.Context(), util.IdentityFromContext(ctx), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, created)
}

// List godoc
// @Summary 班级邀请列表
// @Tags 邀请
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Success 200 {object} util.Response{data=[]service.CreatedInvitation}
// @Router /api/classes/{id}/invitations [get]
func (c *InvitationController) List(ctx *gin.Context) {
	list, err := c.InvitationService.ListInvitations(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Deactivate godoc
// @Summary 停用邀请链接
// @Tags 邀请
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Param invitationId path string true "邀请ID"
// @Success 200 {object} util.Response
// @Router /api/classes/{id}/invitations/{invitationId} [delete]
func (c *InvitationController) Deactivate(ctx *gin.Context) {
	err := c.InvitationService.DeactivateInvitation(ctx.Request.Context(), util.IdentityFromContext(ctx),
		ctx.Param("id"), ctx.Param("invitationId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
