package controller

import (
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TopicController struct {
	TopicService *service.TopicService
}

func NewTopicController(topicService *service.TopicService) *TopicController {
	return &TopicController{TopicService: topicService}
}

// @Summary 主题列表
// @Tags 主题
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.TopicSummary}
// @Router /api/topics [get]
func (c *TopicController) List(ctx *gin.Context) {
	topics, err := c.TopicService.ListTopics(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// @Summary 创建主题
// @Tags 主题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TopicInput true "主题"
// @Success 201 {object} util.Response{data=model.Topic}
// @Router /api/topics [post]
func (c *TopicController) Create(ctx *gin.Context) {
	var in service.TopicInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	topic, err := c.TopicService.CreateTopic(ctx.Request.Context(), util.IdentityFromContext(ctx), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, topic)
}

// @Summary 修改主题
// @Tags 主题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "主题ID"
// @Param body body service.TopicInput true "主题"
// @Success 200 {object} util.Response{data=model.Topic}
// @Router /api/topics/{id} [patch]
func (c *TopicController) Update(ctx *gin.Context) {
	var in service.TopicInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	topic, err := c.TopicService.UpdateTopic(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, topic)
}

// @Summary 删除主题
// @Tags 主题
// @Produce json
// @Security BearerAuth
// @Param id path string true "主题ID"
// @Success 200 {object} util.Response
// @Router /api/topics/{id} [delete]
func (c *TopicController) Delete(ctx *gin.Context) {
	if err := c.TopicService.DeleteTopic(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 子主题列表
// @Tags 主题
// @Produce json
// @Security BearerAuth
// @Param id path string true "主题ID"
// @Success 200 {object} util.Response{data=[]model.SubtopicSummary}
// @Router /api/topics/{id}/subtopics [get]
func (c *TopicController) ListSubtopics(ctx *gin.Context) {
	subtopics, err := c.TopicService.ListSubtopics(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, subtopics)
}

// @Summary 创建子主题
// @Tags 主题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "主题ID"
// @Param body body service.TopicInput true "子主题"
// @Success 201 {object} util.Response{data=model.Subtopic}
// @Router /api/topics/{id}/subtopics [post]
func (c *TopicController) CreateSubtopic(ctx *gin.Context) {
	var in service.TopicInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	subtopic, err := c.TopicService.CreateSubtopic(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, subtopic)
}

// @Summary 修改子主题
// @Tags 主题
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "主题ID"
// @Param subtopicId path string true "子主题ID"
// @Param body body service.TopicInput true "子主题"
// @Success 200 {object} util.Response{data=model.Subtopic}
// @Router /api/topics/{id}/subtopics/{subtopicId} [patch]
func (c *TopicController) UpdateSubtopic(ctx *gin.Context) {
	var in service.TopicInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	subtopic, err := c.TopicService.UpdateSubtopic(ctx.Request.Context(), util.IdentityFromContext(ctx),
		ctx.Param("id"), ctx.Param("subtopicId"), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, subtopic)
}

// @Summary 删除子主题
// @Tags 主题
// @Produce json
// @Security BearerAuth
// @Param id path string true "主题ID"
// @Param subtopicId path string true "子主题ID"
// @Success 200 {object} util.Response
// @Router /api/topics/{id}/subtopics/{subtopicId} [delete]
func (c *TopicController) DeleteSubtopic(ctx *gin.Context) {
	err := c.TopicService.DeleteSubtopic(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"), ctx.Param("subtopicId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
