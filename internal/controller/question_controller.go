package controller

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// @Summary 题目列表
// @Description 仅教师可见，包含正确答案
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param topicId query string false "主题ID"
// @Param subtopicId query string false "子主题ID"
// @Param difficulty query string false "难度 BEGINNER/INTERMEDIATE/ADVANCED"
// @Success 200 {object} util.Response{data=[]model.Question}
// @Router /api/questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	filter := model.QuestionFilter{
		TopicID:    ctx.Query("topicId"),
		SubtopicID: ctx.Query("subtopicId"),
		Difficulty: model.DifficultyLevel(ctx.Query("difficulty")),
	}
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		util.BadRequest(ctx, "invalid difficulty")
		return
	}

	questions, err := c.QuestionService.ListQuestions(ctx.Request.Context(), util.IdentityFromContext(ctx), filter)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// @Summary 题目详情
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param id path string true "题目ID"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id} [get]
func (c *QuestionController) Get(ctx *gin.Context) {
	question, err := c.QuestionService.GetQuestion(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary 创建题目
// @Description 至少两个选项且至少一个正确选项
// @Tags 题库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuestionInput true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /api/questions [post]
func (c *QuestionController) Create(ctx *gin.Context) {
	var in service.QuestionInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.QuestionService.CreateQuestion(ctx.Request.Context(), util.IdentityFromContext(ctx), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// @Summary 修改题目
// @Description options 不传则保留原选项，传入则整体替换
// @Tags 题库
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "题目ID"
// @Param body body service.QuestionUpdate true "题目"
// @Success 200 {object} util.Response{data=model.Question}
// @Router /api/questions/{id} [patch]
func (c *QuestionController) Update(ctx *gin.Context) {
	var in service.QuestionUpdate
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.QuestionService.UpdateQuestion(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, question)
}

// @Summary 删除题目
// @Tags 题库
// @Produce json
// @Security BearerAuth
// @Param id path string true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	if err := c.QuestionService.DeleteQuestion(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
