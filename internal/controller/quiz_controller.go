package controller

import (
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

// StartQuizRequest 开始测验
// swagger:model StartQuizRequest
type StartQuizRequest struct {
	ClassID    string `json:"classId"`
	SubtopicID string `json:"subtopicId"`
}

// SubmitQuizRequest 提交答案，answers 可以为空数组
// swagger:model SubmitQuizRequest
type SubmitQuizRequest struct {
	AttemptID string                    `json:"attemptId"`
	Answers   []service.SubmittedAnswer `json:"answers"`
}

// Start godoc
// @Summary 开始测验
// @Description 返回的题目不包含正确答案
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StartQuizRequest true "班级与子主题"
// @Success 201 {object} util.Response{data=service.StartedAttempt}
// @Failure 403 {object} util.Response "未加入班级或主题未发布"
// @Failure 404 {object} util.Response "子主题不存在或没有题目"
// @Router /api/quiz [post]
func (c *QuizController) Start(ctx *gin.Context) {
	var req StartQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	started, err := c.QuizService.StartAttempt(ctx.Request.Context(), util.IdentityFromContext(ctx), req.ClassID, req.SubtopicID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, started)
}

// Submit godoc
// @Summary 提交测验
// @Description 评分并更新模块进度，最高分只增不减；同一次作答只能提交一次
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitQuizRequest true "作答"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Failure 409 {object} util.Response "已提交"
// @Router /api/quiz [patch]
func (c *QuizController) Submit(ctx *gin.Context) {
	var req SubmitQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.SubmitAttempt(ctx.Request.Context(), util.IdentityFromContext(ctx), req.AttemptID, req.Answers)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Review godoc
// @Summary 查看已完成的作答
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptResult}
// @Router /api/quiz/{attemptId} [get]
func (c *QuizController) Review(ctx *gin.Context) {
	result, err := c.QuizService.GetAttemptReview(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("attemptId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
