package controller

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ClassController struct {
	ClassService      *service.ClassService
	EnrollmentService *service.EnrollmentService
}

func NewClassController(classService *service.ClassService, enrollmentService *service.EnrollmentService) *ClassController {
	return &ClassController{
		ClassService:      classService,
		EnrollmentService: enrollmentService,
	}
}

// ClassTopicRequest 分配主题或修改发布状态
// swagger:model ClassTopicRequest
type ClassTopicRequest struct {
	TopicID   string `json:"topicId" binding:"required"`
	Published *bool  `json:"published"`
}

// List godoc
// @Summary 我的班级
// @Description 教师返回自己创建的班级，学生返回已加入的班级
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.ClassSummary}
// @Router /api/classes [get]
func (c *ClassController) List(ctx *gin.Context) {
	who := util.IdentityFromContext(ctx)

	var (
		list []model.ClassSummary
		err  error
	)
	switch who.(type) {
	case model.StudentIdentity:
		list, err = c.EnrollmentService.ListClassesForStudent(ctx.Request.Context(), who)
	default:
		list, err = c.ClassService.ListForTeacher(ctx.Request.Context(), who)
	}
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Create godoc
// @Summary 创建班级
// @Tags 班级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ClassInput true "班级信息"
// @Success 201 {object} util.Response{data=model.Class}
// @Router /api/classes [post]
func (c *ClassController) Create(ctx *gin.Context) {
	var in service.ClassInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	class, err := c.ClassService.CreateClass(ctx.Request.Context(), util.IdentityFromContext(ctx), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, class)
}

// Get godoc
// @Summary 班级详情
// @Description 所属教师看到全部主题，已加入的学生只看到已发布主题
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Success 200 {object} util.Response{data=service.ClassDetail}
// @Router /api/classes/{id} [get]
func (c *ClassController) Get(ctx *gin.Context) {
	detail, err := c.ClassService.GetClass(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// Update godoc
// @Summary 修改班级
// @Tags 班级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Param body body service.ClassInput true "班级信息"
// @Success 200 {object} util.Response{data=model.Class}
// @Router /api/classes/{id} [patch]
func (c *ClassController) Update(ctx *gin.Context) {
	var in service.ClassInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	class, err := c.ClassService.UpdateClass(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, class)
}

// Delete godoc
// @Summary 删除班级
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Success 200 {object} util.Response
// @Router /api/classes/{id} [delete]
func (c *ClassController) Delete(ctx *gin.Context) {
	if err := c.ClassService.DeleteClass(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListTopics godoc
// @Summary 班级主题
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Success 200 {object} util.Response{data=[]model.ClassTopic}
// @Router /api/classes/{id}/topics [get]
func (c *ClassController) ListTopics(ctx *gin.Context) {
	topics, err := c.ClassService.ListClassTopics(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, topics)
}

// AssignTopic godoc
// @Summary 为班级分配主题
// @Description 新分配的主题默认未发布
// @Tags 班级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Param body body ClassTopicRequest true "主题"
// @Success 201 {object} util.Response{data=model.ClassTopic}
// @Failure 409 {object} util.Response "主题已分配"
// @Router /api/classes/{id}/topics [post]
func (c *ClassController) AssignTopic(ctx *gin.Context) {
	var req ClassTopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ct, err := c.ClassService.AssignTopic(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"), req.TopicID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, ct)
}

// PublishTopic godoc
// @Summary 发布或撤回班级主题
// @Tags 班级
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Param body body ClassTopicRequest true "主题与发布状态"
// @Success 200 {object} util.Response{data=model.ClassTopic}
// @Router /api/classes/{id}/topics [patch]
func (c *ClassController) PublishTopic(ctx *gin.Context) {
	var req ClassTopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Published == nil {
		util.BadRequest(ctx, "published is required")
		return
	}

	ct, err := c.ClassService.SetTopicPublished(ctx.Request.Context(), util.IdentityFromContext(ctx),
		ctx.Param("id"), req.TopicID, *req.Published)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, ct)
}

// RemoveTopic godoc
// @Summary 移除班级主题
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Param topicId path string true "主题ID"
// @Success 200 {object} util.Response
// @Router /api/classes/{id}/topics/{topicId} [delete]
func (c *ClassController) RemoveTopic(ctx *gin.Context) {
	err := c.ClassService.RemoveTopic(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"), ctx.Param("topicId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Roster godoc
// @Summary 班级学生名单
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Success 200 {object} util.Response{data=[]service.RosterEntry}
// @Router /api/classes/{id}/students [get]
func (c *ClassController) Roster(ctx *gin.Context) {
	roster, err := c.EnrollmentService.ListRoster(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, roster)
}

// Modules godoc
// @Summary 学生可学习的模块
// @Description 班级已发布主题下的全部子主题及本人进度
// @Tags 班级
// @Produce json
// @Security BearerAuth
// @Param id path string true "班级ID"
// @Success 200 {object} util.Response{data=[]service.ModuleWithProgress}
// @Router /api/classes/{id}/modules [get]
func (c *ClassController) Modules(ctx *gin.Context) {
	modules, err := c.EnrollmentService.ListAccessibleModules(ctx.Request.Context(), util.IdentityFromContext(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}
