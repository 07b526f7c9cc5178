package controller

import (
	"bytes"
	"classroom_backend/internal/config"
	"classroom_backend/internal/middleware"
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository/inmem"
	"classroom_backend/internal/service"
	"classroom_backend/internal/util"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Kind    util.ErrorKind  `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *inmem.DB
	cfg    *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, util.RegisterValidators())

	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "controller-secret", ExpireTime: time.Hour},
		Auth: config.AuthConfig{TeacherSignupToken: "staff-only", BcryptCost: bcrypt.MinCost},
		App:  config.AppConfig{PublicURL: "http://localhost:5173"},
	}

	db := inmem.NewDB()
	users := inmem.NewUserRepository(db)
	classes := inmem.NewClassRepository(db)
	enrollments := inmem.NewEnrollmentRepository(db)
	invitations := inmem.NewInvitationRepository(db)
	topics := inmem.NewTopicRepository(db)
	questions := inmem.NewQuestionRepository(db)
	attempts := inmem.NewQuizRepository(db)
	progress := inmem.NewProgressRepository(db)

	authService := service.NewAuthService(users, cfg)
	enrollmentService := service.NewEnrollmentService(enrollments, classes, progress, nil)
	authCtrl := NewAuthController(authService)
	invitationCtrl := NewInvitationController(service.NewInvitationService(invitations, classes, users, authService, cfg))
	classCtrl := NewClassController(service.NewClassService(classes, topics, enrollments, nil), enrollmentService)
	topicCtrl := NewTopicController(service.NewTopicService(topics, classes, nil))
	questionCtrl := NewQuestionController(service.NewQuestionService(questions, topics))
	quizCtrl := NewQuizController(service.NewQuizService(attempts, enrollments, classes, topics, questions))
	dashboardCtrl := NewDashboardController(service.NewDashboardService(classes, topics, questions, enrollments, progress))

	router := gin.New()
	public := router.Group("/api")
	public.POST("/auth/register", authCtrl.Register)
	public.POST("/auth/login", authCtrl.Login)
	public.GET("/invitations/:token", middleware.TryAuthMiddleware(cfg), invitationCtrl.Validate)
	public.POST("/invitations/:token", middleware.TryAuthMiddleware(cfg), invitationCtrl.Consume)

	teacherOnly := middleware.RoleMiddleware(model.RoleTeacher)
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	api.GET("/dashboard", dashboardCtrl.GetDashboard)
	api.POST("/invitations", invitationCtrl.Create)
	api.GET("/classes", classCtrl.List)
	api.POST("/classes", classCtrl.Create)
	api.GET("/classes/:id", classCtrl.Get)
	api.POST("/classes/:id/topics", classCtrl.AssignTopic)
	api.PATCH("/classes/:id/topics", classCtrl.PublishTopic)
	api.GET("/classes/:id/students", classCtrl.Roster)
	api.GET("/classes/:id/modules", classCtrl.Modules)
	api.GET("/topics", topicCtrl.List)
	api.POST("/topics", teacherOnly, topicCtrl.Create)
	api.POST("/topics/:id/subtopics", teacherOnly, topicCtrl.CreateSubtopic)
	api.GET("/questions", teacherOnly, questionCtrl.List)
	api.POST("/questions", teacherOnly, questionCtrl.Create)
	api.POST("/quiz", quizCtrl.Start)
	api.PATCH("/quiz", quizCtrl.Submit)
	api.GET("/quiz/:attemptId", quizCtrl.Review)

	return &testServer{t: t, router: router, db: db, cfg: cfg}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(s.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

// expect 断言状态码并把 data 解到 out
func (s *testServer) expect(status int, out interface{}, method, path, token string, body interface{}) {
	s.t.Helper()
	code, resp := s.do(method, path, token, body)
	require.Equal(s.t, status, code, "%s %s: %s", method, path, resp.Message)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(resp.Data, out))
	}
}

func (s *testServer) studentToken(username string) string {
	s.t.Helper()
	user := &model.User{Email: username + "@school.test", Username: username, FirstName: "Sam", LastName: username}
	student := s.db.CreateStudent(user)
	require.NotNil(s.t, student)
	token, err := util.TokenForIdentity(model.StudentIdentity{UserID: user.ID, StudentID: student.ID}, s.cfg.JWT.Secret, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) teacherToken(username string) string {
	s.t.Helper()
	s.expect(http.StatusCreated, nil, http.MethodPost, "/api/auth/register", "", gin.H{
		"firstName":    "Ada",
		"lastName":     "Lovelace",
		"username":     username,
		"email":        username + "@school.test",
		"password":     "engine-notes",
		"teacherToken": "staff-only",
	})
	var login service.LoginResult
	s.expect(http.StatusOK, &login, http.MethodPost, "/api/auth/login", "", gin.H{
		"login":    username,
		"password": "engine-notes",
	})
	require.NotEmpty(s.t, login.Token)
	return login.Token
}

type createdID struct {
	ID string `json:"id"`
}

func TestClassroomOverHTTP(t *testing.T) {
	s := newTestServer(t)
	teacher := s.teacherToken("ada")

	var class createdID
	s.expect(http.StatusCreated, &class, http.MethodPost, "/api/classes", teacher, gin.H{"name": "Physics101"})
	var topic createdID
	s.expect(http.StatusCreated, &topic, http.MethodPost, "/api/topics", teacher, gin.H{"name": "Thermo"})
	var subtopic createdID
	s.expect(http.StatusCreated, &subtopic, http.MethodPost, "/api/topics/"+topic.ID+"/subtopics", teacher, gin.H{"name": "Melting"})

	var questions []model.Question
	for _, text := range []string{"Ice melts at?", "Water boils at?"} {
		var q model.Question
		s.expect(http.StatusCreated, &q, http.MethodPost, "/api/questions", teacher, gin.H{
			"text":            text,
			"topicId":         topic.ID,
			"subtopicId":      subtopic.ID,
			"difficultyLevel": "INTERMEDIATE",
			"options": []gin.H{
				{"text": "right", "isCorrect": true},
				{"text": "wrong"},
			},
		})
		questions = append(questions, q)
	}

	s.expect(http.StatusCreated, nil, http.MethodPost, "/api/classes/"+class.ID+"/topics", teacher, gin.H{"topicId": topic.ID})
	s.expect(http.StatusOK, nil, http.MethodPatch, "/api/classes/"+class.ID+"/topics", teacher, gin.H{"topicId": topic.ID, "published": true})

	var inv service.CreatedInvitation
	s.expect(http.StatusCreated, &inv, http.MethodPost, "/api/invitations", teacher, gin.H{"classId": class.ID, "maxUses": 5})
	assert.Equal(t, "http://localhost:5173/invite/"+inv.Token, inv.URL)

	var preview service.InvitationPreview
	s.expect(http.StatusOK, &preview, http.MethodGet, "/api/invitations/"+inv.Token, "", nil)
	assert.Equal(t, "Physics101", preview.ClassName)
	assert.Equal(t, "Ada Lovelace", preview.TeacherName)

	// 游客注册并加入
	var joined service.ConsumeResult
	s.expect(http.StatusOK, &joined, http.MethodPost, "/api/invitations/"+inv.Token, "", gin.H{
		"firstName": "Grace",
		"lastName":  "Hopper",
		"username":  "grace",
		"email":     "grace@school.test",
		"password":  "compiler",
	})
	require.NotEmpty(t, joined.Token)
	student := joined.Token

	var modules []service.ModuleWithProgress
	s.expect(http.StatusOK, &modules, http.MethodGet, "/api/classes/"+class.ID+"/modules", student, nil)
	require.Len(t, modules, 1)
	assert.Equal(t, model.StatusNotStarted, modules[0].Status)

	var started service.StartedAttempt
	s.expect(http.StatusCreated, &started, http.MethodPost, "/api/quiz", student, gin.H{"classId": class.ID, "subtopicId": subtopic.ID})
	require.Len(t, started.Questions, 2)

	// 作答阶段不能下发正确答案
	_, raw := s.do(http.MethodPost, "/api/quiz", student, gin.H{"classId": class.ID, "subtopicId": subtopic.ID})
	assert.NotContains(t, string(raw.Data), "isCorrect")

	var result service.AttemptResult
	s.expect(http.StatusOK, &result, http.MethodPatch, "/api/quiz", student, gin.H{
		"attemptId": started.AttemptID,
		"answers": []gin.H{
			{"questionId": questions[0].ID, "selectedOptionId": questions[0].Options[0].ID},
			{"questionId": questions[1].ID, "selectedOptionId": questions[1].Options[1].ID},
		},
	})
	assert.Equal(t, 50.0, result.Score)

	code, resp := s.do(http.MethodPatch, "/api/quiz", student, gin.H{"attemptId": started.AttemptID, "answers": []gin.H{}})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, util.KindConflict, resp.Kind)

	var review service.AttemptResult
	s.expect(http.StatusOK, &review, http.MethodGet, "/api/quiz/"+started.AttemptID, student, nil)
	assert.Equal(t, 50.0, review.Score)
	assert.Len(t, review.Answers, 2)

	s.expect(http.StatusOK, &modules, http.MethodGet, "/api/classes/"+class.ID+"/modules", student, nil)
	assert.Equal(t, model.StatusCompleted, modules[0].Status)
	require.NotNil(t, modules[0].BestScore)
	assert.Equal(t, 50.0, *modules[0].BestScore)

	var roster []service.RosterEntry
	s.expect(http.StatusOK, &roster, http.MethodGet, "/api/classes/"+class.ID+"/students", teacher, nil)
	require.Len(t, roster, 1)
	assert.Equal(t, "grace", roster[0].Username)

	var dash service.StudentDashboard
	s.expect(http.StatusOK, &dash, http.MethodGet, "/api/dashboard", student, nil)
	assert.Equal(t, int64(1), dash.EnrolledClasses)
	assert.Equal(t, int64(1), dash.CompletedModules)
}

func TestInvitationErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	teacher := s.teacherToken("ada")

	var class createdID
	s.expect(http.StatusCreated, &class, http.MethodPost, "/api/classes", teacher, gin.H{"name": "Physics101"})
	var inv service.CreatedInvitation
	s.expect(http.StatusCreated, &inv, http.MethodPost, "/api/invitations", teacher, gin.H{"classId": class.ID, "maxUses": 1})

	code, resp := s.do(http.MethodGet, "/api/invitations/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, util.KindNotFound, resp.Kind)

	code, resp = s.do(http.MethodPost, "/api/invitations/"+inv.Token, "", nil)
	assert.Equal(t, http.StatusBadRequest, code, "anonymous without signup form")
	assert.Equal(t, util.KindBadRequest, resp.Kind)

	code, _ = s.do(http.MethodPost, "/api/invitations/"+inv.Token, teacher, nil)
	assert.Equal(t, http.StatusForbidden, code)

	s.expect(http.StatusOK, nil, http.MethodPost, "/api/invitations/"+inv.Token, s.studentToken("first"), nil)

	code, resp = s.do(http.MethodPost, "/api/invitations/"+inv.Token, s.studentToken("second"), nil)
	assert.Equal(t, http.StatusGone, code)
	assert.Equal(t, util.KindGone, resp.Kind)

	code, _ = s.do(http.MethodGet, "/api/invitations/"+inv.Token, "", nil)
	assert.Equal(t, http.StatusGone, code)

	code, _ = s.do(http.MethodPost, "/api/invitations", s.studentToken("third"), gin.H{"classId": class.ID})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthAndRolesOverHTTP(t *testing.T) {
	s := newTestServer(t)
	teacher := s.teacherToken("ada")
	student := s.studentToken("sam")

	code, _ := s.do(http.MethodGet, "/api/classes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodGet, "/api/classes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp := s.do(http.MethodGet, "/api/questions", student, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, util.KindForbidden, resp.Kind)
	code, _ = s.do(http.MethodPost, "/api/topics", student, gin.H{"name": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, code)

	// 学生可以浏览主题目录
	s.expect(http.StatusOK, nil, http.MethodGet, "/api/topics", student, nil)

	code, _ = s.do(http.MethodGet, "/api/questions?difficulty=EXPERT", teacher, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/api/questions", teacher, gin.H{"text": "x", "difficultyLevel": "EXPERT"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"login": "ada"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, resp = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"login": "ada", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, util.KindUnauthorized, resp.Kind)

	code, _ = s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"firstName":    "Eve",
		"lastName":     "Intruder",
		"username":     "eve",
		"email":        "eve@school.test",
		"password":     "long-enough",
		"teacherToken": "guess",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPatch, "/api/classes/whatever/topics", teacher, gin.H{"topicId": "t"})
	assert.Equal(t, http.StatusBadRequest, code, "published is required")

	var dash service.TeacherDashboard
	s.expect(http.StatusOK, &dash, http.MethodGet, "/api/dashboard", teacher, nil)
	assert.Equal(t, model.RoleTeacher, dash.Role)
}
