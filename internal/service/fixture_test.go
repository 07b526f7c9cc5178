package service

import (
	"classroom_backend/internal/config"
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository/inmem"
	"classroom_backend/internal/util"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var (
	_ UserStore       = (*inmem.UserRepository)(nil)
	_ ClassStore      = (*inmem.ClassRepository)(nil)
	_ EnrollmentStore = (*inmem.EnrollmentRepository)(nil)
	_ InvitationStore = (*inmem.InvitationRepository)(nil)
	_ TopicStore      = (*inmem.TopicRepository)(nil)
	_ QuestionStore   = (*inmem.QuestionRepository)(nil)
	_ AttemptStore    = (*inmem.QuizRepository)(nil)
	_ ProgressStore   = (*inmem.ProgressRepository)(nil)
)

type fixture struct {
	ctx context.Context
	db  *inmem.DB
	cfg *config.Config

	users       *inmem.UserRepository
	invitations *inmem.InvitationRepository
	progress    *inmem.ProgressRepository

	auth       *AuthService
	invitation *InvitationService
	enrollment *EnrollmentService
	class      *ClassService
	topic      *TopicService
	question   *QuestionService
	quiz       *QuizService
	dashboard  *DashboardService

	seq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
		Auth: config.AuthConfig{TeacherSignupToken: "let-me-teach", BcryptCost: bcrypt.MinCost},
		App:  config.AppConfig{PublicURL: "https://classroom.test/"},
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

	f := &fixture{
		ctx:         context.Background(),
		db:          db,
		cfg:         cfg,
		users:       users,
		invitations: invitations,
		progress:    progress,
	}
	f.auth = NewAuthService(users, cfg)
	f.invitation = NewInvitationService(invitations, classes, users, f.auth, cfg)
	f.enrollment = NewEnrollmentService(enrollments, classes, progress, nil)
	f.class = NewClassService(classes, topics, enrollments, nil)
	f.topic = NewTopicService(topics, classes, nil)
	f.question = NewQuestionService(questions, topics)
	f.quiz = NewQuizService(attempts, enrollments, classes, topics, questions)
	f.dashboard = NewDashboardService(classes, topics, questions, enrollments, progress)
	return f
}

func (f *fixture) next() int {
	f.seq++
	return f.seq
}

func (f *fixture) newTeacher(t *testing.T) model.TeacherIdentity {
	t.Helper()
	n := f.next()
	user := &model.User{
		Email:     fmt.Sprintf("teacher%d@school.test", n),
		Username:  fmt.Sprintf("teacher%d", n),
		FirstName: "Ada",
		LastName:  fmt.Sprintf("Teacher%d", n),
	}
	teacher, err := f.users.CreateTeacher(f.ctx, user)
	require.NoError(t, err)
	return model.TeacherIdentity{UserID: user.ID, TeacherID: teacher.ID}
}

func (f *fixture) newStudent(t *testing.T) model.StudentIdentity {
	t.Helper()
	n := f.next()
	user := &model.User{
		Email:     fmt.Sprintf("student%d@school.test", n),
		Username:  fmt.Sprintf("student%d", n),
		FirstName: "Sam",
		LastName:  fmt.Sprintf("Student%d", n),
	}
	student := f.db.CreateStudent(user)
	require.NotNil(t, student)
	return model.StudentIdentity{UserID: user.ID, StudentID: student.ID}
}

func (f *fixture) newClass(t *testing.T, who model.TeacherIdentity, name string) *model.Class {
	t.Helper()
	class, err := f.class.CreateClass(f.ctx, who, ClassInput{Name: &name})
	require.NoError(t, err)
	return class
}

func (f *fixture) enroll(t *testing.T, classID string, who model.StudentIdentity) {
	t.Helper()
	require.NoError(t, f.enrollment.Enroll(f.ctx, classID, who.StudentID))
}

type module struct {
	topic     *model.Topic
	subtopic  *model.Subtopic
	questions []*model.Question
}

// newModule 建一个主题和子主题，每题两个选项且第一个正确
func (f *fixture) newModule(t *testing.T, who model.TeacherIdentity, classID string, published bool, questions int) module {
	t.Helper()
	n := f.next()
	topicName := fmt.Sprintf("Topic %d", n)
	subName := fmt.Sprintf("Subtopic %d", n)

	topic, err := f.topic.CreateTopic(f.ctx, who, TopicInput{Name: &topicName})
	require.NoError(t, err)
	subtopic, err := f.topic.CreateSubtopic(f.ctx, who, topic.ID, TopicInput{Name: &subName})
	require.NoError(t, err)

	m := module{topic: topic, subtopic: subtopic}
	for i := 0; i < questions; i++ {
		q, err := f.question.CreateQuestion(f.ctx, who, QuestionInput{
			Text:       fmt.Sprintf("Question %d of %s", i+1, subName),
			TopicID:    topic.ID,
			SubtopicID: subtopic.ID,
			Options: []OptionInput{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			},
		})
		require.NoError(t, err)
		m.questions = append(m.questions, q)
	}

	if classID != "" {
		_, err := f.class.AssignTopic(f.ctx, who, classID, topic.ID)
		require.NoError(t, err)
		if published {
			_, err := f.class.SetTopicPublished(f.ctx, who, classID, topic.ID, true)
			require.NoError(t, err)
		}
	}
	return m
}

func correctOption(q *model.Question) *string {
	for _, o := range q.Options {
		if o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func wrongOption(q *model.Question) *string {
	for _, o := range q.Options {
		if !o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func assertKind(t *testing.T, err error, kind util.ErrorKind) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Equal(t, kind, util.KindOf(err), "unexpected error: %v", err)
	}
}

func intPtr(v int) *int {
	return &v
}
