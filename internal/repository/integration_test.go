package repository

import (
	"classroom_backend/internal/config"
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"classroom_backend/pkg/database"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB 设置了 CLASSROOM_TEST_DB_HOST 时连接外部 MySQL/PostgreSQL，
// 否则在临时目录里建一个 SQLite 库
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DBName: filepath.Join(t.TempDir(), "classroom.db"),
	}
	if host := os.Getenv("CLASSROOM_TEST_DB_HOST"); host != "" {
		port, _ := strconv.Atoi(os.Getenv("CLASSROOM_TEST_DB_PORT"))
		cfg = &config.DatabaseConfig{
			Driver:    os.Getenv("CLASSROOM_TEST_DB_DRIVER"),
			Host:      host,
			Port:      port,
			User:      os.Getenv("CLASSROOM_TEST_DB_USER"),
			Password:  os.Getenv("CLASSROOM_TEST_DB_PASSWORD"),
			DBName:    os.Getenv("CLASSROOM_TEST_DB_NAME"),
			Charset:   "utf8mb4",
			ParseTime: true,
			SSLMode:   "disable",
		}
	}
	db, err := database.InitDB(cfg, true)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type seed struct {
	teacher  *model.Teacher
	class    *model.Class
	subtopic *model.Subtopic
	question *model.Question
}

func seedClass(t *testing.T, db *gorm.DB) seed {
	t.Helper()
	ctx := context.Background()
	tag := uuid.NewString()[:8]

	teacher, err := NewUserRepository(db).CreateTeacher(ctx, &model.User{
		Email:        "t-" + tag + "@school.test",
		Username:     "t-" + tag,
		PasswordHash: "x",
		FirstName:    "Ada",
		LastName:     "Teacher",
	})
	require.NoError(t, err)

	class := &model.Class{Name: "Physics " + tag, TeacherID: teacher.ID}
	require.NoError(t, NewClassRepository(db).Create(ctx, class))

	topics := NewTopicRepository(db)
	topic := &model.Topic{Name: "Thermo " + tag}
	require.NoError(t, topics.Create(ctx, topic))
	subtopic := &model.Subtopic{Name: "Melting", TopicID: topic.ID}
	require.NoError(t, topics.CreateSubtopic(ctx, subtopic))

	question := &model.Question{
		Text:            "Ice melts at?",
		TopicID:         topic.ID,
		SubtopicID:      subtopic.ID,
		DifficultyLevel: model.DifficultyBeginner,
		Options: []model.Option{
			{Text: "0", IsCorrect: true},
			{Text: "100", Position: 1},
		},
	}
	require.NoError(t, NewQuestionRepository(db).Create(ctx, question))

	t.Cleanup(func() {
		_ = NewClassRepository(db).Delete(ctx, class.ID)
		_ = topics.Delete(ctx, topic.ID)
	})
	return seed{teacher: teacher, class: class, subtopic: subtopic, question: question}
}

func TestConsumeRespectsMaxUsesUnderConcurrency(t *testing.T) {
	db := openTestDB(t)
	s := seedClass(t, db)
	ctx := context.Background()
	invitations := NewInvitationRepository(db)

	maxUses := 3
	inv := &model.Invitation{Token: uuid.NewString(), ClassID: s.class.ID, MaxUses: &maxUses, Active: true}
	require.NoError(t, invitations.Create(ctx, inv))

	const workers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		usedUp int
		other  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag := fmt.Sprintf("%s-%d", inv.Token[:8], i)
			_, err := invitations.Consume(ctx, ConsumeRequest{
				InvitationID: inv.ID,
				ClassID:      s.class.ID,
				NewStudent: &model.User{
					Email:        "s-" + tag + "@school.test",
					Username:     "s-" + tag,
					PasswordHash: "x",
					FirstName:    "Sam",
					LastName:     "Student",
				},
				Now: time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, util.ErrInvitationUsedUp):
				usedUp++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, maxUses, ok)
	assert.Equal(t, workers-maxUses, usedUp)

	stored, err := invitations.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, maxUses, stored.UsedCount)

	roster, err := NewEnrollmentRepository(db).ListRoster(ctx, s.class.ID)
	require.NoError(t, err)
	assert.Len(t, roster, maxUses, "rolled back signups leave no enrollment")
}

func TestFinalizeAttemptOnceAndKeepBestScore(t *testing.T) {
	db := openTestDB(t)
	s := seedClass(t, db)
	ctx := context.Background()
	quiz := NewQuizRepository(db)
	progress := NewProgressRepository(db)

	invitations := NewInvitationRepository(db)
	inv := &model.Invitation{Token: uuid.NewString(), ClassID: s.class.ID, Active: true}
	require.NoError(t, invitations.Create(ctx, inv))
	tag := inv.Token[:8]
	out, err := invitations.Consume(ctx, ConsumeRequest{
		InvitationID: inv.ID,
		ClassID:      s.class.ID,
		NewStudent: &model.User{
			Email:        "s-" + tag + "@school.test",
			Username:     "s-" + tag,
			PasswordHash: "x",
			FirstName:    "Sam",
			LastName:     "Student",
		},
		Now: time.Now(),
	})
	require.NoError(t, err)
	require.True(t, out.Enrolled)
	studentID := out.StudentID

	run := func(score float64) error {
		attempt := &model.QuizAttempt{StudentID: studentID, ClassID: s.class.ID, SubtopicID: s.subtopic.ID}
		require.NoError(t, quiz.StartAttempt(ctx, attempt))
		answers := []model.QuizAnswer{{QuestionID: s.question.ID, IsCorrect: score > 0}}
		return quiz.FinalizeAttempt(ctx, attempt, answers, score, time.Now())
	}

	require.NoError(t, run(100))
	require.NoError(t, run(0))

	p, err := progress.Find(ctx, studentID, s.class.ID, s.subtopic.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, p.Status)
	require.NotNil(t, p.BestScore)
	assert.Equal(t, 100.0, *p.BestScore)

	attempt := &model.QuizAttempt{StudentID: studentID, ClassID: s.class.ID, SubtopicID: s.subtopic.ID}
	require.NoError(t, quiz.StartAttempt(ctx, attempt))
	p, err = progress.Find(ctx, studentID, s.class.ID, s.subtopic.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, p.Status, "restarting a completed module keeps it completed")

	require.NoError(t, quiz.FinalizeAttempt(ctx, attempt, nil, 50, time.Now()))
	err = quiz.FinalizeAttempt(ctx, attempt, nil, 100, time.Now())
	assert.ErrorIs(t, err, util.ErrAttemptFinalized)

	p, err = progress.Find(ctx, studentID, s.class.ID, s.subtopic.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, *p.BestScore)
}

func newSignup(tag string) *model.User {
	return &model.User{
		Email:        "s-" + tag + "@school.test",
		Username:     "s-" + tag,
		PasswordHash: "x",
		FirstName:    "Sam",
		LastName:     "Student",
	}
}

func newStudent(t *testing.T, db *gorm.DB) *model.Student {
	t.Helper()
	student, err := createStudentAccount(db, newSignup(uuid.NewString()[:8]))
	require.NoError(t, err)
	return student
}

func TestConsumeCountsRejoinsOnlyWhenConfigured(t *testing.T) {
	db := openTestDB(t)
	s := seedClass(t, db)
	ctx := context.Background()
	invitations := NewInvitationRepository(db)

	inv := &model.Invitation{Token: uuid.NewString(), ClassID: s.class.ID, Active: true}
	require.NoError(t, invitations.Create(ctx, inv))

	out, err := invitations.Consume(ctx, ConsumeRequest{
		InvitationID: inv.ID,
		ClassID:      s.class.ID,
		NewStudent:   newSignup(inv.Token[:8]),
		Now:          time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, out.Enrolled)

	rejoin := ConsumeRequest{InvitationID: inv.ID, ClassID: s.class.ID, StudentID: out.StudentID, Now: time.Now()}
	again, err := invitations.Consume(ctx, rejoin)
	require.NoError(t, err)
	assert.False(t, again.Enrolled)
	stored, err := invitations.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)

	rejoin.CountRejoins = true
	again, err = invitations.Consume(ctx, rejoin)
	require.NoError(t, err)
	assert.False(t, again.Enrolled)
	stored, err = invitations.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.UsedCount)

	roster, err := NewEnrollmentRepository(db).ListRoster(ctx, s.class.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestConsumeUnusableInvitationRollsBackSignup(t *testing.T) {
	db := openTestDB(t)
	s := seedClass(t, db)
	ctx := context.Background()
	invitations := NewInvitationRepository(db)
	users := NewUserRepository(db)

	expired := time.Now().Add(-time.Hour)
	inv := &model.Invitation{Token: uuid.NewString(), ClassID: s.class.ID, ExpiresAt: &expired, Active: true}
	require.NoError(t, invitations.Create(ctx, inv))

	signup := newSignup(inv.Token[:8])
	_, err := invitations.Consume(ctx, ConsumeRequest{
		InvitationID: inv.ID,
		ClassID:      s.class.ID,
		NewStudent:   signup,
		Now:          time.Now(),
	})
	assert.ErrorIs(t, err, util.ErrInvitationUsedUp)

	_, err = users.FindByLogin(ctx, signup.Email)
	assert.ErrorIs(t, err, util.ErrRecordNotFound, "account creation is rolled back")

	// 停用的邀请对已有学生同样不可用
	live := &model.Invitation{Token: uuid.NewString(), ClassID: s.class.ID, Active: true}
	require.NoError(t, invitations.Create(ctx, live))
	require.NoError(t, invitations.Deactivate(ctx, live.ID))
	student := newStudent(t, db)
	_, err = invitations.Consume(ctx, ConsumeRequest{
		InvitationID: live.ID,
		ClassID:      s.class.ID,
		StudentID:    student.ID,
		Now:          time.Now(),
	})
	assert.ErrorIs(t, err, util.ErrInvitationUsedUp)

	roster, err := NewEnrollmentRepository(db).ListRoster(ctx, s.class.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
}

func TestEnrollIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	s := seedClass(t, db)
	ctx := context.Background()
	enrollments := NewEnrollmentRepository(db)
	student := newStudent(t, db)

	created, err := enrollments.Enroll(ctx, s.class.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = enrollments.Enroll(ctx, s.class.ID, student.ID)
	require.NoError(t, err)
	assert.False(t, created)

	roster, err := enrollments.ListRoster(ctx, s.class.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
	ok, err := enrollments.IsEnrolled(ctx, s.class.ID, student.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteClassCascadesToDependents(t *testing.T) {
	db := openTestDB(t)
	s := seedClass(t, db)
	ctx := context.Background()
	classes := NewClassRepository(db)
	quiz := NewQuizRepository(db)

	require.NoError(t, classes.AssignTopic(ctx, &model.ClassTopic{ClassID: s.class.ID, TopicID: s.subtopic.TopicID, Published: true}))
	require.NoError(t, NewInvitationRepository(db).Create(ctx, &model.Invitation{Token: uuid.NewString(), ClassID: s.class.ID, Active: true}))
	student := newStudent(t, db)
	_, err := NewEnrollmentRepository(db).Enroll(ctx, s.class.ID, student.ID)
	require.NoError(t, err)
	attempt := &model.QuizAttempt{StudentID: student.ID, ClassID: s.class.ID, SubtopicID: s.subtopic.ID}
	require.NoError(t, quiz.StartAttempt(ctx, attempt))
	require.NoError(t, quiz.FinalizeAttempt(ctx, attempt,
		[]model.QuizAnswer{{QuestionID: s.question.ID, IsCorrect: true}}, 100, time.Now()))

	require.NoError(t, classes.Delete(ctx, s.class.ID))
	assert.ErrorIs(t, classes.Delete(ctx, s.class.ID), util.ErrRecordNotFound)

	for _, dependent := range []interface{}{
		&model.ClassTopic{},
		&model.Invitation{},
		&model.ClassEnrollment{},
		&model.QuizAttempt{},
		&model.ModuleProgress{},
	} {
		var n int64
		require.NoError(t, db.Model(dependent).Where("class_id = ?", s.class.ID).Count(&n).Error)
		assert.Zero(t, n, "%T rows left after class delete", dependent)
	}
	var answers int64
	require.NoError(t, db.Model(&model.QuizAnswer{}).Where("quiz_attempt_id = ?", attempt.ID).Count(&answers).Error)
	assert.Zero(t, answers)
}

func TestCountCompletedByClassFollowsPublication(t *testing.T) {
	db := openTestDB(t)
	s := seedClass(t, db)
	ctx := context.Background()
	classes := NewClassRepository(db)
	quiz := NewQuizRepository(db)
	progress := NewProgressRepository(db)

	require.NoError(t, classes.AssignTopic(ctx, &model.ClassTopic{ClassID: s.class.ID, TopicID: s.subtopic.TopicID}))
	student := newStudent(t, db)
	_, err := NewEnrollmentRepository(db).Enroll(ctx, s.class.ID, student.ID)
	require.NoError(t, err)
	attempt := &model.QuizAttempt{StudentID: student.ID, ClassID: s.class.ID, SubtopicID: s.subtopic.ID}
	require.NoError(t, quiz.StartAttempt(ctx, attempt))
	require.NoError(t, quiz.FinalizeAttempt(ctx, attempt, nil, 100, time.Now()))

	counts, err := progress.CountCompletedByClass(ctx, student.ID)
	require.NoError(t, err)
	assert.Zero(t, counts[s.class.ID], "unpublished modules are not counted")

	require.NoError(t, classes.SetTopicPublished(ctx, s.class.ID, s.subtopic.TopicID, true))
	counts, err = progress.CountCompletedByClass(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[s.class.ID])

	published, err := classes.CountPublishedModules(ctx, []string{s.class.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), published[s.class.ID])

	require.NoError(t, classes.SetTopicPublished(ctx, s.class.ID, s.subtopic.TopicID, false))
	counts, err = progress.CountCompletedByClass(ctx, student.ID)
	require.NoError(t, err)
	assert.Zero(t, counts[s.class.ID])
}
