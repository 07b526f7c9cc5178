package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"context"
	"time"
)

// 以下接口由 internal/repository 中的 gorm 实现满足，测试中使用内存实现

type UserStore interface {
	LoginTaken(ctx context.Context, email, username string) (bool, bool, error)
	FindByLogin(ctx context.Context, login string) (*model.User, error)
	CreateTeacher(ctx context.Context, user *model.User) (*model.Teacher, error)
}

type ClassStore interface {
	Create(ctx context.Context, class *model.Class) error
	FindByID(ctx context.Context, id string) (*model.Class, error)
	Update(ctx context.Context, class *model.Class) error
	Delete(ctx context.Context, id string) error
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Class, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Class, error)
	CountEnrollments(ctx context.Context, classIDs []string) (map[string]int64, error)
	CountTopics(ctx context.Context, classIDs []string) (map[string]int64, error)
	CountByTeacher(ctx context.Context, teacherID string) (int64, error)
	ListClassTopics(ctx context.Context, classID string, publishedOnly bool) ([]model.ClassTopic, error)
	FindClassTopic(ctx context.Context, classID, topicID string) (*model.ClassTopic, error)
	AssignTopic(ctx context.Context, ct *model.ClassTopic) error
	SetTopicPublished(ctx context.Context, classID, topicID string, published bool) error
	RemoveTopic(ctx context.Context, classID, topicID string) error
	IsTopicPublished(ctx context.Context, classID, topicID string) (bool, error)
	ClassIDsForTopic(ctx context.Context, topicID string) ([]string, error)
	ListPublishedModules(ctx context.Context, classID string) ([]model.PublishedModule, error)
	CountPublishedModules(ctx context.Context, classIDs []string) (map[string]int64, error)
}

type EnrollmentStore interface {
	Enroll(ctx context.Context, classID, studentID string) (bool, error)
	IsEnrolled(ctx context.Context, classID, studentID string) (bool, error)
	ListRoster(ctx context.Context, classID string) ([]model.ClassEnrollment, error)
	CountByStudent(ctx context.Context, studentID string) (int64, error)
}

type InvitationStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	FindByToken(ctx context.Context, token string) (*model.Invitation, error)
	FindByID(ctx context.Context, id string) (*model.Invitation, error)
	ListByClass(ctx context.Context, classID string) ([]model.Invitation, error)
	Deactivate(ctx context.Context, id string) error
	Consume(ctx context.Context, req repository.ConsumeRequest) (*repository.ConsumeOutcome, error)
}

type TopicStore interface {
	List(ctx context.Context) ([]model.Topic, error)
	FindByID(ctx context.Context, id string) (*model.Topic, error)
	Create(ctx context.Context, topic *model.Topic) error
	Update(ctx context.Context, topic *model.Topic) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountQuestionsByTopic(ctx context.Context) (map[string]int64, error)
	CountQuestionsBySubtopic(ctx context.Context, topicID string) (map[string]int64, error)
	FindSubtopic(ctx context.Context, id string) (*model.Subtopic, error)
	ListSubtopics(ctx context.Context, topicID string) ([]model.Subtopic, error)
	CreateSubtopic(ctx context.Context, subtopic *model.Subtopic) error
	UpdateSubtopic(ctx context.Context, subtopic *model.Subtopic) error
	DeleteSubtopic(ctx context.Context, topicID, subtopicID string) error
}

type QuestionStore interface {
	List(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error)
	ListBySubtopic(ctx context.Context, subtopicID string) ([]model.Question, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Question, error)
	FindByID(ctx context.Context, id string) (*model.Question, error)
	Create(ctx context.Context, question *model.Question) error
	Update(ctx context.Context, question *model.Question, replaceOptions bool) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type AttemptStore interface {
	StartAttempt(ctx context.Context, attempt *model.QuizAttempt) error
	FindAttempt(ctx context.Context, id string) (*model.QuizAttempt, error)
	FinalizeAttempt(ctx context.Context, attempt *model.QuizAttempt, answers []model.QuizAnswer, score float64, completedAt time.Time) error
}

type ProgressStore interface {
	ListForClass(ctx context.Context, studentID, classID string) ([]model.ModuleProgress, error)
	CountCompletedByClass(ctx context.Context, studentID string) (map[string]int64, error)
}

// CatalogCache 允许为 nil 实现（*repository.CatalogCache 的 nil 指针即可）
type CatalogCache interface {
	Get(ctx context.Context, classID string) ([]model.PublishedModule, bool)
	Set(ctx context.Context, classID string, modules []model.PublishedModule)
	Invalidate(ctx context.Context, classIDs ...string)
}

var (
	_ UserStore       = (*repository.UserRepository)(nil)
	_ ClassStore      = (*repository.ClassRepository)(nil)
	_ EnrollmentStore = (*repository.EnrollmentRepository)(nil)
	_ InvitationStore = (*repository.InvitationRepository)(nil)
	_ TopicStore      = (*repository.TopicRepository)(nil)
	_ QuestionStore   = (*repository.QuestionRepository)(nil)
	_ AttemptStore    = (*repository.QuizRepository)(nil)
	_ ProgressStore   = (*repository.ProgressRepository)(nil)
	_ CatalogCache    = (*repository.CatalogCache)(nil)
)

type noCache struct{}

func (noCache) Get(context.Context, string) ([]model.PublishedModule, bool) { return nil, false }
func (noCache) Set(context.Context, string, []model.PublishedModule)        {}
func (noCache) Invalidate(context.Context, ...string)                       {}

func cacheOrNoop(cache CatalogCache) CatalogCache {
	if cache == nil {
		return noCache{}
	}
	return cache
}
