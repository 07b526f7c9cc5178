package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"fmt"
	"time"
)

type EnrollmentService struct {
	Enrollments EnrollmentStore
	Classes     ClassStore
	Progress    ProgressStore
	Cache       CatalogCache
}

func NewEnrollmentService(enrollments EnrollmentStore, classes ClassStore, progress ProgressStore, cache CatalogCache) *EnrollmentService {
	return &EnrollmentService{
		Enrollments: enrollments,
		Classes:     classes,
		Progress:    progress,
		Cache:       cacheOrNoop(cache),
	}
}

type ModuleWithProgress struct {
	model.PublishedModule
	Status    model.ProgressStatus `json:"status"`
	BestScore *float64             `json:"bestScore"`
}

type RosterEntry struct {
	StudentID string    `json:"studentId"`
	UserID    string    `json:"userId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Enroll 重复选课视为成功
func (s *EnrollmentService) Enroll(ctx context.Context, classID, studentID string) error {
	if classID == "" || studentID == "" {
		return util.BadRequestError("classId and studentId required")
	}
	if _, err := s.Enrollments.Enroll(ctx, classID, studentID); err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func (s *EnrollmentService) requireEnrolled(ctx context.Context, who model.Identity, classID string) (model.StudentIdentity, error) {
	student, ok := who.(model.StudentIdentity)
	if !ok {
		return model.StudentIdentity{}, util.ForbiddenError("only enrolled students can view modules")
	}
	enrolled, err := s.Enrollments.IsEnrolled(ctx, classID, student.StudentID)
	if err != nil {
		return student, fmt.Errorf("check enrollment: %w", err)
	}
	if !enrolled {
		return student, util.ForbiddenError("not enrolled in this class")
	}
	return student, nil
}

func (s *EnrollmentService) publishedModules(ctx context.Context, classID string) ([]model.PublishedModule, error) {
	if modules, ok := s.Cache.Get(ctx, classID); ok {
		return modules, nil
	}
	modules, err := s.Classes.ListPublishedModules(ctx, classID)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, classID, modules)
	return modules, nil
}

// ListAccessibleModules 只返回已发布主题下的模块，没有进度记录的视为未开始
func (s *EnrollmentService) ListAccessibleModules(ctx context.Context, who model.Identity, classID string) ([]ModuleWithProgress, error) {
	student, err := s.requireEnrolled(ctx, who, classID)
	if err != nil {
		return nil, err
	}

	modules, err := s.publishedModules(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	progress, err := s.Progress.ListForClass(ctx, student.StudentID, classID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	bySubtopic := make(map[string]model.ModuleProgress, len(progress))
	for _, p := range progress {
		bySubtopic[p.SubtopicID] = p
	}

	out := make([]ModuleWithProgress, 0, len(modules))
	for _, m := range modules {
		entry := ModuleWithProgress{PublishedModule: m, Status: model.StatusNotStarted}
		if p, ok := bySubtopic[m.SubtopicID]; ok {
			entry.Status = p.Status
			entry.BestScore = p.BestScore
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *EnrollmentService) ListClassesForStudent(ctx context.Context, who model.Identity) ([]model.ClassSummary, error) {
	student, err := requireStudent(who)
	if err != nil {
		return nil, err
	}
	classes, err := s.Classes.ListByStudent(ctx, student.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return summarize(ctx, s.Classes, classes)
}

func (s *EnrollmentService) ListRoster(ctx context.Context, who model.Identity, classID string) ([]RosterEntry, error) {
	if _, err := ownedClass(ctx, s.Classes, who, classID); err != nil {
		return nil, err
	}
	enrollments, err := s.Enrollments.ListRoster(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	out := make([]RosterEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entry := RosterEntry{StudentID: e.StudentID, JoinedAt: e.JoinedAt}
		if e.Student != nil && e.Student.User != nil {
			u := e.Student.User
			entry.UserID = u.ID
			entry.FirstName = u.FirstName
			entry.LastName = u.LastName
			entry.Username = u.Username
			entry.Email = u.Email
		}
		out = append(out, entry)
	}
	return out, nil
}

// summarize 附加选课人数与主题数
func summarize(ctx context.Context, classes ClassStore, list []model.Class) ([]model.ClassSummary, error) {
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	enrollments, err := classes.CountEnrollments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	topics, err := classes.CountTopics(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count topics: %w", err)
	}

	out := make([]model.ClassSummary, 0, len(list))
	for _, c := range list {
		summary := model.ClassSummary{
			Class:           c,
			EnrollmentCount: enrollments[c.ID],
			TopicCount:      topics[c.ID],
		}
		if c.Teacher != nil && c.Teacher.User != nil {
			summary.TeacherName = c.Teacher.User.FullName()
		}
		out = append(out, summary)
	}
	return out, nil
}
