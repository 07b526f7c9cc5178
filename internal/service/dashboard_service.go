package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"fmt"
)

type DashboardService struct {
	Classes     ClassStore
	Topics      TopicStore
	Questions   QuestionStore
	Enrollments EnrollmentStore
	Progress    ProgressStore
}

func NewDashboardService(classes ClassStore, topics TopicStore, questions QuestionStore, enrollments EnrollmentStore, progress ProgressStore) *DashboardService {
	return &DashboardService{
		Classes:     classes,
		Topics:      topics,
		Questions:   questions,
		Enrollments: enrollments,
		Progress:    progress,
	}
}

type TeacherDashboard struct {
	Role          model.UserRole       `json:"role"`
	ClassCount    int64                `json:"classCount"`
	TopicCount    int64                `json:"topicCount"`
	QuestionCount int64                `json:"questionCount"`
	RecentClasses []model.ClassSummary `json:"recentClasses"`
}

type StudentDashboard struct {
	Role             model.UserRole           `json:"role"`
	EnrolledClasses  int64                    `json:"enrolledClasses"`
	CompletedModules int64                    `json:"completedModules"`
	Classes          []model.ClassModuleCount `json:"classes"`
}

// Dashboard 按身份返回 *TeacherDashboard 或 *StudentDashboard
func (s *DashboardService) Dashboard(ctx context.Context, who model.Identity) (interface{}, error) {
	switch id := who.(type) {
	case model.TeacherIdentity:
		return s.teacherDashboard(ctx, id)
	case model.StudentIdentity:
		return s.studentDashboard(ctx, id)
	}
	return nil, util.UnauthorizedError("login required")
}

func (s *DashboardService) teacherDashboard(ctx context.Context, who model.TeacherIdentity) (*TeacherDashboard, error) {
	classCount, err := s.Classes.CountByTeacher(ctx, who.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("count classes: %w", err)
	}
	topicCount, err := s.Topics.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count topics: %w", err)
	}
	questionCount, err := s.Questions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	classes, err := s.Classes.ListByTeacher(ctx, who.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if len(classes) > util.RecentClassesLimit {
		classes = classes[:util.RecentClassesLimit]
	}
	recent, err := summarize(ctx, s.Classes, classes)
	if err != nil {
		return nil, err
	}
	return &TeacherDashboard{
		Role:          model.RoleTeacher,
		ClassCount:    classCount,
		TopicCount:    topicCount,
		QuestionCount: questionCount,
		RecentClasses: recent,
	}, nil
}

func (s *DashboardService) studentDashboard(ctx context.Context, who model.StudentIdentity) (*StudentDashboard, error) {
	enrolled, err := s.Enrollments.CountByStudent(ctx, who.StudentID)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	classes, err := s.Classes.ListByStudent(ctx, who.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	ids := make([]string, 0, len(classes))
	for _, c := range classes {
		ids = append(ids, c.ID)
	}
	modules, err := s.Classes.CountPublishedModules(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count modules: %w", err)
	}
	done, err := s.Progress.CountCompletedByClass(ctx, who.StudentID)
	if err != nil {
		return nil, fmt.Errorf("count progress: %w", err)
	}

	// 总数与各班级统计同口径：只计仍已发布的模块
	var completed int64
	perClass := make([]model.ClassModuleCount, 0, len(classes))
	for _, c := range classes {
		completed += done[c.ID]
		perClass = append(perClass, model.ClassModuleCount{
			ClassID:   c.ID,
			ClassName: c.Name,
			Modules:   modules[c.ID],
			Completed: done[c.ID],
		})
	}
	return &StudentDashboard{
		Role:             model.RoleStudent,
		EnrolledClasses:  enrolled,
		CompletedModules: completed,
		Classes:          perClass,
	}, nil
}
