package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"strings"
)

type ClassService struct {
	Classes     ClassStore
	Topics      TopicStore
	Enrollments EnrollmentStore
	Cache       CatalogCache
}

func NewClassService(classes ClassStore, topics TopicStore, enrollments EnrollmentStore, cache CatalogCache) *ClassService {
	return &ClassService{
		Classes:     classes,
		Topics:      topics,
		Enrollments: enrollments,
		Cache:       cacheOrNoop(cache),
	}
}

type ClassInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type ClassDetail struct {
	model.ClassSummary
	Topics []model.ClassTopic `json:"topics"`
}

func (s *ClassService) ListForTeacher(ctx context.Context, who model.Identity) ([]model.ClassSummary, error) {
	teacher, err := requireTeacher(who)
	if err != nil {
		return nil, err
	}
	classes, err := s.Classes.ListByTeacher(ctx, teacher.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return summarize(ctx, s.Classes, classes)
}

func (s *ClassService) CreateClass(ctx context.Context, who model.Identity, in ClassInput) (*model.Class, error) {
	teacher, err := requireTeacher(who)
	if err != nil {
		return nil, err
	}
	name := trimPtr(in.Name)
	if name == nil {
		return nil, util.BadRequestError("class name is required")
	}
	class := &model.Class{
		Name:        *name,
		Description: trimPtr(in.Description),
		TeacherID:   teacher.TeacherID,
	}
	if err := s.Classes.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}
	return class, nil
}

// GetClass 班级所属教师或已选课学生可见；学生只能看到已发布的主题
func (s *ClassService) GetClass(ctx context.Context, who model.Identity, classID string) (*ClassDetail, error) {
	class, err := s.Classes.FindByID(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found")
	}
	publishedOnly, err := s.canView(ctx, who, class)
	if err != nil {
		return nil, err
	}
	topics, err := s.Classes.ListClassTopics(ctx, classID, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("list class topics: %w", err)
	}
	summaries, err := summarize(ctx, s.Classes, []model.Class{*class})
	if err != nil {
		return nil, err
	}
	return &ClassDetail{ClassSummary: summaries[0], Topics: topics}, nil
}

func (s *ClassService) canView(ctx context.Context, who model.Identity, class *model.Class) (bool, error) {
	switch id := who.(type) {
	case model.TeacherIdentity:
		if id.TeacherID == class.TeacherID {
			return false, nil
		}
	case model.StudentIdentity:
		enrolled, err := s.Enrollments.IsEnrolled(ctx, class.ID, id.StudentID)
		if err != nil {
			return true, fmt.Errorf("check enrollment: %w", err)
		}
		if enrolled {
			return true, nil
		}
	case nil:
		return true, util.UnauthorizedError("login required")
	}
	return true, util.ForbiddenError("you do not have access to this class")
}

func (s *ClassService) UpdateClass(ctx context.Context, who model.Identity, classID string, in ClassInput) (*model.Class, error) {
	class, err := ownedClass(ctx, s.Classes, who, classID)
	if err != nil {
		return nil, err
	}
	if name := trimPtr(in.Name); name != nil {
		class.Name = *name
	}
	if in.Description != nil {
		class.Description = trimPtr(in.Description)
	}
	if err := s.Classes.Update(ctx, class); err != nil {
		return nil, fmt.Errorf("update class: %w", err)
	}
	return class, nil
}

func (s *ClassService) DeleteClass(ctx context.Context, who model.Identity, classID string) error {
	if _, err := ownedClass(ctx, s.Classes, who, classID); err != nil {
		return err
	}
	if err := s.Classes.Delete(ctx, classID); err != nil {
		return storeError(err, "class not found")
	}
	s.Cache.Invalidate(ctx, classID)
	return nil
}

func (s *ClassService) ListClassTopics(ctx context.Context, who model.Identity, classID string) ([]model.ClassTopic, error) {
	class, err := s.Classes.FindByID(ctx, classID)
	if err != nil {
		return nil, storeError(err, "class not found")
	}
	publishedOnly, err := s.canView(ctx, who, class)
	if err != nil {
		return nil, err
	}
	topics, err := s.Classes.ListClassTopics(ctx, classID, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("list class topics: %w", err)
	}
	return topics, nil
}

// AssignTopic 新分配的主题默认不发布
func (s *ClassService) AssignTopic(ctx context.Context, who model.Identity, classID, topicID string) (*model.ClassTopic, error) {
	if _, err := ownedClass(ctx, s.Classes, who, classID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(topicID) == "" {
		return nil, util.BadRequestError("topicId required")
	}
	topic, err := s.Topics.FindByID(ctx, topicID)
	if err != nil {
		return nil, storeError(err, "topic not found")
	}
	ct := &model.ClassTopic{ClassID: classID, TopicID: topicID, Published: false}
	if err := s.Classes.AssignTopic(ctx, ct); err != nil {
		if errors.Is(err, util.ErrAlreadyAssigned) {
			return nil, util.ConflictError("topic already assigned to this class")
		}
		return nil, fmt.Errorf("assign topic: %w", err)
	}
	ct.Topic = topic
	return ct, nil
}

func (s *ClassService) SetTopicPublished(ctx context.Context, who model.Identity, classID, topicID string, published bool) (*model.ClassTopic, error) {
	if _, err := ownedClass(ctx, s.Classes, who, classID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(topicID) == "" {
		return nil, util.BadRequestError("topicId required")
	}
	ct, err := s.Classes.FindClassTopic(ctx, classID, topicID)
	if err != nil {
		return nil, storeError(err, "topic is not assigned to this class")
	}
	if err := s.Classes.SetTopicPublished(ctx, classID, topicID, published); err != nil {
		return nil, fmt.Errorf("set published: %w", err)
	}
	s.Cache.Invalidate(ctx, classID)
	ct.Published = published
	return ct, nil
}

func (s *ClassService) RemoveTopic(ctx context.Context, who model.Identity, classID, topicID string) error {
	if _, err := ownedClass(ctx, s.Classes, who, classID); err != nil {
		return err
	}
	if err := s.Classes.RemoveTopic(ctx, classID, topicID); err != nil {
		return storeError(err, "topic is not assigned to this class")
	}
	s.Cache.Invalidate(ctx, classID)
	return nil
}
