package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"classroom_backend/pkg/logger"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TopicService 主题与子主题是全局目录，任何教师都可维护
type TopicService struct {
	Topics  TopicStore
	Classes ClassStore
	Cache   CatalogCache
}

func NewTopicService(topics TopicStore, classes ClassStore, cache CatalogCache) *TopicService {
	return &TopicService{
		Topics:  topics,
		Classes: classes,
		Cache:   cacheOrNoop(cache),
	}
}

type TopicInput struct {
	Name  *string `json:"name"`
	Order *int    `json:"order"`
}

// invalidate 主题结构变化后清掉引用它的班级目录缓存
func (s *TopicService) invalidate(ctx context.Context, topicID string) {
	ids, err := s.Classes.ClassIDsForTopic(ctx, topicID)
	if err != nil {
		logger.Log.Warn("lookup classes for topic failed", zap.String("topic_id", topicID), zap.Error(err))
		return
	}
	s.Cache.Invalidate(ctx, ids...)
}

func (s *TopicService) ListTopics(ctx context.Context) ([]model.TopicSummary, error) {
	topics, err := s.Topics.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	counts, err := s.Topics.CountQuestionsByTopic(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	out := make([]model.TopicSummary, 0, len(topics))
	for _, t := range topics {
		out = append(out, model.TopicSummary{Topic: t, QuestionCount: counts[t.ID]})
	}
	return out, nil
}

func (s *TopicService) CreateTopic(ctx context.Context, who model.Identity, in TopicInput) (*model.Topic, error) {
	teacher, err := requireTeacher(who)
	if err != nil {
		return nil, err
	}
	name := trimPtr(in.Name)
	if name == nil {
		return nil, util.BadRequestError("topic name required")
	}
	topic := &model.Topic{Name: *name, CreatedByID: &teacher.TeacherID}
	if in.Order != nil {
		topic.Order = *in.Order
	}
	if err := s.Topics.Create(ctx, topic); err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	return topic, nil
}

func (s *TopicService) UpdateTopic(ctx context.Context, who model.Identity, topicID string, in TopicInput) (*model.Topic, error) {
	if _, err := requireTeacher(who); err != nil {
		return nil, err
	}
	topic, err := s.Topics.FindByID(ctx, topicID)
	if err != nil {
		return nil, storeError(err, "topic not found")
	}
	if name := trimPtr(in.Name); name != nil {
		topic.Name = *name
	}
	if in.Order != nil {
		topic.Order = *in.Order
	}
	if err := s.Topics.Update(ctx, topic); err != nil {
		return nil, fmt.Errorf("update topic: %w", err)
	}
	s.invalidate(ctx, topic.ID)
	return topic, nil
}

func (s *TopicService) DeleteTopic(ctx context.Context, who model.Identity, topicID string) error {
	if _, err := requireTeacher(who); err != nil {
		return err
	}
	// 删除前取出受影响的班级，删除后关联记录已级联消失
	ids, err := s.Classes.ClassIDsForTopic(ctx, topicID)
	if err != nil {
		return fmt.Errorf("lookup classes: %w", err)
	}
	if err := s.Topics.Delete(ctx, topicID); err != nil {
		return storeError(err, "topic not found")
	}
	s.Cache.Invalidate(ctx, ids...)
	return nil
}

func (s *TopicService) ListSubtopics(ctx context.Context, topicID string) ([]model.SubtopicSummary, error) {
	if _, err := s.Topics.FindByID(ctx, topicID); err != nil {
		return nil, storeError(err, "topic not found")
	}
	subtopics, err := s.Topics.ListSubtopics(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list subtopics: %w", err)
	}
	counts, err := s.Topics.CountQuestionsBySubtopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	out := make([]model.SubtopicSummary, 0, len(subtopics))
	for _, st := range subtopics {
		out = append(out, model.SubtopicSummary{Subtopic: st, QuestionCount: counts[st.ID]})
	}
	return out, nil
}

func (s *TopicService) CreateSubtopic(ctx context.Context, who model.Identity, topicID string, in TopicInput) (*model.Subtopic, error) {
	teacher, err := requireTeacher(who)
	if err != nil {
		return nil, err
	}
	name := trimPtr(in.Name)
	if name == nil {
		return nil, util.BadRequestError("subtopic name required")
	}
	if _, err := s.Topics.FindByID(ctx, topicID); err != nil {
		return nil, storeError(err, "topic not found")
	}
	subtopic := &model.Subtopic{Name: *name, TopicID: topicID, CreatedByID: &teacher.TeacherID}
	if in.Order != nil {
		subtopic.Order = *in.Order
	}
	if err := s.Topics.CreateSubtopic(ctx, subtopic); err != nil {
		return nil, fmt.Errorf("create subtopic: %w", err)
	}
	s.invalidate(ctx, topicID)
	return subtopic, nil
}

func (s *TopicService) UpdateSubtopic(ctx context.Context, who model.Identity, topicID, subtopicID string, in TopicInput) (*model.Subtopic, error) {
	if _, err := requireTeacher(who); err != nil {
		return nil, err
	}
	subtopic, err := s.Topics.FindSubtopic(ctx, subtopicID)
	if err != nil {
		return nil, storeError(err, "subtopic not found")
	}
	if subtopic.TopicID != topicID {
		return nil, util.NotFoundError("subtopic not found")
	}
	if name := trimPtr(in.Name); name != nil {
		subtopic.Name = *name
	}
	if in.Order != nil {
		subtopic.Order = *in.Order
	}
	if err := s.Topics.UpdateSubtopic(ctx, subtopic); err != nil {
		return nil, fmt.Errorf("update subtopic: %w", err)
	}
	s.invalidate(ctx, topicID)
	return subtopic, nil
}

func (s *TopicService) DeleteSubtopic(ctx context.Context, who model.Identity, topicID, subtopicID string) error {
	if _, err := requireTeacher(who); err != nil {
		return err
	}
	if err := s.Topics.DeleteSubtopic(ctx, topicID, subtopicID); err != nil {
		return storeError(err, "subtopic not found")
	}
	s.invalidate(ctx, topicID)
	return nil
}
