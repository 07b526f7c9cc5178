package repository

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"

	"gorm.io/gorm"
)

type TopicRepository struct {
	DB *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{DB: db}
}

func orderSubtopics(db *gorm.DB) *gorm.DB {
	return db.Order("subtopics.sort_order ASC, subtopics.created_at ASC")
}

func (r *TopicRepository) List(ctx context.Context) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.DB.WithContext(ctx).
		Preload("Subtopics", orderSubtopics).
		Order("sort_order ASC, created_at ASC").
		Find(&topics).Error
	return topics, err
}

func (r *TopicRepository) FindByID(ctx context.Context, id string) (*model.Topic, error) {
	var topic model.Topic
	err := r.DB.WithContext(ctx).
		Preload("Subtopics", orderSubtopics).
		First(&topic, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &topic, nil
}

func (r *TopicRepository) Create(ctx context.Context, topic *model.Topic) error {
	return r.DB.WithContext(ctx).Create(topic).Error
}

func (r *TopicRepository) Update(ctx context.Context, topic *model.Topic) error {
	return r.DB.WithContext(ctx).
		Model(&model.Topic{}).
		Where("id = ?", topic.ID).
		Updates(map[string]interface{}{
			"name":       topic.Name,
			"sort_order": topic.Order,
		}).Error
}

func (r *TopicRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&model.Topic{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrRecordNotFound
	}
	return nil
}

func (r *TopicRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Topic{}).Count(&n).Error
	return n, err
}

// CountQuestionsByTopic 全部主题的题目数
func (r *TopicRepository) CountQuestionsByTopic(ctx context.Context) (map[string]int64, error) {
	var rows []countRow
	err := r.DB.WithContext(ctx).
		Model(&model.Question{}).
		Select("topic_id AS group_key, COUNT(*) AS n").
		Group("topic_id").
		Scan(&rows).Error
	return toCountMap(rows), err
}

func (r *TopicRepository) CountQuestionsBySubtopic(ctx context.Context, topicID string) (map[string]int64, error) {
	var rows []countRow
	err := r.DB.WithContext(ctx).
		Model(&model.Question{}).
		Select("subtopic_id AS group_key, COUNT(*) AS n").
		Where("topic_id = ?", topicID).
		Group("subtopic_id").
		Scan(&rows).Error
	return toCountMap(rows), err
}

func (r *TopicRepository) FindSubtopic(ctx context.Context, id string) (*model.Subtopic, error) {
	var subtopic model.Subtopic
	if err := r.DB.WithContext(ctx).First(&subtopic, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &subtopic, nil
}

func (r *TopicRepository) ListSubtopics(ctx context.Context, topicID string) ([]model.Subtopic, error) {
	var subtopics []model.Subtopic
	err := orderSubtopics(r.DB.WithContext(ctx)).
		Where("topic_id = ?", topicID).
		Find(&subtopics).Error
	return subtopics, err
}

func (r *TopicRepository) CreateSubtopic(ctx context.Context, subtopic *model.Subtopic) error {
	return r.DB.WithContext(ctx).Create(subtopic).Error
}

func (r *TopicRepository) UpdateSubtopic(ctx context.Context, subtopic *model.Subtopic) error {
	return r.DB.WithContext(ctx).
		Model(&model.Subtopic{}).
		Where("id = ? AND topic_id = ?", subtopic.ID, subtopic.TopicID).
		Updates(map[string]interface{}{
			"name":       subtopic.Name,
			"sort_order": subtopic.Order,
		}).Error
}

func (r *TopicRepository) DeleteSubtopic(ctx context.Context, topicID, subtopicID string) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND topic_id = ?", subtopicID, topicID).
		Delete(&model.Subtopic{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrRecordNotFound
	}
	return nil
}
