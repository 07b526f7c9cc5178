package inmem

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"sort"
)

type TopicRepository struct {
	db *DB
}

func NewTopicRepository(db *DB) *TopicRepository {
	return &TopicRepository{db: db}
}

func (r *TopicRepository) List(_ context.Context) ([]model.Topic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	topics := make([]model.Topic, 0, len(r.db.topics))
	for id := range r.db.topics {
		topics = append(topics, *r.db.topicCopy(id))
	}
	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Order != topics[j].Order {
			return topics[i].Order < topics[j].Order
		}
		return topics[i].CreatedAt.Before(topics[j].CreatedAt)
	})
	return topics, nil
}

func (r *TopicRepository) FindByID(_ context.Context, id string) (*model.Topic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	topic := r.db.topicCopy(id)
	if topic == nil {
		return nil, util.ErrRecordNotFound
	}
	return topic, nil
}

func (r *TopicRepository) Create(_ context.Context, topic *model.Topic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.initBase(&topic.UUIDBase)
	stored := *topic
	stored.Subtopics, stored.Questions, stored.Classes = nil, nil, nil
	r.db.topics[topic.ID] = &stored
	return nil
}

func (r *TopicRepository) Update(_ context.Context, topic *model.Topic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if t, ok := r.db.topics[topic.ID]; ok {
		t.Name = topic.Name
		t.Order = topic.Order
		t.UpdatedAt = r.db.stamp()
	}
	return nil
}

// Delete 级联删除子主题、题目和班级关联
func (r *TopicRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.topics[id]; !ok {
		return util.ErrRecordNotFound
	}
	delete(r.db.topics, id)
	for stID, st := range r.db.subtopics {
		if st.TopicID == id {
			r.db.deleteSubtopicLocked(stID)
		}
	}
	classTopics := r.db.classTopics[:0]
	for _, ct := range r.db.classTopics {
		if ct.TopicID != id {
			classTopics = append(classTopics, ct)
		}
	}
	r.db.classTopics = classTopics
	return nil
}

func (r *TopicRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.topics)), nil
}

func (r *TopicRepository) CountQuestionsByTopic(_ context.Context) (map[string]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make(map[string]int64)
	for _, q := range r.db.questions {
		out[q.TopicID]++
	}
	return out, nil
}

func (r *TopicRepository) CountQuestionsBySubtopic(_ context.Context, topicID string) (map[string]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make(map[string]int64)
	for _, q := range r.db.questions {
		if q.TopicID == topicID {
			out[q.SubtopicID]++
		}
	}
	return out, nil
}

func (r *TopicRepository) FindSubtopic(_ context.Context, id string) (*model.Subtopic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	st, ok := r.db.subtopics[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	out := *st
	return &out, nil
}

func (r *TopicRepository) ListSubtopics(_ context.Context, topicID string) ([]model.Subtopic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.subtopicsOf(topicID), nil
}

func (r *TopicRepository) CreateSubtopic(_ context.Context, subtopic *model.Subtopic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.initBase(&subtopic.UUIDBase)
	stored := *subtopic
	stored.Questions, stored.Attempts, stored.Progress = nil, nil, nil
	r.db.subtopics[subtopic.ID] = &stored
	return nil
}

func (r *TopicRepository) UpdateSubtopic(_ context.Context, subtopic *model.Subtopic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if st, ok := r.db.subtopics[subtopic.ID]; ok && st.TopicID == subtopic.TopicID {
		st.Name = subtopic.Name
		st.Order = subtopic.Order
		st.UpdatedAt = r.db.stamp()
	}
	return nil
}

func (r *TopicRepository) DeleteSubtopic(_ context.Context, topicID, subtopicID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	st, ok := r.db.subtopics[subtopicID]
	if !ok || st.TopicID != topicID {
		return util.ErrRecordNotFound
	}
	r.db.deleteSubtopicLocked(subtopicID)
	return nil
}

func (db *DB) deleteSubtopicLocked(id string) {
	delete(db.subtopics, id)
	for qID, q := range db.questions {
		if q.SubtopicID == id {
			db.deleteQuestionLocked(qID)
		}
	}
	for aID, a := range db.attempts {
		if a.SubtopicID == id {
			delete(db.attempts, aID)
		}
	}
	progress := db.progress[:0]
	for _, p := range db.progress {
		if p.SubtopicID != id {
			progress = append(progress, p)
		}
	}
	db.progress = progress
}
