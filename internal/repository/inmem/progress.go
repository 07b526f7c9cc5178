package inmem

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
)

type ProgressRepository struct {
	db *DB
}

func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) ListForClass(_ context.Context, studentID, classID string) ([]model.ModuleProgress, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []model.ModuleProgress
	for _, p := range r.db.progress {
		if p.StudentID == studentID && p.ClassID == classID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *ProgressRepository) Find(_ context.Context, studentID, classID, subtopicID string) (*model.ModuleProgress, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p := r.db.findProgress(studentID, classID, subtopicID)
	if p == nil {
		return nil, util.ErrRecordNotFound
	}
	out := *p
	return &out, nil
}

// CountCompletedByClass 只统计班级中仍已发布的模块
func (r *ProgressRepository) CountCompletedByClass(_ context.Context, studentID string) (map[string]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make(map[string]int64)
	for _, p := range r.db.progress {
		if p.StudentID != studentID || p.Status != model.StatusCompleted {
			continue
		}
		st, ok := r.db.subtopics[p.SubtopicID]
		if !ok {
			continue
		}
		if ct := r.db.findClassTopic(p.ClassID, st.TopicID); ct != nil && ct.Published {
			out[p.ClassID]++
		}
	}
	return out, nil
}
