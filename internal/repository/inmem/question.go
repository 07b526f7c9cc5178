package inmem

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
)

type QuestionRepository struct {
	db *DB
}

func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) List(_ context.Context, filter model.QuestionFilter) ([]model.Question, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []model.Question
	for _, q := range r.db.questions {
		if filter.TopicID != "" && q.TopicID != filter.TopicID {
			continue
		}
		if filter.SubtopicID != "" && q.SubtopicID != filter.SubtopicID {
			continue
		}
		if filter.Difficulty != "" && q.DifficultyLevel != filter.Difficulty {
			continue
		}
		out = append(out, r.db.questionCopy(q))
	}
	sortByCreation(out)
	return out, nil
}

func (r *QuestionRepository) ListBySubtopic(ctx context.Context, subtopicID string) ([]model.Question, error) {
	return r.List(ctx, model.QuestionFilter{SubtopicID: subtopicID})
}

func (r *QuestionRepository) ListByIDs(_ context.Context, ids []string) ([]model.Question, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := []model.Question{}
	for id := range toSet(ids) {
		if q, ok := r.db.questions[id]; ok {
			out = append(out, r.db.questionCopy(q))
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *QuestionRepository) FindByID(_ context.Context, id string) (*model.Question, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	q, ok := r.db.questions[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	out := r.db.questionCopy(q)
	return &out, nil
}

func (r *QuestionRepository) Create(_ context.Context, question *model.Question) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.initBase(&question.UUIDBase)
	stored := *question
	stored.Options, stored.Answers = nil, nil
	r.db.questions[question.ID] = &stored
	r.db.createOptionsLocked(question.ID, question.Options)
	return nil
}

func (r *QuestionRepository) Update(_ context.Context, question *model.Question, replaceOptions bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	q, ok := r.db.questions[question.ID]
	if !ok {
		return nil
	}
	q.Text = question.Text
	q.DifficultyLevel = question.DifficultyLevel
	q.UpdatedAt = r.db.stamp()
	if !replaceOptions {
		return nil
	}
	r.db.deleteOptionsLocked(question.ID)
	r.db.createOptionsLocked(question.ID, question.Options)
	return nil
}

func (r *QuestionRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.questions[id]; !ok {
		return util.ErrRecordNotFound
	}
	r.db.deleteQuestionLocked(id)
	return nil
}

func (r *QuestionRepository) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.questions)), nil
}

// createOptionsLocked 回写选项 ID 与位置，与 gorm 批量插入后的效果一致
func (db *DB) createOptionsLocked(questionID string, options []model.Option) {
	for i := range options {
		options[i].ID = ""
		options[i].QuestionID = questionID
		options[i].Position = i
		db.initBase(&options[i].UUIDBase)
		stored := options[i]
		db.options[stored.ID] = &stored
	}
}

func (db *DB) deleteOptionsLocked(questionID string) {
	for id, o := range db.options {
		if o.QuestionID == questionID {
			delete(db.options, id)
		}
	}
}

func (db *DB) deleteQuestionLocked(id string) {
	delete(db.questions, id)
	db.deleteOptionsLocked(id)
	answers := db.answers[:0]
	for _, a := range db.answers {
		if a.QuestionID != id {
			answers = append(answers, a)
		}
	}
	db.answers = answers
}
