package inmem

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"sort"
	"time"
)

type QuizRepository struct {
	db *DB
}

func NewQuizRepository(db *DB) *QuizRepository {
	return &QuizRepository{db: db}
}

func (r *QuizRepository) StartAttempt(_ context.Context, attempt *model.QuizAttempt) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.initBase(&attempt.UUIDBase)
	stored := *attempt
	stored.Answers = nil
	r.db.attempts[attempt.ID] = &stored

	p := r.db.upsertProgressLocked(attempt.StudentID, attempt.ClassID, attempt.SubtopicID)
	if p.Status != model.StatusCompleted {
		p.Status = model.StatusInProgress
	}
	return nil
}

func (r *QuizRepository) FindAttempt(_ context.Context, id string) (*model.QuizAttempt, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.attempts[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	out := *a
	out.Answers = nil
	for _, ans := range r.db.answers {
		if ans.QuizAttemptID == id {
			out.Answers = append(out.Answers, *ans)
		}
	}
	sort.SliceStable(out.Answers, func(i, j int) bool {
		return out.Answers[i].CreatedAt.Before(out.Answers[j].CreatedAt)
	})
	return &out, nil
}

func (r *QuizRepository) FinalizeAttempt(_ context.Context, attempt *model.QuizAttempt, answers []model.QuizAnswer, score float64, completedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.attempts[attempt.ID]
	if !ok || a.CompletedAt != nil {
		return util.ErrAttemptFinalized
	}
	s, done := score, completedAt
	a.Score = &s
	a.CompletedAt = &done
	a.UpdatedAt = completedAt

	for i := range answers {
		answers[i].QuizAttemptID = attempt.ID
		r.db.initBase(&answers[i].UUIDBase)
		stored := answers[i]
		r.db.answers = append(r.db.answers, &stored)
	}

	p := r.db.upsertProgressLocked(a.StudentID, a.ClassID, a.SubtopicID)
	p.Status = model.StatusCompleted
	if p.BestScore == nil || *p.BestScore < score {
		best := score
		p.BestScore = &best
	}
	p.UpdatedAt = completedAt
	return nil
}

func (db *DB) upsertProgressLocked(studentID, classID, subtopicID string) *model.ModuleProgress {
	if p := db.findProgress(studentID, classID, subtopicID); p != nil {
		p.UpdatedAt = db.stamp()
		return p
	}
	p := &model.ModuleProgress{
		StudentID:  studentID,
		ClassID:    classID,
		SubtopicID: subtopicID,
		Status:     model.StatusNotStarted,
	}
	db.initBase(&p.UUIDBase)
	db.progress = append(db.progress, p)
	return p
}
