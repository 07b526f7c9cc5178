package inmem

import (
	"classroom_backend/internal/model"
	"context"
	"sort"
)

type EnrollmentRepository struct {
	db *DB
}

func NewEnrollmentRepository(db *DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Enroll(_ context.Context, classID, studentID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.db.enrollLocked(classID, studentID), nil
}

func (r *EnrollmentRepository) IsEnrolled(_ context.Context, classID, studentID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.isEnrolledLocked(classID, studentID), nil
}

func (r *EnrollmentRepository) ListRoster(_ context.Context, classID string) ([]model.ClassEnrollment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var roster []model.ClassEnrollment
	for _, e := range r.db.enrollments {
		if e.ClassID != classID {
			continue
		}
		row := *e
		if s, ok := r.db.students[e.StudentID]; ok {
			student := *s
			student.User = r.db.userCopy(s.UserID)
			row.Student = &student
		}
		roster = append(roster, row)
	}
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].JoinedAt.After(roster[j].JoinedAt)
	})
	return roster, nil
}

func (r *EnrollmentRepository) CountByStudent(_ context.Context, studentID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, e := range r.db.enrollments {
		if e.StudentID == studentID {
			n++
		}
	}
	return n, nil
}
