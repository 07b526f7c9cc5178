package repository

import (
	"classroom_backend/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

// Enroll 幂等选课，返回是否新建了记录
func (r *EnrollmentRepository) Enroll(ctx context.Context, classID, studentID string) (bool, error) {
	return enroll(r.DB.WithContext(ctx), classID, studentID)
}

// enroll 唯一索引 (class_id, student_id) 为准，冲突即视为已选课
func enroll(tx *gorm.DB, classID, studentID string) (bool, error) {
	enrollment := &model.ClassEnrollment{
		ClassID:   classID,
		StudentID: studentID,
		JoinedAt:  time.Now(),
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(enrollment)
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&model.ClassEnrollment{}).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		Count(&n).Error
	return n > 0, err
}

func (r *EnrollmentRepository) ListRoster(ctx context.Context, classID string) ([]model.ClassEnrollment, error) {
	var enrollments []model.ClassEnrollment
	err := r.DB.WithContext(ctx).
		Preload("Student.User").
		Where("class_id = ?", classID).
		Order("joined_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountByStudent(ctx context.Context, studentID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&model.ClassEnrollment{}).
		Where("student_id = ?", studentID).
		Count(&n).Error
	return n, err
}
