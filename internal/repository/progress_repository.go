package repository

import (
	"classroom_backend/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

var progressKey = []clause.Column{{Name: "student_id"}, {Name: "class_id"}, {Name: "subtopic_id"}}

// markInProgress 开始测验时的进度 upsert，已完成的不回退
func markInProgress(tx *gorm.DB, studentID, classID, subtopicID string, now time.Time) error {
	progress := &model.ModuleProgress{
		StudentID:  studentID,
		ClassID:    classID,
		SubtopicID: subtopicID,
		Status:     model.StatusInProgress,
	}
	status := gorm.Expr("CASE WHEN module_progresses.status = ? THEN module_progresses.status ELSE ? END",
		model.StatusCompleted, model.StatusInProgress)
	return tx.Clauses(clause.OnConflict{
		Columns: progressKey,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}),
	}).Create(progress).Error
}

// markCompleted 单条语句完成 best_score = max(best_score, score)，并发提交不会丢失更新
func markCompleted(tx *gorm.DB, studentID, classID, subtopicID string, score float64, now time.Time) error {
	progress := &model.ModuleProgress{
		StudentID:  studentID,
		ClassID:    classID,
		SubtopicID: subtopicID,
		Status:     model.StatusCompleted,
		BestScore:  &score,
	}
	best := gorm.Expr("CASE WHEN module_progresses.best_score IS NULL OR module_progresses.best_score < ? THEN ? ELSE module_progresses.best_score END",
		score, score)
	return tx.Clauses(clause.OnConflict{
		Columns: progressKey,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     model.StatusCompleted,
			"best_score": best,
			"updated_at": now,
		}),
	}).Create(progress).Error
}

func (r *ProgressRepository) ListForClass(ctx context.Context, studentID, classID string) ([]model.ModuleProgress, error) {
	var progress []model.ModuleProgress
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND class_id = ?", studentID, classID).
		Find(&progress).Error
	return progress, err
}

func (r *ProgressRepository) Find(ctx context.Context, studentID, classID, subtopicID string) (*model.ModuleProgress, error) {
	var progress model.ModuleProgress
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND class_id = ? AND subtopic_id = ?", studentID, classID, subtopicID).
		First(&progress).Error
	if err != nil {
		return nil, translate(err)
	}
	return &progress, nil
}

// CountCompletedByClass 学生在各班级已完成的模块数，只统计仍处于已发布状态的模块
func (r *ProgressRepository) CountCompletedByClass(ctx context.Context, studentID string) (map[string]int64, error) {
	var rows []countRow
	err := r.DB.WithContext(ctx).
		Model(&model.ModuleProgress{}).
		Select("module_progresses.class_id AS group_key, COUNT(*) AS n").
		Joins("JOIN subtopics ON subtopics.id = module_progresses.subtopic_id").
		Joins("JOIN class_topics ON class_topics.topic_id = subtopics.topic_id AND class_topics.class_id = module_progresses.class_id").
		Where("module_progresses.student_id = ? AND module_progresses.status = ? AND class_topics.published = ?",
			studentID, model.StatusCompleted, true).
		Group("module_progresses.class_id").
		Scan(&rows).Error
	return toCountMap(rows), err
}
