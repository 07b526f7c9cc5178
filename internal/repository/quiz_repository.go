package repository

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"time"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// StartAttempt 新建作答记录并把模块进度置为进行中
func (r *QuizRepository) StartAttempt(ctx context.Context, attempt *model.QuizAttempt) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		return markInProgress(tx, attempt.StudentID, attempt.ClassID, attempt.SubtopicID, time.Now())
	})
}

func (r *QuizRepository) FindAttempt(ctx context.Context, id string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_answers.created_at ASC, quiz_answers.id ASC")
		}).
		First(&attempt, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &attempt, nil
}

// FinalizeAttempt 一个事务内：条件更新作答记录（只允许一次）、写入答案、更新进度
func (r *QuizRepository) FinalizeAttempt(ctx context.Context, attempt *model.QuizAttempt, answers []model.QuizAnswer, score float64, completedAt time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.QuizAttempt{}).
			Where("id = ? AND completed_at IS NULL", attempt.ID).
			Updates(map[string]interface{}{
				"score":        score,
				"completed_at": completedAt,
				"updated_at":   completedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrAttemptFinalized
		}

		if len(answers) > 0 {
			for i := range answers {
				answers[i].QuizAttemptID = attempt.ID
			}
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}

		return markCompleted(tx, attempt.StudentID, attempt.ClassID, attempt.SubtopicID, score, completedAt)
	})
}
