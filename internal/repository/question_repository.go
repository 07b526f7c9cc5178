package repository

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func orderOptions(db *gorm.DB) *gorm.DB {
	return db.Order("options.position ASC, options.id ASC")
}

// creationOrder 题目一律按创建时间升序，同一时间再按 id
func creationOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Options", orderOptions).
		Order("questions.created_at ASC, questions.id ASC")
}

func (r *QuestionRepository) List(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error) {
	var questions []model.Question
	q := creationOrder(r.DB.WithContext(ctx))
	if filter.TopicID != "" {
		q = q.Where("topic_id = ?", filter.TopicID)
	}
	if filter.SubtopicID != "" {
		q = q.Where("subtopic_id = ?", filter.SubtopicID)
	}
	if filter.Difficulty != "" {
		q = q.Where("difficulty_level = ?", filter.Difficulty)
	}
	err := q.Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) ListBySubtopic(ctx context.Context, subtopicID string) ([]model.Question, error) {
	return r.List(ctx, model.QuestionFilter{SubtopicID: subtopicID})
}

func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []string) ([]model.Question, error) {
	if len(ids) == 0 {
		return []model.Question{}, nil
	}
	var questions []model.Question
	err := creationOrder(r.DB.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := r.DB.WithContext(ctx).
		Preload("Options", orderOptions).
		First(&question, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &question, nil
}

func (r *QuestionRepository) Create(ctx context.Context, question *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(question).Error; err != nil {
			return err
		}
		return createOptions(tx, question.ID, question.Options)
	})
}

// Update replaceOptions 为 true 时先删后建，整体替换选项
func (r *QuestionRepository) Update(ctx context.Context, question *model.Question, replaceOptions bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Question{}).
			Where("id = ?", question.ID).
			Updates(map[string]interface{}{
				"text":             question.Text,
				"difficulty_level": question.DifficultyLevel,
			}).Error
		if err != nil {
			return err
		}
		if !replaceOptions {
			return nil
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		return createOptions(tx, question.ID, question.Options)
	})
}

func createOptions(tx *gorm.DB, questionID string, options []model.Option) error {
	if len(options) == 0 {
		return nil
	}
	for i := range options {
		options[i].ID = ""
		options[i].QuestionID = questionID
		options[i].Position = i
	}
	return tx.Create(&options).Error
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&model.Question{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrRecordNotFound
	}
	return nil
}

func (r *QuestionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Question{}).Count(&n).Error
	return n, err
}
