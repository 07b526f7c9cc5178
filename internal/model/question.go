package model

type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "BEGINNER"
	DifficultyIntermediate DifficultyLevel = "INTERMEDIATE"
	DifficultyAdvanced     DifficultyLevel = "ADVANCED"
)

func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// swagger:model Question
type Question struct {
	UUIDBase
	Text            string          `gorm:"type:text;not null" json:"text"`
	TopicID         string          `gorm:"type:varchar(36);index;not null" json:"topicId"`
	SubtopicID      string          `gorm:"type:varchar(36);index;not null" json:"subtopicId"`
	DifficultyLevel DifficultyLevel `gorm:"size:16;not null;default:'BEGINNER'" json:"difficultyLevel"`
	CreatedByID     *string         `gorm:"type:varchar(36);index" json:"createdById,omitempty"`
	Options         []Option        `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options"`
	Answers         []QuizAnswer    `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) CorrectOptionIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, o := range q.Options {
		if o.IsCorrect {
			ids[o.ID] = true
		}
	}
	return ids
}

// Option 按 Position 排序展示
type Option struct {
	UUIDBase
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"isCorrect"`
	Position   int    `gorm:"not null;default:0" json:"position"`
	QuestionID string `gorm:"type:varchar(36);index;not null" json:"questionId"`
}

func (Option) TableName() string {
	return "options"
}
