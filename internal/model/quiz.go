package model

import "time"

// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	StudentID   string       `gorm:"type:varchar(36);index;not null" json:"studentId"`
	ClassID     string       `gorm:"type:varchar(36);index;not null" json:"classId"`
	SubtopicID  string       `gorm:"type:varchar(36);index;not null" json:"subtopicId"`
	Score       *float64     `json:"score"`
	CompletedAt *time.Time   `json:"completedAt"`
	Answers     []QuizAnswer `gorm:"foreignKey:QuizAttemptID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) Completed() bool {
	return a.CompletedAt != nil
}

type QuizAnswer struct {
	UUIDBase
	QuizAttemptID    string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_question" json:"quizAttemptId"`
	QuestionID       string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_attempt_question" json:"questionId"`
	SelectedOptionID *string `gorm:"type:varchar(36)" json:"selectedOptionId"`
	IsCorrect        bool    `gorm:"not null" json:"isCorrect"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
