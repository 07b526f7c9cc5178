package model

type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "NOT_STARTED"
	StatusInProgress ProgressStatus = "IN_PROGRESS"
	StatusCompleted  ProgressStatus = "COMPLETED"
)

// ModuleProgress 每个学生在每个班级的每个模块上一条记录，BestScore 只增不减
type ModuleProgress struct {
	UUIDBase
	StudentID  string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_key" json:"studentId"`
	ClassID    string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_key" json:"classId"`
	SubtopicID string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_key" json:"subtopicId"`
	Status     ProgressStatus `gorm:"size:16;not null;default:'NOT_STARTED'" json:"status"`
	BestScore  *float64       `json:"bestScore"`
}

func (ModuleProgress) TableName() string {
	return "module_progresses"
}

// AllModels 参与 AutoMigrate 的全部模型，顺序保证外键依赖先建
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Teacher{},
		&Student{},
		&Class{},
		&Topic{},
		&Subtopic{},
		&Question{},
		&Option{},
		&ClassTopic{},
		&ClassEnrollment{},
		&Invitation{},
		&QuizAttempt{},
		&QuizAnswer{},
		&ModuleProgress{},
	}
}
