package model

import "time"

// swagger:model Class
type Class struct {
	UUIDBase
	Name        string            `gorm:"size:255;not null" json:"name"`
	Description *string           `gorm:"type:text" json:"description,omitempty"`
	TeacherID   string            `gorm:"type:varchar(36);index;not null" json:"teacherId"`
	Teacher     *Teacher          `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	Topics      []ClassTopic      `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Enrollments []ClassEnrollment `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Invitations []Invitation      `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Attempts    []QuizAttempt     `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Progress    []ModuleProgress  `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Class) TableName() string {
	return "classes"
}

// ClassTopic 班级与主题的关联，Published 控制学生是否可见
type ClassTopic struct {
	UUIDBase
	ClassID   string `gorm:"type:varchar(36);not null;uniqueIndex:idx_class_topic" json:"classId"`
	TopicID   string `gorm:"type:varchar(36);not null;uniqueIndex:idx_class_topic" json:"topicId"`
	Published bool   `gorm:"not null;default:false" json:"published"`
	Topic     *Topic `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
}

func (ClassTopic) TableName() string {
	return "class_topics"
}

type ClassEnrollment struct {
	UUIDBase
	ClassID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_class_student" json:"classId"`
	StudentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_class_student" json:"studentId"`
	JoinedAt  time.Time `gorm:"not null" json:"joinedAt"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Class     *Class    `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

func (ClassEnrollment) TableName() string {
	return "class_enrollments"
}
