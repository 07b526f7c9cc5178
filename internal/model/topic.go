package model

// swagger:model Topic
type Topic struct {
	UUIDBase
	Name        string       `gorm:"size:255;not null" json:"name"`
	Order       int          `gorm:"column:sort_order;not null;default:0" json:"order"`
	CreatedByID *string      `gorm:"type:varchar(36);index" json:"createdById,omitempty"`
	Subtopics   []Subtopic   `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"subtopics,omitempty"`
	Questions   []Question   `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"-"`
	Classes     []ClassTopic `gorm:"foreignKey:TopicID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Topic) TableName() string {
	return "topics"
}

// Subtopic 即“模块”，是测验与进度统计的最小单位
type Subtopic struct {
	UUIDBase
	Name        string           `gorm:"size:255;not null" json:"name"`
	Order       int              `gorm:"column:sort_order;not null;default:0" json:"order"`
	TopicID     string           `gorm:"type:varchar(36);index;not null" json:"topicId"`
	CreatedByID *string          `gorm:"type:varchar(36);index" json:"createdById,omitempty"`
	Questions   []Question       `gorm:"foreignKey:SubtopicID;constraint:OnDelete:CASCADE" json:"-"`
	Attempts    []QuizAttempt    `gorm:"foreignKey:SubtopicID;constraint:OnDelete:CASCADE" json:"-"`
	Progress    []ModuleProgress `gorm:"foreignKey:SubtopicID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Subtopic) TableName() string {
	return "subtopics"
}
