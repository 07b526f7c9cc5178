package model

// PublishedModule 班级中已发布主题下的一个子主题（模块）
type PublishedModule struct {
	SubtopicID    string `json:"subtopicId"`
	SubtopicName  string `json:"subtopicName"`
	SubtopicOrder int    `json:"subtopicOrder"`
	TopicID       string `json:"topicId"`
	TopicName     string `json:"topicName"`
	TopicOrder    int    `json:"topicOrder"`
}

type ClassSummary struct {
	Class
	TeacherName     string `json:"teacherName,omitempty"`
	EnrollmentCount int64  `json:"enrollmentCount"`
	TopicCount      int64  `json:"topicCount"`
}

type ClassModuleCount struct {
	ClassID   string `json:"classId"`
	ClassName string `json:"className"`
	Modules   int64  `json:"modules"`
	Completed int64  `json:"completed"`
}

type TopicSummary struct {
	Topic
	QuestionCount int64 `json:"questionCount"`
}

type SubtopicSummary struct {
	Subtopic
	QuestionCount int64 `json:"questionCount"`
}

type QuestionFilter struct {
	TopicID    string
	SubtopicID string
	Difficulty DifficultyLevel
}
