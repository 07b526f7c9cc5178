package inmem

import (
	"classroom_backend/internal/model"
	"sort"
	"sync"
	"time"
)

// DB 内存版存储，供测试和本地调试使用。所有写操作持有同一把锁，相当于串行事务
type DB struct {
	mu sync.RWMutex

	users       map[string]*model.User
	teachers    map[string]*model.Teacher
	students    map[string]*model.Student
	classes     map[string]*model.Class
	topics      map[string]*model.Topic
	subtopics   map[string]*model.Subtopic
	questions   map[string]*model.Question
	options     map[string]*model.Option
	classTopics []*model.ClassTopic
	enrollments []*model.ClassEnrollment
	invitations map[string]*model.Invitation
	attempts    map[string]*model.QuizAttempt
	answers     []*model.QuizAnswer
	progress    []*model.ModuleProgress

	last time.Time
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*model.User),
		teachers:    make(map[string]*model.Teacher),
		students:    make(map[string]*model.Student),
		classes:     make(map[string]*model.Class),
		topics:      make(map[string]*model.Topic),
		subtopics:   make(map[string]*model.Subtopic),
		questions:   make(map[string]*model.Question),
		options:     make(map[string]*model.Option),
		invitations: make(map[string]*model.Invitation),
		attempts:    make(map[string]*model.QuizAttempt),
	}
}

// stamp 严格递增的时间戳，保证创建顺序可比较
func (db *DB) stamp() time.Time {
	t := time.Now()
	if !t.After(db.last) {
		t = db.last.Add(time.Microsecond)
	}
	db.last = t
	return t
}

func (db *DB) initBase(b *model.UUIDBase) {
	if b.ID == "" {
		b.ID = model.GenerateUUID()
	}
	now := db.stamp()
	b.CreatedAt = now
	b.UpdatedAt = now
}

// CreateStudent 直接写入一个学生账号，测试数据准备用
func (db *DB) CreateStudent(user *model.User) *model.Student {
	db.mu.Lock()
	defer db.mu.Unlock()
	student, _ := db.createStudentLocked(user)
	return student
}

func (db *DB) loginTakenLocked(email, username string) (bool, bool) {
	email = model.NormalizeLogin(email)
	username = model.NormalizeLogin(username)
	var emailTaken, usernameTaken bool
	for _, u := range db.users {
		if u.Email == email {
			emailTaken = true
		}
		if u.Username == username {
			usernameTaken = true
		}
	}
	return emailTaken, usernameTaken
}

func (db *DB) createUserLocked(user *model.User) bool {
	user.Email = model.NormalizeLogin(user.Email)
	user.Username = model.NormalizeLogin(user.Username)
	if e, u := db.loginTakenLocked(user.Email, user.Username); e || u {
		return false
	}
	db.initBase(&user.UUIDBase)
	stored := *user
	stored.Teacher, stored.Student = nil, nil
	db.users[user.ID] = &stored
	return true
}

func (db *DB) createStudentLocked(user *model.User) (*model.Student, bool) {
	user.Role = model.RoleStudent
	if !db.createUserLocked(user) {
		return nil, false
	}
	student := &model.Student{UserID: user.ID}
	db.initBase(&student.UUIDBase)
	db.students[student.ID] = student
	out := *student
	return &out, true
}

func (db *DB) userCopy(id string) *model.User {
	u, ok := db.users[id]
	if !ok {
		return nil
	}
	out := *u
	return &out
}

func (db *DB) teacherCopy(id string) *model.Teacher {
	t, ok := db.teachers[id]
	if !ok {
		return nil
	}
	out := *t
	out.User = db.userCopy(t.UserID)
	return &out
}

func (db *DB) classCopy(c *model.Class) model.Class {
	out := *c
	out.Teacher = db.teacherCopy(c.TeacherID)
	return out
}

func (db *DB) subtopicsOf(topicID string) []model.Subtopic {
	var out []model.Subtopic
	for _, st := range db.subtopics {
		if st.TopicID == topicID {
			out = append(out, *st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (db *DB) topicCopy(id string) *model.Topic {
	t, ok := db.topics[id]
	if !ok {
		return nil
	}
	out := *t
	out.Subtopics = db.subtopicsOf(id)
	return &out
}

func (db *DB) optionsOf(questionID string) []model.Option {
	var out []model.Option
	for _, o := range db.options {
		if o.QuestionID == questionID {
			out = append(out, *o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (db *DB) questionCopy(q *model.Question) model.Question {
	out := *q
	out.Options = db.optionsOf(q.ID)
	return out
}

func sortByCreation(questions []model.Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		if !questions[i].CreatedAt.Equal(questions[j].CreatedAt) {
			return questions[i].CreatedAt.Before(questions[j].CreatedAt)
		}
		return questions[i].ID < questions[j].ID
	})
}

func (db *DB) findClassTopic(classID, topicID string) *model.ClassTopic {
	for _, ct := range db.classTopics {
		if ct.ClassID == classID && ct.TopicID == topicID {
			return ct
		}
	}
	return nil
}

func (db *DB) isEnrolledLocked(classID, studentID string) bool {
	for _, e := range db.enrollments {
		if e.ClassID == classID && e.StudentID == studentID {
			return true
		}
	}
	return false
}

func (db *DB) enrollLocked(classID, studentID string) bool {
	if db.isEnrolledLocked(classID, studentID) {
		return false
	}
	e := &model.ClassEnrollment{ClassID: classID, StudentID: studentID}
	db.initBase(&e.UUIDBase)
	e.JoinedAt = e.CreatedAt
	db.enrollments = append(db.enrollments, e)
	return true
}

func (db *DB) findProgress(studentID, classID, subtopicID string) *model.ModuleProgress {
	for _, p := range db.progress {
		if p.StudentID == studentID && p.ClassID == classID && p.SubtopicID == subtopicID {
			return p
		}
	}
	return nil
}
