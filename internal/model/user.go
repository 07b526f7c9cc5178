package model

import (
	"strings"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

func (r UserRole) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// swagger:model User
type User struct {
	UUIDBase
	Email        string   `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Username     string   `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string   `gorm:"size:100;not null" json:"-"`
	FirstName    string   `gorm:"size:100;not null" json:"firstName"`
	LastName     string   `gorm:"size:100;not null" json:"lastName"`
	Role         UserRole `gorm:"size:16;not null;index" json:"role"`
	Teacher      *Teacher `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Student      *Student `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// 邮箱和用户名统一小写存储，唯一索引即大小写不敏感
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeLogin(u.Email)
	u.Username = NormalizeLogin(u.Username)
	return nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func NormalizeLogin(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type Teacher struct {
	UUIDBase
	UserID  string  `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	User    *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Classes []Class `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Teacher) TableName() string {
	return "teachers"
}

type Student struct {
	UUIDBase
	UserID      string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	User        *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Enrollments []ClassEnrollment `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Attempts    []QuizAttempt     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
	Progress    []ModuleProgress  `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Student) TableName() string {
	return "students"
}
