package model

// Identity 当前请求的调用者，只有教师和学生两种形态。
// 由中间件解析后显式传入 service，service 内部用 type switch 区分。
type Identity interface {
	AccountID() string
	Role() UserRole
	sealed()
}

type TeacherIdentity struct {
	UserID    string
	TeacherID string
}

func (t TeacherIdentity) AccountID() string { return t.UserID }
func (TeacherIdentity) Role() UserRole      { return RoleTeacher }
func (TeacherIdentity) sealed()             {}

type StudentIdentity struct {
	UserID    string
	StudentID string
}

func (s StudentIdentity) AccountID() string { return s.UserID }
func (StudentIdentity) Role() UserRole      { return RoleStudent }
func (StudentIdentity) sealed()             {}

// NewIdentity 根据角色构造对应的身份；角色未知时返回 nil
func NewIdentity(role UserRole, userID, profileID string) Identity {
	switch role {
	case RoleTeacher:
		return TeacherIdentity{UserID: userID, TeacherID: profileID}
	case RoleStudent:
		return StudentIdentity{UserID: userID, StudentID: profileID}
	}
	return nil
}
