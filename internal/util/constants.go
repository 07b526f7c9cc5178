package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	MinPasswordLength  = 8
	MinQuestionOptions = 2
	RecentClassesLimit = 5
	InviteTokenBytes   = 32
)
