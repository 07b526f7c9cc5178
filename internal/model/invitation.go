package model

import "time"

// swagger:model Invitation
type Invitation struct {
	UUIDBase
	Token     string     `gorm:"size:64;uniqueIndex;not null" json:"token"`
	ClassID   string     `gorm:"type:varchar(36);index;not null" json:"classId"`
	Class     *Class     `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	MaxUses   *int       `json:"maxUses,omitempty"`
	UsedCount int        `gorm:"not null;default:0" json:"usedCount"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
}

func (Invitation) TableName() string {
	return "invitations"
}

// Usable 判断邀请在 now 时刻是否仍可使用
func (i *Invitation) Usable(now time.Time) bool {
	if !i.Active {
		return false
	}
	if i.ExpiresAt != nil && !i.ExpiresAt.After(now) {
		return false
	}
	if i.MaxUses != nil && i.UsedCount >= *i.MaxUses {
		return false
	}
	return true
}
