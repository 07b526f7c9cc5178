package inmem

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/repository"
	"classroom_backend/internal/util"
	"context"
	"sort"

	"gorm.io/gorm"
)

type InvitationRepository struct {
	db *DB
}

func NewInvitationRepository(db *DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(_ context.Context, inv *model.Invitation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.invitations {
		if existing.Token == inv.Token {
			return gorm.ErrDuplicatedKey
		}
	}
	r.db.initBase(&inv.UUIDBase)
	stored := *inv
	stored.Class = nil
	r.db.invitations[inv.ID] = &stored
	return nil
}

func (r *InvitationRepository) FindByToken(_ context.Context, token string) (*model.Invitation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, inv := range r.db.invitations {
		if inv.Token != token {
			continue
		}
		out := *inv
		if c, ok := r.db.classes[inv.ClassID]; ok {
			class := r.db.classCopy(c)
			out.Class = &class
		}
		return &out, nil
	}
	return nil, util.ErrRecordNotFound
}

func (r *InvitationRepository) FindByID(_ context.Context, id string) (*model.Invitation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	inv, ok := r.db.invitations[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	out := *inv
	return &out, nil
}

func (r *InvitationRepository) ListByClass(_ context.Context, classID string) ([]model.Invitation, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []model.Invitation
	for _, inv := range r.db.invitations {
		if inv.ClassID == classID {
			out = append(out, *inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InvitationRepository) Deactivate(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if inv, ok := r.db.invitations[id]; ok {
		inv.Active = false
		inv.UpdatedAt = r.db.stamp()
	}
	return nil
}

// Consume 与 gorm 实现语义一致：任何一步失败都不留下部分写入
func (r *InvitationRepository) Consume(_ context.Context, req repository.ConsumeRequest) (*repository.ConsumeOutcome, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inv, ok := r.db.invitations[req.InvitationID]
	if !ok {
		return nil, util.ErrInvitationUsedUp
	}

	out := &repository.ConsumeOutcome{StudentID: req.StudentID}
	alreadyEnrolled := req.NewStudent == nil && r.db.isEnrolledLocked(req.ClassID, req.StudentID)
	claim := !alreadyEnrolled || req.CountRejoins
	if claim && !inv.Usable(req.Now) {
		return nil, util.ErrInvitationUsedUp
	}

	if req.NewStudent != nil {
		student, created := r.db.createStudentLocked(req.NewStudent)
		if !created {
			return nil, util.ErrDuplicateIdentity
		}
		out.StudentID = student.ID
	}

	out.Enrolled = r.db.enrollLocked(req.ClassID, out.StudentID)
	if claim {
		inv.UsedCount++
		inv.UpdatedAt = req.Now
	}
	return out, nil
}
