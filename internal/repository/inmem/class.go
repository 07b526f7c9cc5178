package inmem

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"sort"
)

type ClassRepository struct {
	db *DB
}

func NewClassRepository(db *DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) Create(_ context.Context, class *model.Class) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.initBase(&class.UUIDBase)
	stored := *class
	stored.Teacher = nil
	r.db.classes[class.ID] = &stored
	return nil
}

func (r *ClassRepository) FindByID(_ context.Context, id string) (*model.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.classes[id]
	if !ok {
		return nil, util.ErrRecordNotFound
	}
	out := r.db.classCopy(c)
	return &out, nil
}

func (r *ClassRepository) Update(_ context.Context, class *model.Class) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.classes[class.ID]
	if !ok {
		return nil
	}
	c.Name = class.Name
	c.Description = class.Description
	c.UpdatedAt = r.db.stamp()
	return nil
}

// Delete 同时清理关联数据，对应数据库的级联删除
func (r *ClassRepository) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.classes[id]; !ok {
		return util.ErrRecordNotFound
	}
	delete(r.db.classes, id)

	classTopics := r.db.classTopics[:0]
	for _, ct := range r.db.classTopics {
		if ct.ClassID != id {
			classTopics = append(classTopics, ct)
		}
	}
	r.db.classTopics = classTopics

	enrollments := r.db.enrollments[:0]
	for _, e := range r.db.enrollments {
		if e.ClassID != id {
			enrollments = append(enrollments, e)
		}
	}
	r.db.enrollments = enrollments

	progress := r.db.progress[:0]
	for _, p := range r.db.progress {
		if p.ClassID != id {
			progress = append(progress, p)
		}
	}
	r.db.progress = progress

	for invID, inv := range r.db.invitations {
		if inv.ClassID == id {
			delete(r.db.invitations, invID)
		}
	}
	for attemptID, a := range r.db.attempts {
		if a.ClassID == id {
			delete(r.db.attempts, attemptID)
		}
	}
	return nil
}

func (r *ClassRepository) ListByTeacher(_ context.Context, teacherID string) ([]model.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var classes []model.Class
	for _, c := range r.db.classes {
		if c.TeacherID == teacherID {
			classes = append(classes, *c)
		}
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].CreatedAt.After(classes[j].CreatedAt)
	})
	return classes, nil
}

func (r *ClassRepository) ListByStudent(_ context.Context, studentID string) ([]model.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var joined []*model.ClassEnrollment
	for _, e := range r.db.enrollments {
		if e.StudentID == studentID {
			joined = append(joined, e)
		}
	}
	sort.SliceStable(joined, func(i, j int) bool {
		return joined[i].JoinedAt.After(joined[j].JoinedAt)
	})
	classes := make([]model.Class, 0, len(joined))
	for _, e := range joined {
		if c, ok := r.db.classes[e.ClassID]; ok {
			classes = append(classes, r.db.classCopy(c))
		}
	}
	return classes, nil
}

func (r *ClassRepository) CountEnrollments(_ context.Context, classIDs []string) (map[string]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	wanted := toSet(classIDs)
	out := make(map[string]int64)
	for _, e := range r.db.enrollments {
		if wanted[e.ClassID] {
			out[e.ClassID]++
		}
	}
	return out, nil
}

func (r *ClassRepository) CountTopics(_ context.Context, classIDs []string) (map[string]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	wanted := toSet(classIDs)
	out := make(map[string]int64)
	for _, ct := range r.db.classTopics {
		if wanted[ct.ClassID] {
			out[ct.ClassID]++
		}
	}
	return out, nil
}

func (r *ClassRepository) CountByTeacher(_ context.Context, teacherID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, c := range r.db.classes {
		if c.TeacherID == teacherID {
			n++
		}
	}
	return n, nil
}

func (r *ClassRepository) ListClassTopics(_ context.Context, classID string, publishedOnly bool) ([]model.ClassTopic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []model.ClassTopic
	for _, ct := range r.db.classTopics {
		if ct.ClassID != classID || (publishedOnly && !ct.Published) {
			continue
		}
		topic := r.db.topicCopy(ct.TopicID)
		if topic == nil {
			continue
		}
		row := *ct
		row.Topic = topic
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Topic, out[j].Topic
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func (r *ClassRepository) FindClassTopic(_ context.Context, classID, topicID string) (*model.ClassTopic, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ct := r.db.findClassTopic(classID, topicID)
	if ct == nil {
		return nil, util.ErrRecordNotFound
	}
	out := *ct
	out.Topic = r.db.topicCopy(topicID)
	return &out, nil
}

func (r *ClassRepository) AssignTopic(_ context.Context, ct *model.ClassTopic) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.findClassTopic(ct.ClassID, ct.TopicID) != nil {
		return util.ErrAlreadyAssigned
	}
	r.db.initBase(&ct.UUIDBase)
	stored := *ct
	stored.Topic = nil
	r.db.classTopics = append(r.db.classTopics, &stored)
	return nil
}

func (r *ClassRepository) SetTopicPublished(_ context.Context, classID, topicID string, published bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if ct := r.db.findClassTopic(classID, topicID); ct != nil {
		ct.Published = published
		ct.UpdatedAt = r.db.stamp()
	}
	return nil
}

func (r *ClassRepository) RemoveTopic(_ context.Context, classID, topicID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i, ct := range r.db.classTopics {
		if ct.ClassID == classID && ct.TopicID == topicID {
			r.db.classTopics = append(r.db.classTopics[:i], r.db.classTopics[i+1:]...)
			return nil
		}
	}
	return util.ErrRecordNotFound
}

func (r *ClassRepository) IsTopicPublished(_ context.Context, classID, topicID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	ct := r.db.findClassTopic(classID, topicID)
	return ct != nil && ct.Published, nil
}

func (r *ClassRepository) ClassIDsForTopic(_ context.Context, topicID string) ([]string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var ids []string
	for _, ct := range r.db.classTopics {
		if ct.TopicID == topicID {
			ids = append(ids, ct.ClassID)
		}
	}
	return ids, nil
}

func (r *ClassRepository) ListPublishedModules(ctx context.Context, classID string) ([]model.PublishedModule, error) {
	topics, err := r.ListClassTopics(ctx, classID, true)
	if err != nil {
		return nil, err
	}
	var modules []model.PublishedModule
	for _, ct := range topics {
		for _, st := range ct.Topic.Subtopics {
			modules = append(modules, model.PublishedModule{
				SubtopicID:    st.ID,
				SubtopicName:  st.Name,
				SubtopicOrder: st.Order,
				TopicID:       ct.Topic.ID,
				TopicName:     ct.Topic.Name,
				TopicOrder:    ct.Topic.Order,
			})
		}
	}
	return modules, nil
}

func (r *ClassRepository) CountPublishedModules(_ context.Context, classIDs []string) (map[string]int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	wanted := toSet(classIDs)
	out := make(map[string]int64)
	for _, ct := range r.db.classTopics {
		if !wanted[ct.ClassID] || !ct.Published {
			continue
		}
		out[ct.ClassID] += int64(len(r.db.subtopicsOf(ct.TopicID)))
	}
	return out, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
