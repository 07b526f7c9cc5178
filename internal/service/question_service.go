package service

import (
	"classroom_backend/internal/model"
	"classroom_backend/internal/util"
	"context"
	"fmt"
	"strings"
)

type QuestionService struct {
	Questions QuestionStore
	Topics    TopicStore
}

func NewQuestionService(questions QuestionStore, topics TopicStore) *QuestionService {
	return &QuestionService{
		Questions: questions,
		Topics:    topics,
	}
}

type OptionInput struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionInput struct {
	Text            string                `json:"text"`
	TopicID         string                `json:"topicId"`
	SubtopicID      string                `json:"subtopicId"`
	DifficultyLevel model.DifficultyLevel `json:"difficultyLevel" binding:"omitempty,difficulty"`
	Options         []OptionInput         `json:"options"`
}

// QuestionUpdate Options 为 nil 时保留原选项，否则整体替换
type QuestionUpdate struct {
	Text            *string                `json:"text"`
	DifficultyLevel *model.DifficultyLevel `json:"difficultyLevel" binding:"omitempty,difficulty"`
	Options         []OptionInput          `json:"options"`
}

func buildOptions(in []OptionInput) ([]model.Option, error) {
	if len(in) < util.MinQuestionOptions {
		return nil, util.BadRequestError("at least %d options are required", util.MinQuestionOptions)
	}
	options := make([]model.Option, 0, len(in))
	hasCorrect := false
	for i, o := range in {
		text := strings.TrimSpace(o.Text)
		if text == "" {
			return nil, util.BadRequestError("option %d has no text", i+1)
		}
		hasCorrect = hasCorrect || o.IsCorrect
		options = append(options, model.Option{Text: text, IsCorrect: o.IsCorrect, Position: i})
	}
	if !hasCorrect {
		return nil, util.BadRequestError("at least one option must be marked as correct")
	}
	return options, nil
}

func (s *QuestionService) ListQuestions(ctx context.Context, who model.Identity, filter model.QuestionFilter) ([]model.Question, error) {
	if _, err := requireTeacher(who); err != nil {
		return nil, err
	}
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return nil, util.BadRequestError("unknown difficulty %q", filter.Difficulty)
	}
	questions, err := s.Questions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

func (s *QuestionService) GetQuestion(ctx context.Context, who model.Identity, id string) (*model.Question, error) {
	if _, err := requireTeacher(who); err != nil {
		return nil, err
	}
	q, err := s.Questions.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "question not found")
	}
	return q, nil
}

func (s *QuestionService) CreateQuestion(ctx context.Context, who model.Identity, in QuestionInput) (*model.Question, error) {
	teacher, err := requireTeacher(who)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(in.Text)
	if text == "" || in.TopicID == "" || in.SubtopicID == "" {
		return nil, util.BadRequestError("text, topicId, and subtopicId are required")
	}
	difficulty := in.DifficultyLevel
	if difficulty == "" {
		difficulty = model.DifficultyBeginner
	}
	if !difficulty.Valid() {
		return nil, util.BadRequestError("unknown difficulty %q", difficulty)
	}
	options, err := buildOptions(in.Options)
	if err != nil {
		return nil, err
	}

	subtopic, err := s.Topics.FindSubtopic(ctx, in.SubtopicID)
	if err != nil {
		return nil, storeError(err, "subtopic not found")
	}
	if subtopic.TopicID != in.TopicID {
		return nil, util.BadRequestError("subtopic does not belong to topic")
	}

	q := &model.Question{
		Text:            text,
		TopicID:         in.TopicID,
		SubtopicID:      in.SubtopicID,
		DifficultyLevel: difficulty,
		CreatedByID:     &teacher.TeacherID,
		Options:         options,
	}
	if err := s.Questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, who model.Identity, id string, in QuestionUpdate) (*model.Question, error) {
	if _, err := requireTeacher(who); err != nil {
		return nil, err
	}
	q, err := s.Questions.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "question not found")
	}

	if in.Text != nil {
		text := strings.TrimSpace(*in.Text)
		if text == "" {
			return nil, util.BadRequestError("question text cannot be empty")
		}
		q.Text = text
	}
	if in.DifficultyLevel != nil {
		if !in.DifficultyLevel.Valid() {
			return nil, util.BadRequestError("unknown difficulty %q", *in.DifficultyLevel)
		}
		q.DifficultyLevel = *in.DifficultyLevel
	}
	replace := in.Options != nil
	if replace {
		options, err := buildOptions(in.Options)
		if err != nil {
			return nil, err
		}
		q.Options = options
	}

	if err := s.Questions.Update(ctx, q, replace); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return s.Questions.FindByID(ctx, id)
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, who model.Identity, id string) error {
	if _, err := requireTeacher(who); err != nil {
		return err
	}
	if err := s.Questions.Delete(ctx, id); err != nil {
		return storeError(err, "question not found")
	}
	return nil
}
