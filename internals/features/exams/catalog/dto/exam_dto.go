// file: internals/features/exams/catalog/dto/exam_dto.go
package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"academy_backend/internals/features/exams/catalog/model"
)

/* ==============================
   Tri-state PATCH field
   absent = skip, null = clear, value = set
============================== */

type UpdateField[T any] struct {
	set   bool
	null  bool
	value T
}

func (f *UpdateField[T]) UnmarshalJSON(b []byte) error {
	f.set = true
	if string(b) == "null" {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	return json.Unmarshal(b, &f.value)
}

func (f UpdateField[T]) ShouldUpdate() bool { return f.set }
func (f UpdateField[T]) IsNull() bool       { return f.set && f.null }
func (f UpdateField[T]) Val() T             { return f.value }

// Set builds a field that is present with v; used by callers outside JSON.
func Set[T any](v T) UpdateField[T] { return UpdateField[T]{set: true, value: v} }

// Null builds a field that is present and explicitly null.
func Null[T any]() UpdateField[T] { return UpdateField[T]{set: true, null: true} }

/* ==============================
   QUESTIONS
============================== */

type QuestionInput struct {
	Type          model.QuestionType `json:"type" validate:"required,oneof=multiple_choice true_false essay"`
	Prompt        string             `json:"prompt" validate:"required,max=5000"`
	Choices       []string           `json:"choices,omitempty" validate:"omitempty,max=10"`
	CorrectChoice *int               `json:"correct_choice,omitempty"`
	CorrectBool   *bool              `json:"correct_bool,omitempty"`
	MaxScore      *float64           `json:"max_score,omitempty" validate:"omitempty,gt=0,lte=1000"`
}

// ToModel assigns position and defaults; shape is checked by the model.
func (q QuestionInput) ToModel(position int) model.ExamQuestionModel {
	maxScore := model.DefaultMaxScore
	if q.MaxScore != nil {
		maxScore = *q.MaxScore
	}
	m := model.ExamQuestionModel{
		ExamQuestionID:            uuid.New(),
		ExamQuestionPosition:      position,
		ExamQuestionType:          q.Type,
		ExamQuestionPrompt:        strings.TrimSpace(q.Prompt),
		ExamQuestionCorrectChoice: q.CorrectChoice,
		ExamQuestionCorrectBool:   q.CorrectBool,
		ExamQuestionMaxScore:      maxScore,
	}
	if len(q.Choices) > 0 {
		m.SetChoices(q.Choices)
	}
	return m
}

/* ==============================
   CREATE (POST /api/a/exams)
============================== */

type CreateExamRequest struct {
	Title            string          `json:"title" validate:"max=180"`
	Description      *string         `json:"description,omitempty"`
	BeltLevel        string          `json:"belt_level" validate:"max=40"`
	TimeLimitMinutes int             `json:"time_limit_minutes" validate:"gte=0,lte=600"`
	MaxTheoryScore   *float64        `json:"max_theory_score,omitempty" validate:"omitempty,gt=0"`
	TheoryPassMark   *float64        `json:"theory_pass_mark,omitempty" validate:"omitempty,gte=0"`
	FinalPassMark    *float64        `json:"final_pass_mark,omitempty" validate:"omitempty,gte=0"`
	Questions        []QuestionInput `json:"questions" validate:"omitempty,dive"`
	Publish          bool            `json:"publish"`
}

/* ==============================
   PATCH (PATCH /api/a/exams/:id)
============================== */

type PatchExamRequest struct {
	Title            UpdateField[string]  `json:"title"`
	Description      UpdateField[string]  `json:"description"`
	BeltLevel        UpdateField[string]  `json:"belt_level"`
	TimeLimitMinutes UpdateField[int]     `json:"time_limit_minutes"`
	MaxTheoryScore   UpdateField[float64] `json:"max_theory_score"`
	TheoryPassMark   UpdateField[float64] `json:"theory_pass_mark"`
	FinalPassMark    UpdateField[float64] `json:"final_pass_mark"`

	// replaces the whole question list; drafts only
	Questions *[]QuestionInput `json:"questions" validate:"omitempty,dive"`
}

/* ==============================
   LIST FILTER
============================== */

type ListExamQuery struct {
	Status    string `query:"status" validate:"omitempty,oneof=draft published archived"`
	BeltLevel string `query:"belt_level" validate:"omitempty,max=40"`
	Q         string `query:"q" validate:"omitempty,max=100"`
}

/* ==============================
   RESPONSES
============================== */

// StudentQuestion hides the answer key.
type StudentQuestion struct {
	QuestionID uuid.UUID          `json:"question_id"`
	Position   int                `json:"position"`
	Type       model.QuestionType `json:"type"`
	Prompt     string             `json:"prompt"`
	Choices    []string           `json:"choices,omitempty"`
	MaxScore   float64            `json:"max_score"`
}

type StudentExamResponse struct {
	ExamID           uuid.UUID         `json:"exam_id"`
	Title            string            `json:"title"`
	Description      *string           `json:"description,omitempty"`
	BeltLevel        string            `json:"belt_level"`
	TimeLimitMinutes int               `json:"time_limit_minutes"`
	MaxTheoryScore   float64           `json:"max_theory_score"`
	TheoryPassMark   float64           `json:"theory_pass_mark"`
	FinalPassMark    float64           `json:"final_pass_mark"`
	QuestionCount    int               `json:"question_count"`
	PublishedAt      *time.Time        `json:"published_at,omitempty"`
	Questions        []StudentQuestion `json:"questions,omitempty"`
}

func ToStudentExam(m *model.ExamModel, withQuestions bool) StudentExamResponse {
	out := StudentExamResponse{
		ExamID:           m.ExamID,
		Title:            m.ExamTitle,
		Description:      m.ExamDescription,
		BeltLevel:        m.ExamBeltLevel,
		TimeLimitMinutes: m.ExamTimeLimitMinutes,
		MaxTheoryScore:   m.ExamMaxTheoryScore,
		TheoryPassMark:   m.ExamTheoryPassMark,
		FinalPassMark:    m.ExamFinalPassMark,
		QuestionCount:    len(m.Questions),
		PublishedAt:      m.ExamPublishedAt,
	}
	if withQuestions {
		out.Questions = make([]StudentQuestion, 0, len(m.Questions))
		for i := range m.Questions {
			q := &m.Questions[i]
			out.Questions = append(out.Questions, StudentQuestion{
				QuestionID: q.ExamQuestionID,
				Position:   q.ExamQuestionPosition,
				Type:       q.ExamQuestionType,
				Prompt:     q.ExamQuestionPrompt,
				Choices:    q.ChoiceList(),
				MaxScore:   q.ExamQuestionMaxScore,
			})
		}
	}
	return out
}

func ToStudentExams(rows []model.ExamModel) []StudentExamResponse {
	out := make([]StudentExamResponse, 0, len(rows))
	for i := range rows {
		out = append(out, ToStudentExam(&rows[i], false))
	}
	return out
}
