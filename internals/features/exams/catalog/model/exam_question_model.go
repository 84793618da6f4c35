// file: internals/features/exams/catalog/model/exam_question_model.go
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeEssay          QuestionType = "essay"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeEssay:
		return true
	}
	return false
}

type ExamQuestionModel struct {
	ExamQuestionID       uuid.UUID    `gorm:"column:exam_question_id;type:uuid;primaryKey" json:"exam_question_id"`
	ExamQuestionExamID   uuid.UUID    `gorm:"column:exam_question_exam_id;type:uuid;not null;index" json:"exam_question_exam_id"`
	ExamQuestionPosition int          `gorm:"column:exam_question_position;not null" json:"exam_question_position"`
	ExamQuestionType     QuestionType `gorm:"column:exam_question_type;size:20;not null" json:"exam_question_type"`
	ExamQuestionPrompt   string       `gorm:"column:exam_question_prompt;type:text;not null" json:"exam_question_prompt"`

	// multiple_choice: ["..","..",..]
	ExamQuestionChoices       datatypes.JSON `gorm:"column:exam_question_choices" json:"exam_question_choices,omitempty"`
	ExamQuestionCorrectChoice *int           `gorm:"column:exam_question_correct_choice" json:"exam_question_correct_choice,omitempty"`
	ExamQuestionCorrectBool   *bool          `gorm:"column:exam_question_correct_bool" json:"exam_question_correct_bool,omitempty"`

	ExamQuestionMaxScore  float64   `gorm:"column:exam_question_max_score;not null" json:"exam_question_max_score"`
	ExamQuestionCreatedAt time.Time `gorm:"column:exam_question_created_at;autoCreateTime" json:"exam_question_created_at"`
}

func (ExamQuestionModel) TableName() string { return "exam_questions" }

func (m *ExamQuestionModel) BeforeCreate(tx *gorm.DB) error {
	if m.ExamQuestionID == uuid.Nil {
		m.ExamQuestionID = uuid.New()
	}
	return nil
}

func (m *ExamQuestionModel) ChoiceList() []string {
	if len(m.ExamQuestionChoices) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(m.ExamQuestionChoices, &out); err != nil {
		return nil
	}
	return out
}

func (m *ExamQuestionModel) SetChoices(choices []string) {
	if choices == nil {
		m.ExamQuestionChoices = nil
		return
	}
	b, _ := json.Marshal(choices)
	m.ExamQuestionChoices = datatypes.JSON(b)
}

// ValidateShape checks the per-type answer key before anything is stored.
func (m *ExamQuestionModel) ValidateShape() error {
	if strings.TrimSpace(m.ExamQuestionPrompt) == "" {
		return errors.New("prompt is required")
	}
	if m.ExamQuestionMaxScore <= 0 {
		return errors.New("max_score must be positive")
	}

	switch m.ExamQuestionType {
	case QuestionTypeMultipleChoice:
		choices := m.ChoiceList()
		if len(choices) < 2 {
			return errors.New("multiple_choice needs at least 2 choices")
		}
		for i, c := range choices {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("choice %d is empty", i)
			}
		}
		if m.ExamQuestionCorrectChoice == nil {
			return errors.New("multiple_choice needs correct_choice")
		}
		if idx := *m.ExamQuestionCorrectChoice; idx < 0 || idx >= len(choices) {
			return fmt.Errorf("correct_choice %d out of range", idx)
		}
		if m.ExamQuestionCorrectBool != nil {
			return errors.New("multiple_choice must not carry correct_bool")
		}
	case QuestionTypeTrueFalse:
		if m.ExamQuestionCorrectBool == nil {
			return errors.New("true_false needs correct_bool")
		}
		if len(m.ExamQuestionChoices) != 0 || m.ExamQuestionCorrectChoice != nil {
			return errors.New("true_false must not carry choices")
		}
	case QuestionTypeEssay:
		if len(m.ExamQuestionChoices) != 0 || m.ExamQuestionCorrectChoice != nil || m.ExamQuestionCorrectBool != nil {
			return errors.New("essay must not carry an answer key")
		}
	default:
		return fmt.Errorf("unknown question type %q", m.ExamQuestionType)
	}
	return nil
}
