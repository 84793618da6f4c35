// file: internals/features/exams/attempts/model/attempt_model.go
package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogModel "academy_backend/internals/features/exams/catalog/model"
)

/*
=========================================================

	EXAM ATTEMPTS
	none -> open (submitted_at NULL) -> submitted (terminal)
	- at most one open row per exam × student   (idx_exam_attempts_open)
	- at most one submitted row per exam × student (idx_exam_attempts_submitted)
	- questions are graded against the snapshot taken at start

=========================================================
*/

// VisibilityLossLimit is the client-side auto-submit threshold; the server only records it.
const VisibilityLossLimit = 3

type ForcedReason string

const (
	ForcedReasonVisibilityLimit ForcedReason = "visibility_limit"
	ForcedReasonTimeExpired     ForcedReason = "time_expired"
	ForcedReasonManual          ForcedReason = "manual"
)

// Partial unique indexes; AutoMigrate tags cannot express both on the same columns.
var PartialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_attempts_open
		ON exam_attempts (exam_attempt_exam_id, exam_attempt_student_id)
		WHERE exam_attempt_submitted_at IS NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_attempts_submitted
		ON exam_attempts (exam_attempt_exam_id, exam_attempt_student_id)
		WHERE exam_attempt_submitted_at IS NOT NULL`,
}

/* =========================================================
   JSON payloads
========================================================= */

// QuestionSnapshot is one question as it looked when the attempt started.
type QuestionSnapshot struct {
	QuestionID    uuid.UUID                 `json:"question_id"`
	Position      int                       `json:"position"`
	Type          catalogModel.QuestionType `json:"type"`
	Prompt        string                    `json:"prompt"`
	Choices       []string                  `json:"choices,omitempty"`
	CorrectChoice *int                      `json:"correct_choice,omitempty"`
	CorrectBool   *bool                     `json:"correct_bool,omitempty"`
	MaxScore      float64                   `json:"max_score"`
}

// AnswerInput is what the student sends for one question.
type AnswerInput struct {
	QuestionID uuid.UUID `json:"question_id" validate:"required"`
	Choice     *int      `json:"choice,omitempty" validate:"omitempty,gte=0"`
	Bool       *bool     `json:"bool,omitempty"`
	Text       *string   `json:"text,omitempty" validate:"omitempty,max=20000"`
}

// GradedAnswer is the stored result for one question.
// Essays keep AutoScore 0; their manual score lives in exam_essay_grades.
type GradedAnswer struct {
	QuestionID uuid.UUID                 `json:"question_id"`
	Type       catalogModel.QuestionType `json:"type"`
	Choice     *int                      `json:"choice,omitempty"`
	Bool       *bool                     `json:"bool,omitempty"`
	Text       *string                   `json:"text,omitempty"`
	Answered   bool                      `json:"answered"`
	IsCorrect  *bool                     `json:"is_correct,omitempty"`
	MaxScore   float64                   `json:"max_score"`
	AutoScore  float64                   `json:"auto_score"`
}

/* =========================================================
   MODEL
========================================================= */

type ExamAttemptModel struct {
	ExamAttemptID        uuid.UUID `gorm:"column:exam_attempt_id;type:uuid;primaryKey" json:"exam_attempt_id"`
	ExamAttemptExamID    uuid.UUID `gorm:"column:exam_attempt_exam_id;type:uuid;not null;index" json:"exam_attempt_exam_id"`
	ExamAttemptStudentID uuid.UUID `gorm:"column:exam_attempt_student_id;type:uuid;not null;index" json:"exam_attempt_student_id"`

	ExamAttemptStartedAt   time.Time  `gorm:"column:exam_attempt_started_at;not null" json:"exam_attempt_started_at"`
	ExamAttemptExpiresAt   time.Time  `gorm:"column:exam_attempt_expires_at;not null;index" json:"exam_attempt_expires_at"`
	ExamAttemptSubmittedAt *time.Time `gorm:"column:exam_attempt_submitted_at" json:"exam_attempt_submitted_at,omitempty"`

	// snapshot taken at start
	ExamAttemptQuestions              datatypes.JSON `gorm:"column:exam_attempt_questions;not null" json:"-"`
	ExamAttemptMaxTheoryScoreSnapshot float64        `gorm:"column:exam_attempt_max_theory_score_snapshot;not null" json:"exam_attempt_max_theory_score_snapshot"`
	ExamAttemptTheoryPassMarkSnapshot float64        `gorm:"column:exam_attempt_theory_pass_mark_snapshot;not null" json:"exam_attempt_theory_pass_mark_snapshot"`

	ExamAttemptDraftAnswers datatypes.JSON `gorm:"column:exam_attempt_draft_answers" json:"-"`
	ExamAttemptAnswers      datatypes.JSON `gorm:"column:exam_attempt_answers" json:"-"`

	// grading
	ExamAttemptAutoScore     float64 `gorm:"column:exam_attempt_auto_score;not null" json:"exam_attempt_auto_score"`
	ExamAttemptTheoryScore   float64 `gorm:"column:exam_attempt_theory_score;not null" json:"exam_attempt_theory_score"`
	ExamAttemptTheoryPass    bool    `gorm:"column:exam_attempt_theory_pass;not null" json:"exam_attempt_theory_pass"`
	ExamAttemptEssayMaxScore float64 `gorm:"column:exam_attempt_essay_max_score;not null" json:"exam_attempt_essay_max_score"`

	// anti-cheat (advisory)
	ExamAttemptVisibilityLossCount int           `gorm:"column:exam_attempt_visibility_loss_count;not null" json:"exam_attempt_visibility_loss_count"`
	ExamAttemptForcedSubmit        bool          `gorm:"column:exam_attempt_forced_submit;not null" json:"exam_attempt_forced_submit"`
	ExamAttemptForcedReason        *ForcedReason `gorm:"column:exam_attempt_forced_reason;size:24" json:"exam_attempt_forced_reason,omitempty"`
	ExamAttemptSubmittedLate       bool          `gorm:"column:exam_attempt_submitted_late;not null" json:"exam_attempt_submitted_late"`
	ExamAttemptCheatFlagged        bool          `gorm:"column:exam_attempt_cheat_flagged;not null" json:"exam_attempt_cheat_flagged"`

	// denormalized from the final result
	ExamAttemptFinalPassed     *bool    `gorm:"column:exam_attempt_final_passed" json:"exam_attempt_final_passed,omitempty"`
	ExamAttemptFinalTotalScore *float64 `gorm:"column:exam_attempt_final_total_score" json:"exam_attempt_final_total_score,omitempty"`

	ExamAttemptCreatedAt time.Time `gorm:"column:exam_attempt_created_at;autoCreateTime" json:"exam_attempt_created_at"`
	ExamAttemptUpdatedAt time.Time `gorm:"column:exam_attempt_updated_at;autoUpdateTime" json:"exam_attempt_updated_at"`
}

func (ExamAttemptModel) TableName() string { return "exam_attempts" }

func (m *ExamAttemptModel) BeforeCreate(tx *gorm.DB) error {
	if m.ExamAttemptID == uuid.Nil {
		m.ExamAttemptID = uuid.New()
	}
	return nil
}

func (m *ExamAttemptModel) IsSubmitted() bool { return m.ExamAttemptSubmittedAt != nil }

/* =========================================================
   JSON helpers
========================================================= */

func (m *ExamAttemptModel) SetQuestions(qs []QuestionSnapshot) error {
	b, err := json.Marshal(qs)
	if err != nil {
		return fmt.Errorf("marshal exam_attempt_questions: %w", err)
	}
	m.ExamAttemptQuestions = datatypes.JSON(b)
	return nil
}

func (m *ExamAttemptModel) Questions() ([]QuestionSnapshot, error) {
	var qs []QuestionSnapshot
	if len(m.ExamAttemptQuestions) == 0 {
		return qs, nil
	}
	if err := json.Unmarshal(m.ExamAttemptQuestions, &qs); err != nil {
		return nil, fmt.Errorf("invalid exam_attempt_questions json: %w", err)
	}
	return qs, nil
}

func (m *ExamAttemptModel) DraftAnswers() ([]AnswerInput, error) {
	var out []AnswerInput
	if len(m.ExamAttemptDraftAnswers) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(m.ExamAttemptDraftAnswers, &out); err != nil {
		return nil, fmt.Errorf("invalid exam_attempt_draft_answers json: %w", err)
	}
	return out, nil
}

func (m *ExamAttemptModel) GradedAnswers() ([]GradedAnswer, error) {
	var out []GradedAnswer
	if len(m.ExamAttemptAnswers) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(m.ExamAttemptAnswers, &out); err != nil {
		return nil, fmt.Errorf("invalid exam_attempt_answers json: %w", err)
	}
	return out, nil
}

// FindQuestion looks a question up in the snapshot.
func (m *ExamAttemptModel) FindQuestion(id uuid.UUID) (*QuestionSnapshot, error) {
	qs, err := m.Questions()
	if err != nil {
		return nil, err
	}
	for i := range qs {
		if qs[i].QuestionID == id {
			return &qs[i], nil
		}
	}
	return nil, nil
}
