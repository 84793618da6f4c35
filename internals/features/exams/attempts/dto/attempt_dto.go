// file: internals/features/exams/attempts/dto/attempt_dto.go
package dto

import (
	"math"
	"time"

	"github.com/google/uuid"

	"academy_backend/internals/features/exams/attempts/model"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
)

/* ==============================
   REQUESTS
============================== */

// SubmitAttemptRequest is POST /api/u/attempts/:id/submit.
type SubmitAttemptRequest struct {
	Answers             []model.AnswerInput `json:"answers" validate:"omitempty,max=500,dive"`
	VisibilityLossCount int                 `json:"visibility_loss_count" validate:"gte=0,lte=10000"`
	ForcedSubmit        bool                `json:"forced_submit"`
	ForcedReason        *string             `json:"forced_reason,omitempty" validate:"omitempty,oneof=visibility_limit time_expired manual"`
}

func (r SubmitAttemptRequest) Reason() *model.ForcedReason {
	if r.ForcedReason == nil {
		return nil
	}
	fr := model.ForcedReason(*r.ForcedReason)
	return &fr
}

// SaveDraftRequest is PATCH /api/u/attempts/:id/draft.
type SaveDraftRequest struct {
	Answers             []model.AnswerInput `json:"answers" validate:"omitempty,max=500,dive"`
	VisibilityLossCount int                 `json:"visibility_loss_count" validate:"gte=0,lte=10000"`
}

// GradeEssayRequest is PUT /api/a/attempts/:id/essays/:questionId.
type GradeEssayRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0"`
}

type ListSubmissionQuery struct {
	ExamID    string `query:"exam_id" validate:"omitempty,uuid"`
	StudentID string `query:"student_id" validate:"omitempty,uuid"`
}

/* ==============================
   STUDENT VIEW (no answer keys)
============================== */

type StudentQuestion struct {
	QuestionID uuid.UUID                 `json:"question_id"`
	Position   int                       `json:"position"`
	Type       catalogModel.QuestionType `json:"type"`
	Prompt     string                    `json:"prompt"`
	Choices    []string                  `json:"choices,omitempty"`
	MaxScore   float64                   `json:"max_score"`
}

type AttemptView struct {
	AttemptID           uuid.UUID           `json:"attempt_id"`
	ExamID              uuid.UUID           `json:"exam_id"`
	StartedAt           time.Time           `json:"started_at"`
	ExpiresAt           time.Time           `json:"expires_at"`
	RemainingSeconds    int64               `json:"remaining_seconds"`
	VisibilityLossLimit int                 `json:"visibility_loss_limit"`
	VisibilityLossCount int                 `json:"visibility_loss_count"`
	MaxTheoryScore      float64             `json:"max_theory_score"`
	Questions           []StudentQuestion   `json:"questions"`
	DraftAnswers        []model.AnswerInput `json:"draft_answers,omitempty"`
}

func ToAttemptView(a *model.ExamAttemptModel, now time.Time) (AttemptView, error) {
	qs, err := a.Questions()
	if err != nil {
		return AttemptView{}, err
	}
	drafts, err := a.DraftAnswers()
	if err != nil {
		return AttemptView{}, err
	}

	remaining := int64(math.Ceil(a.ExamAttemptExpiresAt.Sub(now).Seconds()))
	if remaining < 0 {
		remaining = 0
	}

	out := AttemptView{
		AttemptID:           a.ExamAttemptID,
		ExamID:              a.ExamAttemptExamID,
		StartedAt:           a.ExamAttemptStartedAt,
		ExpiresAt:           a.ExamAttemptExpiresAt,
		RemainingSeconds:    remaining,
		VisibilityLossLimit: model.VisibilityLossLimit,
		VisibilityLossCount: a.ExamAttemptVisibilityLossCount,
		MaxTheoryScore:      a.ExamAttemptMaxTheoryScoreSnapshot,
		Questions:           make([]StudentQuestion, 0, len(qs)),
		DraftAnswers:        drafts,
	}
	for _, q := range qs {
		out.Questions = append(out.Questions, StudentQuestion{
			QuestionID: q.QuestionID,
			Position:   q.Position,
			Type:       q.Type,
			Prompt:     q.Prompt,
			Choices:    q.Choices,
			MaxScore:   q.MaxScore,
		})
	}
	return out, nil
}

/* ==============================
   SUBMISSION SUMMARY
============================== */

type AttemptSummary struct {
	AttemptID           uuid.UUID           `json:"attempt_id"`
	ExamID              uuid.UUID           `json:"exam_id"`
	StudentID           uuid.UUID           `json:"student_id"`
	StartedAt           time.Time           `json:"started_at"`
	ExpiresAt           time.Time           `json:"expires_at"`
	SubmittedAt         *time.Time          `json:"submitted_at,omitempty"`
	AutoScore           float64             `json:"auto_score"`
	TheoryScore         float64             `json:"theory_score"`
	MaxTheoryScore      float64             `json:"max_theory_score"`
	TheoryPass          bool                `json:"theory_pass"`
	EssayMaxScore       float64             `json:"essay_max_score"`
	VisibilityLossCount int                 `json:"visibility_loss_count"`
	ForcedSubmit        bool                `json:"forced_submit"`
	ForcedReason        *model.ForcedReason `json:"forced_reason,omitempty"`
	SubmittedLate       bool                `json:"submitted_late"`
	CheatFlagged        bool                `json:"cheat_flagged"`
	FinalPassed         *bool               `json:"final_passed,omitempty"`
	FinalTotalScore     *float64            `json:"final_total_score,omitempty"`
}

func ToAttemptSummary(a *model.ExamAttemptModel) AttemptSummary {
	return AttemptSummary{
		AttemptID:           a.ExamAttemptID,
		ExamID:              a.ExamAttemptExamID,
		StudentID:           a.ExamAttemptStudentID,
		StartedAt:           a.ExamAttemptStartedAt,
		ExpiresAt:           a.ExamAttemptExpiresAt,
		SubmittedAt:         a.ExamAttemptSubmittedAt,
		AutoScore:           a.ExamAttemptAutoScore,
		TheoryScore:         a.ExamAttemptTheoryScore,
		MaxTheoryScore:      a.ExamAttemptMaxTheoryScoreSnapshot,
		TheoryPass:          a.ExamAttemptTheoryPass,
		EssayMaxScore:       a.ExamAttemptEssayMaxScore,
		VisibilityLossCount: a.ExamAttemptVisibilityLossCount,
		ForcedSubmit:        a.ExamAttemptForcedSubmit,
		ForcedReason:        a.ExamAttemptForcedReason,
		SubmittedLate:       a.ExamAttemptSubmittedLate,
		CheatFlagged:        a.ExamAttemptCheatFlagged,
		FinalPassed:         a.ExamAttemptFinalPassed,
		FinalTotalScore:     a.ExamAttemptFinalTotalScore,
	}
}

func ToAttemptSummaries(rows []model.ExamAttemptModel) []AttemptSummary {
	out := make([]AttemptSummary, 0, len(rows))
	for i := range rows {
		out = append(out, ToAttemptSummary(&rows[i]))
	}
	return out
}

/* ==============================
   STAFF DETAIL
============================== */

// ReviewedAnswer is one graded answer with its manual essay score, if any.
type ReviewedAnswer struct {
	model.GradedAnswer
	Prompt      string   `json:"prompt"`
	ManualScore *float64 `json:"manual_score"`
}

type AttemptDetail struct {
	AttemptSummary
	Answers       []ReviewedAnswer `json:"answers"`
	PendingEssays int              `json:"pending_essays"`
}

func ToAttemptDetail(a *model.ExamAttemptModel, grades []model.ExamEssayGradeModel) (AttemptDetail, error) {
	graded, err := a.GradedAnswers()
	if err != nil {
		return AttemptDetail{}, err
	}
	qs, err := a.Questions()
	if err != nil {
		return AttemptDetail{}, err
	}
	prompts := make(map[uuid.UUID]string, len(qs))
	for _, q := range qs {
		prompts[q.QuestionID] = q.Prompt
	}
	manual := make(map[uuid.UUID]float64, len(grades))
	for _, g := range grades {
		manual[g.ExamEssayGradeQuestionID] = g.ExamEssayGradeScore
	}

	out := AttemptDetail{
		AttemptSummary: ToAttemptSummary(a),
		Answers:        make([]ReviewedAnswer, 0, len(graded)),
	}
	for _, g := range graded {
		ra := ReviewedAnswer{GradedAnswer: g, Prompt: prompts[g.QuestionID]}
		if g.Type == catalogModel.QuestionTypeEssay {
			if v, ok := manual[g.QuestionID]; ok {
				v := v
				ra.ManualScore = &v
			} else {
				out.PendingEssays++
			}
		}
		out.Answers = append(out.Answers, ra)
	}
	return out, nil
}
