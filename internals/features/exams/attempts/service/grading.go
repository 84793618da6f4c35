// file: internals/features/exams/attempts/service/grading.go
package service

import (
	"strings"

	"github.com/google/uuid"

	"academy_backend/internals/features/exams/attempts/model"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
)

// Snapshot freezes the exam's questions for one attempt.
func Snapshot(exam *catalogModel.ExamModel) []model.QuestionSnapshot {
	out := make([]model.QuestionSnapshot, 0, len(exam.Questions))
	for i := range exam.Questions {
		q := &exam.Questions[i]
		out = append(out, model.QuestionSnapshot{
			QuestionID:    q.ExamQuestionID,
			Position:      q.ExamQuestionPosition,
			Type:          q.ExamQuestionType,
			Prompt:        q.ExamQuestionPrompt,
			Choices:       q.ChoiceList(),
			CorrectChoice: q.ExamQuestionCorrectChoice,
			CorrectBool:   q.ExamQuestionCorrectBool,
			MaxScore:      q.ExamQuestionMaxScore,
		})
	}
	return out
}

// GradeSheet is the outcome of auto grading one answer sheet.
type GradeSheet struct {
	Answers       []model.GradedAnswer
	AutoScore     float64
	EssayMaxScore float64
	EssayCount    int
}

// Grade scores answers against the snapshot. Unknown question ids are
// ignored and the last answer for a question wins. Essays score 0 here.
func Grade(questions []model.QuestionSnapshot, answers []model.AnswerInput) GradeSheet {
	byID := make(map[uuid.UUID]model.AnswerInput, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}

	sheet := GradeSheet{Answers: make([]model.GradedAnswer, 0, len(questions))}
	for _, q := range questions {
		in, has := byID[q.QuestionID]
		g := model.GradedAnswer{
			QuestionID: q.QuestionID,
			Type:       q.Type,
			MaxScore:   q.MaxScore,
		}

		switch q.Type {
		case catalogModel.QuestionTypeMultipleChoice:
			correct := false
			if has && in.Choice != nil {
				g.Choice = in.Choice
				g.Answered = true
				correct = q.CorrectChoice != nil && *in.Choice == *q.CorrectChoice
			}
			g.IsCorrect = &correct
			if correct {
				g.AutoScore = q.MaxScore
			}

		case catalogModel.QuestionTypeTrueFalse:
			correct := false
			if has && in.Bool != nil {
				g.Bool = in.Bool
				g.Answered = true
				correct = q.CorrectBool != nil && *in.Bool == *q.CorrectBool
			}
			g.IsCorrect = &correct
			if correct {
				g.AutoScore = q.MaxScore
			}

		case catalogModel.QuestionTypeEssay:
			if has && in.Text != nil {
				text := strings.TrimSpace(*in.Text)
				if text != "" {
					g.Text = &text
					g.Answered = true
				}
			}
			sheet.EssayCount++
			sheet.EssayMaxScore += q.MaxScore
		}

		sheet.AutoScore += g.AutoScore
		sheet.Answers = append(sheet.Answers, g)
	}
	return sheet
}

// TheoryPass is the single pass rule for the theory part.
func TheoryPass(score, passMark float64) bool {
	return score >= passMark
}
