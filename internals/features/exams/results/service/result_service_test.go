package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	attemptModel "academy_backend/internals/features/exams/attempts/model"
	attemptService "academy_backend/internals/features/exams/attempts/service"
	catalogDTO "academy_backend/internals/features/exams/catalog/dto"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
	catalogService "academy_backend/internals/features/exams/catalog/service"
	practicalDTO "academy_backend/internals/features/exams/practicals/dto"
	practicalService "academy_backend/internals/features/exams/practicals/service"
	registrationService "academy_backend/internals/features/exams/registrations/service"
	"academy_backend/internals/features/exams/results/model"
	"academy_backend/internals/features/exams/results/service"
	"academy_backend/internals/testutil"
)

var practical = practicalDTO.Scores{Morality: 80, Method: 10, Technique: 75, Physical: 70, Mental: 65}

// ready brings one student to the point where finalize is allowed.
func ready(t *testing.T, db *gorm.DB, f testutil.ExamFixture, correct int) (*catalogModel.ExamModel, uuid.UUID, *attemptModel.ExamAttemptModel) {
	t.Helper()
	exam := testutil.CreateExam(t, db, f)
	student := uuid.New()
	attempt := testutil.SubmitTheory(t, db, exam, student, correct)
	if _, err := practicalService.NewPracticalService(db).Record(context.Background(), exam.ExamID, student, practical, nil, uuid.New()); err != nil {
		t.Fatalf("record practical: %v", err)
	}
	return exam, student, attempt
}

func TestFinalizeScenarios(t *testing.T) {
	tests := []struct {
		name       string
		correct    int
		wantTheory float64
		wantTotal  float64
		wantPassed bool
	}{
		{name: "theory 7 passes", correct: 7, wantTheory: 7, wantTotal: 307, wantPassed: true},
		{name: "theory 5 fails", correct: 5, wantTheory: 5, wantTotal: 305, wantPassed: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			exam, student, attempt := ready(t, db, testutil.ExamFixture{MultipleChoice: 10}, tc.correct)

			res, err := service.NewResultService(db).Finalize(context.Background(), exam.ExamID, student, uuid.New())
			if err != nil {
				t.Fatalf("finalize: %v", err)
			}
			if res.ExamResultTheoryScore != tc.wantTheory {
				t.Errorf("theory = %v, want %v", res.ExamResultTheoryScore, tc.wantTheory)
			}
			if res.ExamResultMethodTotal != tc.wantTheory+practical.Method {
				t.Errorf("method total = %v, want %v", res.ExamResultMethodTotal, tc.wantTheory+practical.Method)
			}
			if res.ExamResultTotalScore != tc.wantTotal {
				t.Errorf("total = %v, want %v", res.ExamResultTotalScore, tc.wantTotal)
			}
			if res.ExamResultFinalPassMark != 306 {
				t.Errorf("final pass mark = %v, want 306", res.ExamResultFinalPassMark)
			}
			if res.ExamResultPassed != tc.wantPassed {
				t.Errorf("passed = %v, want %v", res.ExamResultPassed, tc.wantPassed)
			}

			var annotated attemptModel.ExamAttemptModel
			if err := db.First(&annotated, "exam_attempt_id = ?", attempt.ExamAttemptID).Error; err != nil {
				t.Fatalf("reload attempt: %v", err)
			}
			if annotated.ExamAttemptFinalPassed == nil || *annotated.ExamAttemptFinalPassed != tc.wantPassed {
				t.Errorf("attempt final_passed = %v, want %v", annotated.ExamAttemptFinalPassed, tc.wantPassed)
			}
			if annotated.ExamAttemptFinalTotalScore == nil || *annotated.ExamAttemptFinalTotalScore != tc.wantTotal {
				t.Errorf("attempt final_total_score = %v, want %v", annotated.ExamAttemptFinalTotalScore, tc.wantTotal)
			}
		})
	}
}

func TestFinalizePreconditions(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewResultService(db)
	ctx := context.Background()
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 10})

	_, err := svc.Finalize(ctx, exam.ExamID, uuid.New(), uuid.New())
	testutil.WantStatus(t, err, fiber.StatusBadRequest)

	student := uuid.New()
	testutil.SubmitTheory(t, db, exam, student, 7)
	_, err = svc.Finalize(ctx, exam.ExamID, student, uuid.New())
	testutil.WantStatus(t, err, fiber.StatusBadRequest)
}

// The theory verdict is recomputed against the exam's pass mark at finalize time.
func TestFinalizeUsesCurrentPassMark(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	exam, student, attempt := ready(t, db, testutil.ExamFixture{MultipleChoice: 10}, 7)
	if !attempt.ExamAttemptTheoryPass {
		t.Fatalf("attempt should pass theory at the original mark")
	}

	if _, err := catalogService.NewExamService(db).Update(ctx, exam.ExamID, catalogDTO.PatchExamRequest{
		TheoryPassMark: catalogDTO.Set(8.0),
	}); err != nil {
		t.Fatalf("raise pass mark: %v", err)
	}

	res, err := service.NewResultService(db).Finalize(ctx, exam.ExamID, student, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.ExamResultTheoryPassMark != 8 || res.ExamResultTheoryPass {
		t.Errorf("theory pass mark=%v pass=%v, want 8 and false", res.ExamResultTheoryPassMark, res.ExamResultTheoryPass)
	}
	if res.ExamResultTotalScore != 307 || res.ExamResultFinalPassMark != 306 {
		t.Errorf("total=%v final mark=%v, want 307/306", res.ExamResultTotalScore, res.ExamResultFinalPassMark)
	}
	if res.ExamResultPassed {
		t.Errorf("passed = true, want false once theory fails")
	}

	var stored attemptModel.ExamAttemptModel
	if err := db.First(&stored, "exam_attempt_id = ?", attempt.ExamAttemptID).Error; err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if !stored.ExamAttemptTheoryPass {
		t.Errorf("attempt theory_pass was rewritten by finalize")
	}
}

func TestFinalizeTwiceConflicts(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewResultService(db)
	ctx := context.Background()
	exam, student, _ := ready(t, db, testutil.ExamFixture{MultipleChoice: 10}, 7)

	first, err := svc.Finalize(ctx, exam.ExamID, student, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	_, err = svc.Finalize(ctx, exam.ExamID, student, uuid.New())
	testutil.WantStatus(t, err, fiber.StatusConflict)

	stored, err := svc.Get(ctx, exam.ExamID, student)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ExamResultID != first.ExamResultID || stored.ExamResultTotalScore != first.ExamResultTotalScore {
		t.Fatalf("stored result differs from the first finalize")
	}
}

func TestConcurrentFinalizeCreatesOneResult(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewResultService(db)
	exam, student, _ := ready(t, db, testutil.ExamFixture{MultipleChoice: 10}, 7)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Finalize(context.Background(), exam.ExamID, student, uuid.New())
			mu.Lock()
			defer mu.Unlock()
			var fe *fiber.Error
			switch {
			case err == nil:
				created++
			case errors.As(err, &fe) && fe.Code == fiber.StatusConflict:
				conflicts++
			default:
				t.Errorf("finalize: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || conflicts != n-1 {
		t.Fatalf("created=%d conflicts=%d, want 1/%d", created, conflicts, n-1)
	}
	var count int64
	db.Model(&model.ExamFinalResultModel{}).Count(&count)
	if count != 1 {
		t.Fatalf("result rows = %d, want 1", count)
	}
}

func TestFinalizedPairIsClosed(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	exam, student, attempt := ready(t, db, testutil.ExamFixture{MultipleChoice: 10}, 7)
	if _, err := service.NewResultService(db).Finalize(ctx, exam.ExamID, student, uuid.New()); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	attempts := attemptService.NewAttemptService(db)
	_, err := attempts.Start(ctx, exam.ExamID, student)
	testutil.WantStatus(t, err, fiber.StatusConflict)

	_, _, err = registrationService.NewRegistrationService(db).Register(ctx, exam.ExamID, student)
	testutil.WantStatus(t, err, fiber.StatusConflict)

	_, err = practicalService.NewPracticalService(db).Record(ctx, exam.ExamID, student, practical, nil, uuid.New())
	testutil.WantStatus(t, err, fiber.StatusConflict)

	// the attempt is already submitted, so the finalize guard is not reached here
	_, err = attempts.Submit(ctx, attempt.ExamAttemptID, student, nil, attemptService.AntiCheat{})
	testutil.WantStatus(t, err, fiber.StatusConflict)
}

func TestFinalizeCountsEssayGrades(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	// 8 one-point questions plus one essay worth 2: max 10, pass mark 6
	exam, student, attempt := ready(t, db, testutil.ExamFixture{MultipleChoice: 8, Essays: 1, EssayMax: 2}, 5)

	var essayID uuid.UUID
	for _, q := range exam.Questions {
		if q.ExamQuestionType == catalogModel.QuestionTypeEssay {
			essayID = q.ExamQuestionID
		}
	}

	strict := service.NewResultService(db)
	strict.RequireEssayGrading = true
	_, err := strict.Finalize(ctx, exam.ExamID, student, uuid.New())
	testutil.WantStatus(t, err, fiber.StatusBadRequest)

	if _, err := attemptService.NewAttemptService(db).GradeEssay(ctx, attempt.ExamAttemptID, essayID, 2, uuid.New()); err != nil {
		t.Fatalf("grade essay: %v", err)
	}

	res, err := strict.Finalize(ctx, exam.ExamID, student, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.ExamResultAutoTheoryScore != 5 || res.ExamResultEssayScore != 2 || res.ExamResultTheoryScore != 7 {
		t.Fatalf("theory = %v + %v = %v, want 5 + 2 = 7",
			res.ExamResultAutoTheoryScore, res.ExamResultEssayScore, res.ExamResultTheoryScore)
	}
	if res.ExamResultPendingEssays != 0 || !res.ExamResultTheoryPass || !res.ExamResultPassed {
		t.Fatalf("pending=%d theory_pass=%v passed=%v", res.ExamResultPendingEssays, res.ExamResultTheoryPass, res.ExamResultPassed)
	}

	_, err = attemptService.NewAttemptService(db).GradeEssay(ctx, attempt.ExamAttemptID, essayID, 1, uuid.New())
	testutil.WantStatus(t, err, fiber.StatusConflict)
}

func TestFinalizeWithPendingEssayWhenAllowed(t *testing.T) {
	db := testutil.NewDB(t)
	exam, student, _ := ready(t, db, testutil.ExamFixture{MultipleChoice: 8, Essays: 1, EssayMax: 2}, 7)

	svc := service.NewResultService(db)
	svc.RequireEssayGrading = false
	res, err := svc.Finalize(context.Background(), exam.ExamID, student, uuid.New())
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if res.ExamResultPendingEssays != 1 || res.ExamResultEssayScore != 0 || res.ExamResultTheoryScore != 7 {
		t.Fatalf("pending=%d essay=%v theory=%v", res.ExamResultPendingEssays, res.ExamResultEssayScore, res.ExamResultTheoryScore)
	}
}
