package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	attemptModel "academy_backend/internals/features/exams/attempts/model"
	attemptService "academy_backend/internals/features/exams/attempts/service"
	practicalService "academy_backend/internals/features/exams/practicals/service"
	"academy_backend/internals/features/exams/results/model"
	"academy_backend/internals/features/exams/results/service"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/testutil"
)

// These run against a real Postgres so the partial unique indexes and
// ON CONFLICT paths see true concurrency. Set EXAM_TEST_DSN to enable.

func TestPostgresConcurrentStart(t *testing.T) {
	db := testutil.PostgresDB(t)
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 10})
	student := uuid.New()
	testutil.Approve(t, db, exam.ExamID, student)
	svc := attemptService.NewAttemptService(db)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Start(context.Background(), exam.ExamID, student); err != nil {
				t.Errorf("start: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	db.Model(&attemptModel.ExamAttemptModel{}).
		Where("exam_attempt_exam_id = ? AND exam_attempt_student_id = ?", exam.ExamID, student).
		Count(&count)
	if count != 1 {
		t.Fatalf("attempt rows = %d, want 1", count)
	}
}

func TestPostgresConcurrentFinalize(t *testing.T) {
	db := testutil.PostgresDB(t)
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 10})
	student := uuid.New()
	testutil.SubmitTheory(t, db, exam, student, 7)
	if _, err := practicalService.NewPracticalService(db).Record(context.Background(), exam.ExamID, student, practical, nil, uuid.New()); err != nil {
		t.Fatalf("record practical: %v", err)
	}
	svc := service.NewResultService(db)

	const n = 16
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
			switch {
			case err == nil:
				created++
			case helper.IsConflict(err):
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
	db.Model(&model.ExamFinalResultModel{}).
		Where("exam_result_exam_id = ? AND exam_result_student_id = ?", exam.ExamID, student).
		Count(&count)
	if count != 1 {
		t.Fatalf("result rows = %d, want 1", count)
	}
}
