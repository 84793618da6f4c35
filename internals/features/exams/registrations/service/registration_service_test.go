package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"academy_backend/internals/features/exams/registrations/model"
	"academy_backend/internals/features/exams/registrations/service"
	resultModel "academy_backend/internals/features/exams/results/model"
	"academy_backend/internals/testutil"
)

func TestRegisterIsGetOrCreate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewRegistrationService(db)
	ctx := context.Background()
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 2})
	student := uuid.New()

	first, created, err := svc.Register(ctx, exam.ExamID, student)
	if err != nil || !created {
		t.Fatalf("first register: created=%v err=%v", created, err)
	}
	if first.ExamRegistrationStatus != model.RegistrationPending {
		t.Fatalf("status = %s, want pending", first.ExamRegistrationStatus)
	}

	if _, err := svc.Approve(ctx, first.ExamRegistrationID, uuid.New()); err != nil {
		t.Fatalf("approve: %v", err)
	}

	again, created, err := svc.Register(ctx, exam.ExamID, student)
	if err != nil || created {
		t.Fatalf("repeat register: created=%v err=%v", created, err)
	}
	if again.ExamRegistrationID != first.ExamRegistrationID {
		t.Fatalf("repeat register returned a different row")
	}
	if again.ExamRegistrationStatus != model.RegistrationApproved {
		t.Fatalf("repeat register status = %s, want approved untouched", again.ExamRegistrationStatus)
	}
}

func TestConcurrentRegisterKeepsOneRow(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewRegistrationService(db)
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 2})
	student := uuid.New()

	const n = 8
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg, _, err := svc.Register(context.Background(), exam.ExamID, student)
			if err != nil {
				t.Errorf("register: %v", err)
				return
			}
			ids[i] = reg.ExamRegistrationID
		}(i)
	}
	wg.Wait()

	var count int64
	db.Model(&model.ExamRegistrationModel{}).
		Where("exam_registration_exam_id = ? AND exam_registration_student_id = ?", exam.ExamID, student).
		Count(&count)
	if count != 1 {
		t.Fatalf("rows = %d, want 1", count)
	}
	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("call %d saw registration %s, want %s", i, ids[i], ids[0])
		}
	}
}

func TestRegisterPreconditions(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewRegistrationService(db)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, uuid.New(), uuid.New())
	testutil.WantStatus(t, err, fiber.StatusNotFound)

	draft := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 2, Draft: true})
	_, _, err = svc.Register(ctx, draft.ExamID, uuid.New())
	testutil.WantStatus(t, err, fiber.StatusBadRequest)

	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 2})
	student := uuid.New()
	if err := db.Create(&resultModel.ExamFinalResultModel{
		ExamResultExamID:      exam.ExamID,
		ExamResultStudentID:   student,
		ExamResultAttemptID:   uuid.New(),
		ExamResultPracticalID: uuid.New(),
		ExamResultFinalizedBy: uuid.New(),
		ExamResultFinalizedAt: time.Now().UTC(),
	}).Error; err != nil {
		t.Fatalf("seed result: %v", err)
	}
	_, _, err = svc.Register(ctx, exam.ExamID, student)
	testutil.WantStatus(t, err, fiber.StatusConflict)
}

func TestDecisionsAreOneWay(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewRegistrationService(db)
	ctx := context.Background()
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 2})

	approved, _, err := svc.Register(ctx, exam.ExamID, uuid.New())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	rejected, _, err := svc.Register(ctx, exam.ExamID, uuid.New())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Approve(ctx, approved.ExamRegistrationID, uuid.New())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.ExamRegistrationApprovedAt == nil || got.ExamRegistrationDecidedBy == nil {
		t.Fatalf("approve did not stamp the decision: %+v", got)
	}
	if _, err := svc.Reject(ctx, rejected.ExamRegistrationID, uuid.New()); err != nil {
		t.Fatalf("reject: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{name: "approve twice", call: func() error { _, err := svc.Approve(ctx, approved.ExamRegistrationID, uuid.New()); return err }},
		{name: "reject after approve", call: func() error { _, err := svc.Reject(ctx, approved.ExamRegistrationID, uuid.New()); return err }},
		{name: "approve after reject", call: func() error { _, err := svc.Approve(ctx, rejected.ExamRegistrationID, uuid.New()); return err }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testutil.WantStatus(t, tc.call(), fiber.StatusConflict)
		})
	}

	_, err = svc.Approve(ctx, uuid.New(), uuid.New())
	testutil.WantStatus(t, err, fiber.StatusNotFound)

	ok, err := service.IsApproved(ctx, db, exam.ExamID, rejected.ExamRegistrationStudentID)
	if err != nil || ok {
		t.Fatalf("IsApproved(rejected) = %v, %v", ok, err)
	}
}
