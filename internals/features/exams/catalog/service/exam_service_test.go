package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"academy_backend/internals/features/exams/catalog/dto"
	"academy_backend/internals/features/exams/catalog/model"
	"academy_backend/internals/features/exams/catalog/service"
	resultModel "academy_backend/internals/features/exams/results/model"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/testutil"
)

func TestCreateRequiresTitleAndBelt(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewExamService(db)
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.CreateExamRequest
	}{
		{name: "missing title", req: dto.CreateExamRequest{BeltLevel: "white"}},
		{name: "blank title", req: dto.CreateExamRequest{Title: "   ", BeltLevel: "white"}},
		{name: "missing belt", req: dto.CreateExamRequest{Title: "Theory"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, uuid.New(), tc.req)
			testutil.WantStatus(t, err, fiber.StatusBadRequest)
		})
	}
}

func TestCreateNormalizesQuestions(t *testing.T) {
	db := testutil.NewDB(t)
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 10})

	if exam.ExamMaxTheoryScore != 10 || exam.ExamTheoryPassMark != 6 || exam.ExamFinalPassMark != 306 {
		t.Fatalf("marks = %v/%v/%v, want 10/6/306",
			exam.ExamMaxTheoryScore, exam.ExamTheoryPassMark, exam.ExamFinalPassMark)
	}
	if exam.ExamTimeLimitMinutes != service.DefaultTimeLimitMinutes {
		t.Fatalf("time limit = %d, want default %d", exam.ExamTimeLimitMinutes, service.DefaultTimeLimitMinutes)
	}
	seen := map[uuid.UUID]bool{}
	for i, q := range exam.Questions {
		if q.ExamQuestionPosition != i+1 {
			t.Fatalf("question %d has position %d", i, q.ExamQuestionPosition)
		}
		if q.ExamQuestionMaxScore != model.DefaultMaxScore {
			t.Fatalf("question %d max score = %v", i, q.ExamQuestionMaxScore)
		}
		if q.ExamQuestionID == uuid.Nil || seen[q.ExamQuestionID] {
			t.Fatalf("question %d id %s is not unique", i, q.ExamQuestionID)
		}
		seen[q.ExamQuestionID] = true
	}
}

func TestCreateRejectsBadQuestion(t *testing.T) {
	db := testutil.NewDB(t)
	five := 5
	_, err := service.NewExamService(db).Create(context.Background(), uuid.New(), dto.CreateExamRequest{
		Title:     "Theory",
		BeltLevel: "white",
		Questions: []dto.QuestionInput{{
			Type:          model.QuestionTypeMultipleChoice,
			Prompt:        "pick",
			Choices:       []string{"a", "b"},
			CorrectChoice: &five,
		}},
	})
	testutil.WantStatus(t, err, fiber.StatusBadRequest)
}

func TestPublishLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewExamService(db)
	ctx := context.Background()

	empty, err := svc.Create(ctx, uuid.New(), dto.CreateExamRequest{Title: "Empty", BeltLevel: "white"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Publish(ctx, empty.ExamID)
	testutil.WantStatus(t, err, fiber.StatusBadRequest)

	_, err = svc.Publish(ctx, uuid.New())
	testutil.WantStatus(t, err, fiber.StatusNotFound)

	draft := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 3, Draft: true})
	_, err = svc.Archive(ctx, draft.ExamID)
	testutil.WantStatus(t, err, fiber.StatusBadRequest)

	pub, err := svc.Publish(ctx, draft.ExamID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !pub.IsPublished() || pub.ExamPublishedAt == nil {
		t.Fatalf("exam not published: %+v", pub)
	}
	_, err = svc.Publish(ctx, draft.ExamID)
	testutil.WantStatus(t, err, fiber.StatusConflict)

	if _, err := svc.Archive(ctx, draft.ExamID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	_, err = svc.Archive(ctx, draft.ExamID)
	testutil.WantStatus(t, err, fiber.StatusConflict)
}

func TestUpdateFreezesPublishedStructure(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewExamService(db)
	ctx := context.Background()
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 10})

	qs := []dto.QuestionInput{{Type: model.QuestionTypeEssay, Prompt: "explain"}}
	_, err := svc.Update(ctx, exam.ExamID, dto.PatchExamRequest{Questions: &qs})
	testutil.WantStatus(t, err, fiber.StatusConflict)

	_, err = svc.Update(ctx, exam.ExamID, dto.PatchExamRequest{BeltLevel: dto.Set("yellow")})
	testutil.WantStatus(t, err, fiber.StatusConflict)

	got, err := svc.Update(ctx, exam.ExamID, dto.PatchExamRequest{
		Title:          dto.Set("Renamed"),
		TheoryPassMark: dto.Set(7.0),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ExamTitle != "Renamed" || got.ExamTheoryPassMark != 7 {
		t.Fatalf("update not applied: title=%q pass=%v", got.ExamTitle, got.ExamTheoryPassMark)
	}

	_, err = svc.Update(ctx, exam.ExamID, dto.PatchExamRequest{TheoryPassMark: dto.Set(11.0)})
	testutil.WantStatus(t, err, fiber.StatusBadRequest)

	got, err = svc.Update(ctx, exam.ExamID, dto.PatchExamRequest{TheoryPassMark: dto.Null[float64]()})
	if err != nil {
		t.Fatalf("clear override: %v", err)
	}
	if got.ExamTheoryPassMark != 6 {
		t.Fatalf("pass mark after clearing override = %v, want 6", got.ExamTheoryPassMark)
	}
}

func TestUpdateDraftReplacesQuestions(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewExamService(db)
	ctx := context.Background()
	exam := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 10, Draft: true})

	qs := []dto.QuestionInput{
		{Type: model.QuestionTypeEssay, Prompt: "explain kihon", MaxScore: testutil.Float(10)},
		{Type: model.QuestionTypeEssay, Prompt: "explain kata", MaxScore: testutil.Float(10)},
	}
	if _, err := svc.Update(ctx, exam.ExamID, dto.PatchExamRequest{Questions: &qs}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Get(ctx, exam.ExamID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Questions) != 2 || got.ExamMaxTheoryScore != 20 || got.ExamTheoryPassMark != 12 {
		t.Fatalf("questions=%d max=%v pass=%v, want 2/20/12",
			len(got.Questions), got.ExamMaxTheoryScore, got.ExamTheoryPassMark)
	}
}

func TestListForStudent(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewExamService(db)
	ctx := context.Background()
	student := uuid.New()

	white := testutil.CreateExam(t, db, testutil.ExamFixture{Belt: "white", MultipleChoice: 2})
	finalized := testutil.CreateExam(t, db, testutil.ExamFixture{Belt: "white", MultipleChoice: 2})
	testutil.CreateExam(t, db, testutil.ExamFixture{Belt: "white", MultipleChoice: 2, Draft: true})
	testutil.CreateExam(t, db, testutil.ExamFixture{Belt: "yellow", MultipleChoice: 2})

	if err := db.Create(&resultModel.ExamFinalResultModel{
		ExamResultExamID:      finalized.ExamID,
		ExamResultStudentID:   student,
		ExamResultAttemptID:   uuid.New(),
		ExamResultPracticalID: uuid.New(),
		ExamResultFinalizedBy: uuid.New(),
		ExamResultFinalizedAt: time.Now().UTC(),
	}).Error; err != nil {
		t.Fatalf("seed result: %v", err)
	}

	rows, total, err := svc.ListForStudent(ctx, student, "white", helper.Paging{Page: 1, PerPage: 20, Limit: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ExamID != white.ExamID {
		t.Fatalf("got total=%d rows=%d, want only the open white exam", total, len(rows))
	}

	// another student still sees both
	_, total, err = svc.ListForStudent(ctx, uuid.New(), "white", helper.Paging{Page: 1, PerPage: 20, Limit: 20})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("other student total = %d, want 2", total)
	}
}

func TestGetForStudentHidesDrafts(t *testing.T) {
	db := testutil.NewDB(t)
	draft := testutil.CreateExam(t, db, testutil.ExamFixture{MultipleChoice: 1, Draft: true})
	_, err := service.NewExamService(db).GetForStudent(context.Background(), draft.ExamID)
	testutil.WantStatus(t, err, fiber.StatusNotFound)
}
