package exams

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/catalog/dto"
	"academy_backend/internals/features/exams/catalog/model"
	"academy_backend/internals/features/exams/catalog/service"
	helper "academy_backend/internals/helpers"
)

// SeedExamsFromJSON creates every exam in the file whose title is not stored yet,
// recorded as created by actor. Requests go through ExamService so the marks are
// derived the normal way.
func SeedExamsFromJSON(ctx context.Context, db *gorm.DB, filePath string, actor uuid.UUID) (int, error) {
	if actor == uuid.Nil {
		return 0, fmt.Errorf("seed actor id is required")
	}
	log.Println("[SEED] reading", filePath)

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []dto.CreateExamRequest
	if err := sonic.Unmarshal(raw, &seeds); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	var titles []string
	if err := db.WithContext(ctx).Model(&model.ExamModel{}).
		Pluck("exam_title", &titles).Error; err != nil {
		return 0, fmt.Errorf("load exam titles: %w", err)
	}
	existing := make(map[string]bool, len(titles))
	for _, t := range titles {
		existing[strings.ToLower(t)] = true
	}

	svc := service.NewExamService(db)
	created := 0
	for i, req := range seeds {
		key := strings.ToLower(strings.TrimSpace(req.Title))
		if existing[key] {
			log.Printf("[SEED] exam %q already exists, skipped", req.Title)
			continue
		}
		if err := helper.Validate.Struct(&req); err != nil {
			return created, fmt.Errorf("seed %d (%q): %w", i, req.Title, err)
		}
		if _, err := svc.Create(ctx, actor, req); err != nil {
			return created, fmt.Errorf("seed %d (%q): %w", i, req.Title, err)
		}
		existing[key] = true
		created++
	}
	log.Printf("[SEED] %d exam(s) created", created)
	return created, nil
}
