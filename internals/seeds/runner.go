package seeds

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"academy_backend/internals/seeds/exams"
)

// RunAllSeeds loads every seed file under dir on behalf of actor.
func RunAllSeeds(ctx context.Context, db *gorm.DB, dir string, actor uuid.UUID) error {
	//* Exams
	if _, err := exams.SeedExamsFromJSON(ctx, db, filepath.Join(dir, "exams", "data_exams.json"), actor); err != nil {
		return err
	}
	return nil
}
