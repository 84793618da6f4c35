package database

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"academy_backend/internals/configs"
	attemptModel "academy_backend/internals/features/exams/attempts/model"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
	practicalModel "academy_backend/internals/features/exams/practicals/model"
	registrationModel "academy_backend/internals/features/exams/registrations/model"
	resultModel "academy_backend/internals/features/exams/results/model"
)

var DB *gorm.DB

// DSN prefers DATABASE_URL, else assembles one from the DB_* parts.
func DSN() string {
	if v := configs.GetEnv("DATABASE_URL"); v != "" {
		return v
	}
	q := url.Values{}
	q.Set("sslmode", configs.GetEnv("DB_SSLMODE", "require"))
	q.Set("application_name", "academy")
	q.Set("options", "-c statement_timeout="+configs.GetEnv("DB_STATEMENT_TIMEOUT_MS", "3000"))

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(configs.GetEnv("DB_USER"), configs.GetEnv("DB_PASSWORD")),
		Host:     fmt.Sprintf("%s:%s", configs.GetEnv("DB_HOST", "localhost"), configs.GetEnv("DB_PORT", "5432")),
		Path:     "/" + configs.GetEnv("DB_NAME"),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // PgBouncer transaction pooling
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
}

func ConnectDB() {
	log.Println("[DB] connecting to PostgreSQL...")
	db, err := Open(DSN())
	if err != nil {
		log.Fatalf("[DB] connect failed: %v", err)
	}
	DB = db
	log.Println("[DB] connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("[DB] pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(configs.GetEnvInt("DB_MAX_OPEN_CONNS", 20))
	sqlDB.SetMaxIdleConns(configs.GetEnvInt("DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	go func() {
		time.Sleep(500 * time.Millisecond)
		if err := Ping(DB); err != nil {
			log.Printf("[DB] warm-up ping err: %v", err)
			return
		}
		// the student exam list is the hottest read
		DB.Exec("SELECT 1 FROM exams WHERE exam_status = ? LIMIT 1", catalogModel.ExamStatusPublished)
	}()
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Models lists every table owned by the exam engine, leaves first.
func Models() []any {
	return []any{
		&catalogModel.ExamModel{},
		&catalogModel.ExamQuestionModel{},
		&registrationModel.ExamRegistrationModel{},
		&attemptModel.ExamAttemptModel{},
		&attemptModel.ExamEssayGradeModel{},
		&practicalModel.ExamPracticalEvaluationModel{},
		&resultModel.ExamFinalResultModel{},
	}
}

// Migrate creates the tables and the partial unique indexes on attempts.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range attemptModel.PartialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("partial index: %w", err)
		}
	}
	return nil
}
