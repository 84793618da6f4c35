package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"academy_backend/internals/configs"
	database "academy_backend/internals/databases"
	"academy_backend/internals/seeds"
)

func connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = database.DSN()
	}
	return database.Open(dsn)
}

func newRootCmd() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Schema tool for the academy exam tables",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configs.LoadEnv()
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres DSN (defaults to DATABASE_URL / DB_*)")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Create or update every exam table and index",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(dsn)
			if err != nil {
				return err
			}
			log.Println("Starting migration...")
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Println("Migration completed successfully!")
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "tables",
		Short: "List the tables the service owns and whether they exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect(dsn)
			if err != nil {
				return err
			}
			for _, m := range database.Models() {
				stmt := &gorm.Statement{DB: db}
				if err := stmt.Parse(m); err != nil {
					return err
				}
				log.Printf("%-28s exists=%v", stmt.Schema.Table, db.Migrator().HasTable(m))
			}
			return nil
		},
	})
	var seedDir, seedActor string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Migrate, then load the exam seed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := seedActor
			if raw == "" {
				raw = configs.GetEnv("SEED_ACTOR_ID")
			}
			actor, err := uuid.Parse(raw)
			if err != nil || actor == uuid.Nil {
				return fmt.Errorf("seed needs an actor id (--actor or SEED_ACTOR_ID), got %q", raw)
			}
			db, err := connect(dsn)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			return seeds.RunAllSeeds(context.Background(), db, seedDir, actor)
		},
	}
	seedCmd.Flags().StringVar(&seedActor, "actor", "", "user id recorded as the creator of seeded exams (defaults to SEED_ACTOR_ID)")
	seedCmd.Flags().StringVar(&seedDir, "dir", "internals/seeds", "directory holding the seed files")
	root.AddCommand(seedCmd)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
