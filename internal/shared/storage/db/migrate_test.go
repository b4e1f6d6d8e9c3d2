package db

import (
	"context"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsDeclareCascades(t *testing.T) {
	raw, err := migrationFiles.ReadFile("migrations/00001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(raw)
	for _, want := range []string{
		"-- +goose Up",
		"-- +goose Down",
		"CREATE TABLE IF NOT EXISTS notes",
		"note_participants",
		"note_questions",
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("migration missing %q", want)
		}
	}
	if strings.Count(sql, "ON DELETE CASCADE") != 2 {
		t.Fatalf("expected participants and questions to cascade")
	}
}

func TestRunMigrationsNilDB(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
