package database

import (
	"strings"
	"testing"
)

// 埋め込みマイグレーションにup/downのペアが揃っていることを検証する。
func TestMigrationsFS_ContainsUpAndDownPairs(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one migration file")
	}

	ups := 0
	downs := 0
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups++
		case strings.HasSuffix(name, ".down.sql"):
			downs++
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}

	if ups != downs {
		t.Errorf("up migrations = %d, down migrations = %d, want equal", ups, downs)
	}
}

// 初期マイグレーションがコアテーブルを作成することを検証する。
func TestInitialMigration_CreatesCoreTables(t *testing.T) {
	data, err := migrationsFS.ReadFile("migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read initial migration: %v", err)
	}
	sql := string(data)

	for _, table := range []string{"users", "sessions", "notes"} {
		if !strings.Contains(sql, "CREATE TABLE "+table) {
			t.Errorf("initial migration should create table %q", table)
		}
	}

	// 所有者スコープのリスト取得を支えるインデックス
	if !strings.Contains(sql, "idx_notes_user_updated") {
		t.Error("initial migration should create the notes(user_id, updated_at) index")
	}
}

func TestNewMigrator_InvalidURL_ReturnsError(t *testing.T) {
	_, err := NewMigrator("not-a-valid-url")
	if err == nil {
		t.Fatal("expected error for invalid database URL")
	}
}
