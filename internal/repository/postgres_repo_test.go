package repository

import (
	"database/sql"
	"testing"
)

// PostgresAppleRepoはAppleRepositoryインターフェースを満たすことを検証
func TestPostgresAppleRepo_ImplementsInterface(t *testing.T) {
	var _ AppleRepository = (*PostgresAppleRepo)(nil)
}

// PostgresSessionRepoはSessionRepositoryインターフェースを満たすことを検証
func TestPostgresSessionRepo_ImplementsInterface(t *testing.T) {
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// NewPostgresAppleRepoが正しく初期化されることを検証
func TestNewPostgresAppleRepo_Initializes(t *testing.T) {
	repo := NewPostgresAppleRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresSessionRepoが正しく初期化されることを検証
func TestNewPostgresSessionRepo_Initializes(t *testing.T) {
	repo := NewPostgresSessionRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// nullInt64の変換を検証
func TestNullInt64(t *testing.T) {
	if got := nullInt64(nil); got.Valid {
		t.Errorf("nullInt64(nil) = %+v, want invalid", got)
	}

	v := int64(42)
	got := nullInt64(&v)
	if !got.Valid || got.Int64 != 42 {
		t.Errorf("nullInt64(&42) = %+v, want {42 true}", got)
	}
	if got != (sql.NullInt64{Int64: 42, Valid: true}) {
		t.Errorf("nullInt64(&42) = %+v", got)
	}
}
