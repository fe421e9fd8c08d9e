package postgres

import (
	"testing"

	"gorm.io/gorm/logger"

	"serial-story-api/internal/config"
)

func TestIsNextChapterNum(t *testing.T) {
	intPtr := func(v int) *int { return &v }
	tests := []struct {
		name   string
		maxNum *int
		num    int
		want   bool
	}{
		{"empty book accepts prologue", nil, 0, true},
		{"empty book rejects chapter 1", nil, 1, false},
		{"next after prologue", intPtr(0), 1, true},
		{"gap rejected", intPtr(1), 3, false},
		{"rewrite rejected", intPtr(2), 2, false},
		{"prologue after later chapters rejected", intPtr(4), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNextChapterNum(tt.maxNum, tt.num); got != tt.want {
				t.Fatalf("isNextChapterNum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundRating(t *testing.T) {
	if roundRating(nil) != nil {
		t.Fatalf("nil average should stay nil")
	}
	v := 3.666
	if got := roundRating(&v); *got != 3.7 {
		t.Fatalf("roundRating(3.666) = %v, want 3.7", *got)
	}
}

func TestGormLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"ERROR":  logger.Error,
		"debug":  logger.Info,
		"":       logger.Warn,
	}
	for in, want := range tests {
		if got := gormLogLevel(in); got != want {
			t.Fatalf("gormLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDSN(t *testing.T) {
	got := dsn(&config.PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "story", SSLMode: "disable"})
	want := "host=db port=5432 user=u password=p dbname=story sslmode=disable"
	if got != want {
		t.Fatalf("dsn() = %q, want %q", got, want)
	}
}
