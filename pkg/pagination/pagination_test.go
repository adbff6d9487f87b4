package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("expected default limit for negative input, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit cap, got %d", got)
	}
	if got := NormalizeLimit(40); got != 40 {
		t.Fatalf("expected passthrough, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("cursor did not round trip: in=%v out=%v", in, out)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("blank cursor should yield nil, nil; got %v, %v", c, err)
	}
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := ParseCursor("aGVsbG8="); err == nil {
		t.Fatalf("expected format error for cursor without separator")
	}
}

func TestBuildPageDetectsNextPage(t *testing.T) {
	type row struct {
		created time.Time
		id      uuid.UUID
	}
	rows := make([]row, 4)
	for i := range rows {
		rows[i] = row{created: time.Now().Add(-time.Duration(i) * time.Minute), id: uuid.New()}
	}

	page := BuildPage(rows, 3, func(r row) Cursor {
		return Cursor{CreatedAt: r.created, ID: r.id}
	})
	if len(page.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(page.Items))
	}
	if !page.HasMore || page.NextCursor == "" {
		t.Fatalf("expected next page cursor")
	}

	exact := BuildPage(rows[:2], 3, func(r row) Cursor {
		return Cursor{CreatedAt: r.created, ID: r.id}
	})
	if exact.HasMore || exact.NextCursor != "" {
		t.Fatalf("short page should not report more rows")
	}
}
