package models

import (
	"encoding/json"
	"testing"
)

func TestOwnerUnmarshal(t *testing.T) {
	t.Run("populated object", func(t *testing.T) {
		var v Video
		if err := json.Unmarshal([]byte(`{"_id":"v1","owner":{"_id":"u1","username":"alice"}}`), &v); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if v.OwnerName() != "alice" {
			t.Errorf("expected owner alice, got %q", v.OwnerName())
		}
	})

	t.Run("bare id", func(t *testing.T) {
		var v Video
		if err := json.Unmarshal([]byte(`{"_id":"v1","owner":"u1"}`), &v); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if v.OwnerName() != "u1" {
			t.Errorf("expected owner id u1, got %q", v.OwnerName())
		}
	})

	t.Run("invalid", func(t *testing.T) {
		var o Owner
		if err := json.Unmarshal([]byte(`42`), &o); err == nil {
			t.Error("expected error for numeric owner")
		}
	})
}

func TestVideoDurationString(t *testing.T) {
	tc := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{65.4, "1:05"},
		{3725, "1:02:05"},
	}

	for _, tt := range tc {
		if got := (Video{Duration: tt.seconds}).DurationString(); got != tt.want {
			t.Errorf("DurationString(%v) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestUser(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		var nilUser *User
		if err := nilUser.Validate(); err == nil {
			t.Error("nil user should not validate")
		}
		if err := (&User{Email: "a@example.com"}).Validate(); err == nil {
			t.Error("user without id should not validate")
		}
		if err := (&User{ID: "u1"}).Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("DisplayName", func(t *testing.T) {
		if got := (&User{FullName: "Ada L", Username: "ada"}).DisplayName(); got != "Ada L" {
			t.Errorf("expected full name, got %q", got)
		}
		if got := (&User{Username: "ada", Email: "a@example.com"}).DisplayName(); got != "ada" {
			t.Errorf("expected username, got %q", got)
		}
		if got := (&User{Email: "a@example.com"}).DisplayName(); got != "a@example.com" {
			t.Errorf("expected email, got %q", got)
		}
	})

	t.Run("JSON keys", func(t *testing.T) {
		data, err := json.Marshal(User{ID: "u1", Email: "a@example.com", Username: "ada", Role: RoleAdmin})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var raw map[string]any
		_ = json.Unmarshal(data, &raw)
		if raw["_id"] != "u1" {
			t.Errorf("expected _id key, got %v", raw)
		}
	})
}

func TestPageNext(t *testing.T) {
	five := 5
	tc := []struct {
		name     string
		page     Page[Video]
		want     int
		wantMore bool
	}{
		{name: "last page", page: Page[Video]{Page: 3}, want: 0, wantMore: false},
		{name: "explicit next", page: Page[Video]{Page: 3, HasNextPage: true, NextPage: &five}, want: 5, wantMore: true},
		{name: "implicit next", page: Page[Video]{Page: 3, HasNextPage: true}, want: 4, wantMore: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, more := tt.page.Next()
			if got != tt.want || more != tt.wantMore {
				t.Errorf("Next() = (%d, %v), want (%d, %v)", got, more, tt.want, tt.wantMore)
			}
		})
	}
}

func TestExportRun(t *testing.T) {
	run := NewExportRun("videos", "json", "/tmp/out")
	if err := run.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if run.Succeeded() {
		t.Error("open run should not report success")
	}

	run.SetCounts(2, 18)
	run.Complete(nil)
	if !run.Succeeded() || run.Items() != 18 {
		t.Errorf("expected completed run with 18 items, got succeeded=%v items=%d", run.Succeeded(), run.Items())
	}

	if err := NewExportRun("", "json", "/tmp").Validate(); err == nil {
		t.Error("expected error for missing resource")
	}
}
