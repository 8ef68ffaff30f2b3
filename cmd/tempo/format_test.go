package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tempo-go/internal/tempo"
)

func TestParseWhen(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC) // 2024-03-11 01:30 in loc

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "empty", raw: "", want: time.Time{}},
		{name: "date and time", raw: "2024-01-15 09:30", want: time.Date(2024, 1, 15, 9, 30, 0, 0, loc)},
		{name: "with seconds", raw: "2024-01-15 09:30:15", want: time.Date(2024, 1, 15, 9, 30, 15, 0, loc)},
		{name: "rfc3339", raw: "2024-01-15T09:30:00Z", want: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{name: "garbage", raw: "half past nine", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWhen(tt.raw, now, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWhen() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseWhen() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("clock time is on the day of now", func(t *testing.T) {
		got, err := parseWhen("07:45", now, loc)
		if err != nil {
			t.Fatalf("parseWhen() error = %v", err)
		}
		if want := time.Date(2024, 3, 11, 7, 45, 0, 0, loc); !got.Equal(want) {
			t.Errorf("parseWhen(07:45) = %v, want %v", got, want)
		}
	})
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{75 * time.Minute, "1:15"},
		{10*time.Hour + 5*time.Minute + 40*time.Second, "10:06"},
	}
	for _, tt := range tests {
		if got := formatHours(tt.d); got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestPrintTable(t *testing.T) {
	tl := tempo.NewTimeline(tempo.WithLocation(time.UTC))
	day := func(h, m int) time.Time { return time.Date(2024, 1, 15, h, m, 0, 0, time.UTC) }

	if _, err := tl.Insert(tempo.Attrs{Description: "日本語の説明", StartTime: day(9, 0), EndTime: day(10, 30), Tags: []string{"b", "a"}}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := tl.Insert(tempo.Attrs{Description: "plain", StartTime: day(11, 0)}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	var buf bytes.Buffer
	printTable(&buf, tl.Records(), time.UTC)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if len(lines) != 3 {
		t.Fatalf("printTable() wrote %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "09:00 - 10:30") || !strings.HasSuffix(lines[0], "a,b") {
		t.Errorf("first row = %q", lines[0])
	}
	if !strings.Contains(lines[1], "running") {
		t.Errorf("running row = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "1:30") {
		t.Errorf("total row = %q, want closed total 1:30", lines[2])
	}
}
