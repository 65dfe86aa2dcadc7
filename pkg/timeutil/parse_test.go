package timeutil

import (
	"testing"
	"time"
)

func TestParseISO(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{
			name:   "RFC3339 UTC",
			input:  "2025-01-15T10:30:00Z",
			want:   time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "RFC3339 microseconds",
			input:  "2025-01-15T10:30:00.123456Z",
			want:   time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.UTC),
			wantOK: true,
		},
		{
			name:   "RFC3339 with offset is normalized to UTC",
			input:  "2025-01-15T12:30:00+02:00",
			want:   time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			wantOK: true,
		},
		{
			name:   "numeric offset without colon",
			input:  "2025-01-15T12:30:00.250+0200",
			want:   time.Date(2025, 1, 15, 10, 30, 0, 250000000, time.UTC),
			wantOK: true,
		},
		{
			name:   "no zone",
			input:  "2025-01-15T10:30:00.5",
			want:   time.Date(2025, 1, 15, 10, 30, 0, 500000000, time.UTC),
			wantOK: true,
		},
		{
			name:   "space separated with comma millis",
			input:  "2025-01-15 10:30:45,123",
			want:   time.Date(2025, 1, 15, 10, 30, 45, 123000000, time.UTC),
			wantOK: true,
		},
		{
			name:   "slash date",
			input:  "2025/01/15 10:30:45",
			want:   time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC),
			wantOK: true,
		},
		{name: "empty", input: "", wantOK: false},
		{name: "date only", input: "2025-01-15", wantOK: false},
		{name: "garbage", input: "not a timestamp at all", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseISO(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseISO(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseISO(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompleteDate(t *testing.T) {
	clock := 10*time.Hour + 30*time.Minute + 45*time.Second

	got, ok := CompleteDate(2024, time.February, 29, clock)
	if !ok {
		t.Fatal("expected leap day to be valid in 2024")
	}
	want := time.Date(2024, 2, 29, 10, 30, 45, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CompleteDate = %v, want %v", got, want)
	}

	if _, ok := CompleteDate(2023, time.February, 29, clock); ok {
		t.Error("Feb 29 2023 should be rejected")
	}
	if _, ok := CompleteDate(2024, time.Month(13), 1, clock); ok {
		t.Error("month 13 should be rejected")
	}
	if _, ok := CompleteDate(2024, time.January, 0, clock); ok {
		t.Error("day 0 should be rejected")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Minute, "30m"},
		{90 * time.Minute, "1.5h"},
		{2 * time.Hour, "2.0h"},
		{24 * time.Hour, "1.0d"},
		{36 * time.Hour, "1.5d"},
	}

	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			got := FormatDuration(tt.d)
			if got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
