package services

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "plain HH:MM", input: "08:30", want: 510},
		{name: "with seconds", input: "08:30:15", want: 510},
		{name: "midnight", input: "00:00", want: 0},
		{name: "end of day", input: "23:59", want: 1439},
		{name: "single digit hour", input: "9:05", want: 545},
		{name: "whitespace trimmed", input: " 10:00 ", want: 600},
		{name: "empty", input: "", wantErr: true},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "minute out of range", input: "10:60", wantErr: true},
		{name: "second out of range", input: "10:00:61", wantErr: true},
		{name: "not a time", input: "morning", wantErr: true},
		{name: "too many parts", input: "10:00:00:00", wantErr: true},
		{name: "missing minute", input: "10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTimeOfDay(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimeOfDay(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00:00"},
		{510, "08:30:00"},
		{545, "09:05:00"},
		{1439, "23:59:00"},
	}

	for _, tt := range tests {
		if got := FormatTimeOfDay(tt.minutes); got != tt.want {
			t.Errorf("FormatTimeOfDay(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		startA, endA, startB, endB int
		want                       bool
	}{
		{name: "partial overlap", startA: 480, endA: 570, startB: 540, endB: 600, want: true},
		{name: "touching endpoints do not overlap", startA: 480, endA: 540, startB: 540, endB: 600, want: false},
		{name: "identical windows", startA: 480, endA: 540, startB: 480, endB: 540, want: true},
		{name: "containment", startA: 480, endA: 600, startB: 500, endB: 520, want: true},
		{name: "disjoint", startA: 480, endA: 540, startB: 600, endB: 660, want: false},
		{name: "one minute overlap", startA: 480, endA: 541, startB: 540, endB: 600, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.startA, tt.endA, tt.startB, tt.endB); got != tt.want {
				t.Errorf("Overlaps(%d,%d,%d,%d) = %v, want %v", tt.startA, tt.endA, tt.startB, tt.endB, got, tt.want)
			}
			// Overlap is symmetric in the two intervals
			if got := Overlaps(tt.startB, tt.endB, tt.startA, tt.endA); got != tt.want {
				t.Errorf("Overlaps symmetry broken for %s", tt.name)
			}
		})
	}
}

func TestOverlapWindow(t *testing.T) {
	start, end := overlapWindow(480, 570, 540, 600)
	if start != 540 || end != 570 {
		t.Errorf("overlapWindow = (%d, %d), want (540, 570)", start, end)
	}

	start, end = overlapWindow(500, 520, 480, 600)
	if start != 500 || end != 520 {
		t.Errorf("overlapWindow containment = (%d, %d), want (500, 520)", start, end)
	}
}
