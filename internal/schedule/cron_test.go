package schedule

import (
	"testing"
	"time"
)

func TestParseCron_Valid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"every minute", "* * * * *"},
		{"autosave every 10 minutes", "*/10 * * * *"},
		{"hourly", "0 * * * *"},
		{"nightly render at 2am", "0 2 * * *"},
		{"weekly export on Sunday", "0 6 * * 0"},
		{"first of the month", "0 0 1 * *"},
		{"weekday mornings", "30 8 * * 1-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCron(tt.expr); err != nil {
				t.Errorf("ParseCron(%q) error = %v, want nil", tt.expr, err)
			}
		})
	}
}

func TestParseCron_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"too few fields", "* * *"},
		{"six fields with seconds", "0 * * * * *"},
		{"minute out of range", "60 * * * *"},
		{"hour out of range", "* 25 * * *"},
		{"day out of range", "* * 32 * *"},
		{"month out of range", "* * * 13 *"},
		{"weekday out of range", "* * * * 8"},
		{"garbage", "whenever blender is idle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCron(tt.expr); err == nil {
				t.Errorf("ParseCron(%q) error = nil, want error", tt.expr)
			}
		})
	}
}

func TestNextRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 22, 15, 0, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{
			name: "every minute",
			expr: "* * * * *",
			want: time.Date(2026, 3, 10, 22, 16, 0, 0, time.UTC),
		},
		{
			name: "top of the hour",
			expr: "0 * * * *",
			want: time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC),
		},
		{
			name: "nightly render at 2am",
			expr: "0 2 * * *",
			want: time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := NextRun(tt.expr, now)
			if err != nil {
				t.Fatalf("NextRun(%q) error = %v", tt.expr, err)
			}
			if !next.Equal(tt.want) {
				t.Errorf("NextRun(%q, %v) = %v, want %v", tt.expr, now, next, tt.want)
			}
		})
	}
}

func TestNextRun_InvalidCron(t *testing.T) {
	if _, err := NextRun("not a cron", time.Now()); err == nil {
		t.Error("NextRun with invalid cron should return error")
	}
}

func TestValidateCron(t *testing.T) {
	if err := ValidateCron("0 2 * * *"); err != nil {
		t.Errorf("ValidateCron(valid) error = %v", err)
	}
	if err := ValidateCron("bogus"); err == nil {
		t.Error("ValidateCron(invalid) should return error")
	}
}
