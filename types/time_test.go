package types

import (
	"testing"
	"time"
)

func TestTimeNormalize(t *testing.T) {
	tests := []struct {
		sec, usec int64
		wantSec   int64
		wantUsec  int64
	}{
		{1, 1500000, 2, 500000},
		{1, -1, 0, 999999},
		{0, -1500000, -2, 500000},
	}
	for _, tt := range tests {
		got := NewTime(tt.sec, tt.usec)
		if got.Sec != tt.wantSec || got.Usec != tt.wantUsec {
			t.Errorf("NewTime(%d, %d) = %d.%06d, want %d.%06d",
				tt.sec, tt.usec, got.Sec, got.Usec, tt.wantSec, tt.wantUsec)
		}
	}
}

func TestTimeString(t *testing.T) {
	tests := []struct {
		v    TimeValue
		want string
	}{
		{NewTime(5400, 0), "5400"},
		{NewTime(1, 500000), "1.5"},
		{NewTime(0, 1), "0.000001"},
		{NewTime(-1, 500000), "-0.5"},
		{TimeFromFloat(2.25), "2.25"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseTimeLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want TimeValue
		ok   bool
	}{
		{"0:01", NewTime(60, 0), true},
		{"2:30", NewTime(9000, 0), true},
		{"1:30:15.5", NewTime(5415, 500000), true},
		{"1:60", TimeValue{}, false},
		{"1:5", TimeValue{}, false},
		{"1:05:60", TimeValue{}, false},
		{"a:05", TimeValue{}, false},
		{"1:2:3:4", TimeValue{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimeLiteral(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseTimeLiteral(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseTimeLiteral(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTimeFromGo(t *testing.T) {
	when := time.Unix(1700000000, 250000000)
	got := TimeFromGo(when)
	if got.Sec != 1700000000 || got.Usec != 250000 {
		t.Errorf("TimeFromGo = %d.%06d", got.Sec, got.Usec)
	}
	if got.Micros() != 1700000000250000 {
		t.Errorf("Micros() = %d", got.Micros())
	}
}
