package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimeValue is an absolute time or a duration, kept as whole seconds plus
// microseconds. Usec is always normalized to [0, 1000000).
type TimeValue struct {
	Sec  int64
	Usec int64
}

const usecPerSec = 1000000

// NewTime creates a normalized TimeValue
func NewTime(sec, usec int64) TimeValue {
	sec += usec / usecPerSec
	usec %= usecPerSec
	if usec < 0 {
		usec += usecPerSec
		sec--
	}
	return TimeValue{Sec: sec, Usec: usec}
}

// TimeFromFloat converts fractional seconds to a TimeValue
func TimeFromFloat(f float64) TimeValue {
	sec := math.Floor(f)
	return NewTime(int64(sec), int64(math.Round((f-sec)*usecPerSec)))
}

// TimeFromGo converts a time.Time to a TimeValue
func TimeFromGo(t time.Time) TimeValue {
	return NewTime(t.Unix(), int64(t.Nanosecond()/1000))
}

// Type returns the type code for times
func (t TimeValue) Type() TypeCode {
	return TYPE_TIME
}

// Micros returns the value as a count of microseconds
func (t TimeValue) Micros() int64 {
	return t.Sec*usecPerSec + t.Usec
}

// Float returns the value as fractional seconds
func (t TimeValue) Float() float64 {
	return float64(t.Sec) + float64(t.Usec)/usecPerSec
}

// String prints seconds with up to six fractional digits
func (t TimeValue) String() string {
	total := t.Micros()
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	whole, frac := total/usecPerSec, total%usecPerSec
	if frac == 0 {
		return sign + strconv.FormatInt(whole, 10)
	}
	return sign + strings.TrimRight(fmt.Sprintf("%d.%06d", whole, frac), "0")
}

// Equal compares two times
func (t TimeValue) Equal(other Value) bool {
	o, ok := other.(TimeValue)
	if !ok {
		return false
	}
	return t.Sec == o.Sec && t.Usec == o.Usec
}

// Truthy returns whether the time is non-zero
func (t TimeValue) Truthy() bool {
	return t.Sec != 0 || t.Usec != 0
}

// ParseTimeLiteral parses "h:mm", "h:mm:ss" or "h:mm:ss.ffffff"
func ParseTimeLiteral(s string) (TimeValue, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeValue{}, false
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || hours < 0 {
		return TimeValue{}, false
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes < 0 || minutes > 59 || len(parts[1]) != 2 {
		return TimeValue{}, false
	}
	var secs float64
	if len(parts) == 3 {
		secs, err = strconv.ParseFloat(parts[2], 64)
		if err != nil || secs < 0 || secs >= 60 {
			return TimeValue{}, false
		}
	}
	base := TimeFromFloat(secs)
	return NewTime(hours*3600+minutes*60+base.Sec, base.Usec), true
}
