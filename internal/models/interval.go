package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval maps a Postgres interval column onto a time.Duration.
type Interval time.Duration

func (d *Interval) Scan(value interface{}) error {
	var str string
	switch v := value.(type) {
	case nil:
		*d = 0
		return nil
	case string:
		str = v
	case []byte:
		str = string(v)
	case int64:
		*d = Interval(time.Duration(v) * time.Second)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Interval", value)
	}

	parsed, err := parseInterval(strings.TrimSpace(str))
	if err != nil {
		return err
	}
	*d = Interval(parsed)
	return nil
}

func (d Interval) Value() (driver.Value, error) {
	return fmt.Sprintf("%s seconds", strconv.FormatFloat(time.Duration(d).Seconds(), 'f', -1, 64)), nil
}

func (d Interval) Duration() time.Duration {
	return time.Duration(d)
}

func (d Interval) String() string {
	duration := time.Duration(d)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60
	seconds := int(duration.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// parseInterval understands the Postgres output style ("1 day 02:03:04.5", "00:00:42")
// and the "<n> seconds" form written by Value.
func parseInterval(str string) (time.Duration, error) {
	if str == "" {
		return 0, nil
	}

	var total time.Duration
	fields := strings.Fields(str)
	for i := 0; i < len(fields); i++ {
		field := fields[i]
		if strings.Contains(field, ":") {
			clock, err := parseClock(field)
			if err != nil {
				return 0, fmt.Errorf("invalid interval %q: %w", str, err)
			}
			total += clock
			continue
		}
		if i+1 >= len(fields) {
			return 0, fmt.Errorf("invalid interval %q", str)
		}
		n, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q: %w", str, err)
		}
		unit := strings.TrimSuffix(fields[i+1], "s")
		i++
		switch unit {
		case "day":
			total += time.Duration(n * float64(24*time.Hour))
		case "hour":
			total += time.Duration(n * float64(time.Hour))
		case "min", "minute":
			total += time.Duration(n * float64(time.Minute))
		case "sec", "second":
			total += time.Duration(n * float64(time.Second))
		default:
			return 0, fmt.Errorf("unsupported interval unit %q", fields[i])
		}
	}
	return total, nil
}

func parseClock(clock string) (time.Duration, error) {
	negative := strings.HasPrefix(clock, "-")
	parts := strings.Split(strings.TrimPrefix(clock, "-"), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected hh:mm:ss, got %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	s, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s*float64(time.Second))
	if negative {
		d = -d
	}
	return d, nil
}
