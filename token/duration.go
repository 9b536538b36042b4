package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrDurationInvalid is returned by ParseTTL for unparseable or non-positive
// duration specifications.
var ErrDurationInvalid = errors.New("invalid duration specification")

// ParseTTL converts a duration specification into a time.Duration. A bare
// integer is a count of seconds. A trailing unit of "d", "h", or "m" scales
// the leading integer to days, hours, or minutes; any other single-character
// suffix leaves the leading integer as raw seconds. Non-positive results are
// rejected.
func ParseTTL(spec string) (time.Duration, error) {
	if spec == "" {
		return 0, fmt.Errorf("%w: empty", ErrDurationInvalid)
	}

	if n, err := strconv.ParseInt(spec, 10, 64); err == nil {
		return positiveSeconds(n, 1)
	}

	num := spec[:len(spec)-1]
	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrDurationInvalid, spec)
	}

	switch spec[len(spec)-1] {
	case 'd':
		return positiveSeconds(n, 24*60*60)
	case 'h':
		return positiveSeconds(n, 60*60)
	case 'm':
		return positiveSeconds(n, 60)
	default:
		// Unknown units degrade to raw seconds.
		return positiveSeconds(n, 1)
	}
}

func positiveSeconds(n, scale int64) (time.Duration, error) {
	seconds := n * scale
	if seconds <= 0 {
		return 0, fmt.Errorf("%w: must be positive", ErrDurationInvalid)
	}
	return time.Duration(seconds) * time.Second, nil
}
