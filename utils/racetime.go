package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidRaceTime = errors.New("invalid race time")

// FormatRaceTime renders milliseconds as H:MM:SS, or H:MM:SS.s when there are tenths.
func FormatRaceTime(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	tenths := (ms % 1000) / 100
	total := ms / 1000
	h, m, s := total/3600, (total/60)%60, total%60
	if tenths == 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%d:%02d:%02d.%d", sign, h, m, s, tenths)
}

// ParseRaceTime accepts H:MM:SS or MM:SS with an optional fraction of up to
// three digits ("2:05:30", "2:05:30.4", "1:02:33.250", "29:59").
func ParseRaceTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidRaceTime)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	var fracMs int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 3 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
		}
		v, err := strconv.Atoi(frac)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
		}
		for i := len(frac); i < 3; i++ {
			v *= 10
		}
		fracMs = int64(v)
	}

	parts := strings.Split(whole, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
	}
	nums := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
		}
		// минуты и секунды всегда двузначные, кроме ведущего поля
		if i > 0 && (len(p) != 2 || v > 59) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidRaceTime, s)
		}
		nums[i] = v
	}

	var secs int64
	for _, v := range nums {
		secs = secs*60 + v
	}
	return secs*1000 + fracMs, nil
}
