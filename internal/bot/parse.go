package bot

import (
	"fmt"
	"strconv"
	"strings"

	"cleanmeta/internal/model"
)

// ParseCleanArgs parses arguments for /clean.
// Format: <item_id> <meta_key>
func ParseCleanArgs(args string) (model.DedupTarget, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return model.DedupTarget{}, fmt.Errorf("usage: <item_id> <meta_key>")
	}
	// Invalid ids are passed through as 0 and rejected by the cleaner.
	return model.NewDedupTarget(parts[0], strings.Join(parts[1:], " ")), nil
}

// ParseDaysArg extracts a positive number of days.
func ParseDaysArg(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("number of days is required")
	}
	days, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || days < 1 {
		return 0, fmt.Errorf("invalid number of days %q", s)
	}
	return days, nil
}
