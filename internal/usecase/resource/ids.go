package resource

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/andreyxaxa/Resource-Service/pkg/types/errs"
)

const maxCSVLength = 200

var positiveIDPattern = regexp.MustCompile(`^[1-9]\d*$`)

// ParsePositiveIDs parses a comma separated id list. Blank parts are skipped,
// duplicates collapse, order of first appearance is kept.
func ParsePositiveIDs(csv string) ([]int64, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, errs.NewInputError(errs.ErrInvalidCSV, "At least one resource ID must be provided")
	}

	if len(csv) > maxCSVLength {
		return nil, errs.NewInputError(errs.ErrInvalidCSV, fmt.Sprintf(
			"CSV string is too long: received %d characters, maximum allowed is %d", len(csv), maxCSVLength))
	}

	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := ParsePositiveID(part)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

func ParsePositiveID(raw string) (int64, error) {
	if !positiveIDPattern.MatchString(raw) {
		return 0, errs.NewInputError(errs.ErrInvalidResourceID, fmt.Sprintf(
			"Invalid ID format: '%s'. Only positive integers are allowed", raw))
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.NewInputError(errs.ErrInvalidResourceID, fmt.Sprintf(
			"Invalid ID format: '%s'. Only positive integers are allowed", raw))
	}

	return id, nil
}
