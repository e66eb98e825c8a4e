package emission

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDate is returned for issue dates that are not MM/DD/YYYY.
var ErrInvalidDate = errors.New("formato de fecha inválido, se espera MM/DD/YYYY")

// ReformatIssueDate converts MM/DD/YYYY into DD/MM/YYYY with zero-padded day
// and month. Only ranges are checked: month 1-12, day 1-31, year >= 1.
// Calendar validity (e.g. 02/31) is not checked.
func ReformatIssueDate(value string) (string, error) {
	parts := strings.Split(strings.TrimSpace(value), "/")
	if len(parts) != 3 {
		return "", ErrInvalidDate
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return "", ErrInvalidDate
		}
		nums[i] = n
	}

	month, day, year := nums[0], nums[1], nums[2]
	if month > 12 || day > 31 {
		return "", ErrInvalidDate
	}

	return fmt.Sprintf("%02d/%02d/%d", day, month, year), nil
}
