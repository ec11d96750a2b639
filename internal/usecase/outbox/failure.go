package outbox

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/andreyxaxa/Resource-Service/internal/entity"
)

const (
	maxErrorLength  = 2000
	truncatedSuffix = "... (truncated)"
	unknownError    = "Unknown error"
)

// DescribeFailure turns a delivery failure into the bounded text stored in last_error.
func DescribeFailure(err error) string {
	if err == nil {
		return unknownError
	}

	if de, ok := entity.AsDeliveryError(err); ok {
		switch de.Kind {
		case entity.DeliveryHTTPStatus:
			detail := de.Body
			if strings.TrimSpace(detail) == "" {
				detail = http.StatusText(de.StatusCode)
			}

			return truncate(fmt.Sprintf("HTTP %d - %s", de.StatusCode, detail))
		case entity.DeliveryConnection:
			return truncate("Connection error: " + de.Message)
		default:
			if de.Message != "" {
				return truncate(de.Message)
			}

			return truncate(de.Kind.String())
		}
	}

	if msg := err.Error(); msg != "" {
		return truncate(msg)
	}

	return truncate(typeName(err))
}

// IsConflict reports a 409 from the catalog, i.e. the record is already there.
func IsConflict(err error) bool {
	de, ok := entity.AsDeliveryError(err)

	return ok && de.Kind == entity.DeliveryHTTPStatus && de.StatusCode == http.StatusConflict
}

func truncate(text string) string {
	if strings.TrimSpace(text) == "" {
		return unknownError
	}

	if utf8.RuneCountInString(text) <= maxErrorLength {
		return text
	}

	return string([]rune(text)[:maxErrorLength]) + truncatedSuffix
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t.Name()
}
