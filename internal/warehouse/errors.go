package warehouse

import (
	"errors"
	"strings"

	sf "github.com/snowflakedb/gosnowflake"
)

var (
	ErrDDLCreateFailed  = errors.New("table creation failed")
	ErrDataUploadFailed = errors.New("data upload failed")
)

// Snowflake error numbers the pipeline reacts to.
const (
	errNumSyntax        = 1003
	errNumAlreadyExists = 2002
	errNumDoesNotExist  = 2003
)

func errorNumber(err error) (int, bool) {
	var sfErr *sf.SnowflakeError
	if errors.As(err, &sfErr) {
		return sfErr.Number, true
	}
	return 0, false
}

func errorText(err error) string {
	return strings.ToLower(err.Error())
}

func IsSyntaxError(err error) bool {
	if err == nil {
		return false
	}
	if n, ok := errorNumber(err); ok && n == errNumSyntax {
		return true
	}
	return strings.Contains(errorText(err), "syntax error")
}

func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if n, ok := errorNumber(err); ok && n == errNumAlreadyExists {
		return true
	}
	return strings.Contains(errorText(err), "already exists")
}

// IsMissingObject reports whether err says the referenced object is absent.
func IsMissingObject(err error) bool {
	if err == nil {
		return false
	}
	if n, ok := errorNumber(err); ok && n == errNumDoesNotExist {
		return true
	}
	msg := errorText(err)
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "invalid object")
}
