package commands

import (
	"strings"

	"dispatch/internal/pkg/errs"
)

func requireID(paramName, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errs.NewValueIsRequiredError(paramName)
	}
	return value, nil
}
