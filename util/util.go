package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Errors collects independent failures so that configuration loading can
// report every missing variable at once rather than one per run.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// RequireEnv returns the value of the named environment variable. If the
// variable is unset, an error is appended to errs.
func RequireEnv(varName string, errs *Errors) string {
	val, ok := os.LookupEnv(varName)
	if !ok {
		*errs = append(*errs, fmt.Errorf("environment variable %s must be set", varName))
	}
	return val
}

// ValidPort transforms a port number into the address string expected by
// net/http, and errors if the port number is invalid.
func ValidPort(port string) (string, error) {
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("given portstring %s is invalid", port)
	}
	return fmt.Sprintf(":%s", port), nil
}
