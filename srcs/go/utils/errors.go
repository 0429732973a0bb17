package utils

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// ExitErr prints err with the location of its caller and exits the process.
func ExitErr(err error) {
	_, fn, line, _ := runtime.Caller(1)
	fmt.Fprintf(os.Stderr, "exit on error: %v at %s:%d\n", err, fn, line)
	os.Exit(1)
}

// MergeErrors combines the non-nil errors of errs into one, or returns nil.
// The result wraps the first error, so errors.Is and errors.As see it.
func MergeErrors(errs []error, hint string) error {
	var first error
	var msgs []string
	for _, e := range errs {
		if e != nil {
			if first == nil {
				first = e
			} else {
				msgs = append(msgs, e.Error())
			}
		}
	}
	if first == nil {
		return nil
	}
	if len(msgs) == 0 {
		return errors.Wrap(first, hint)
	}
	return errors.Wrapf(first, "%s failed with %s (others: %s)", hint, Pluralize(len(msgs)+1, "error", "errors"), strings.Join(msgs, ", "))
}

func pluralize(n int, singular, plural string) string {
	if n > 1 {
		return plural
	}
	return singular
}

func Pluralize(n int, singular, plural string) string {
	return fmt.Sprintf("%d %s", n, pluralize(n, singular, plural))
}
