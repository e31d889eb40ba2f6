package cli

import (
	"errors"
	"maps"
	"slices"
	"strings"

	dErrors "todoweb/pkg/domain-errors"
)

// describe appends per-field validation messages, sorted by field, to err.
func describe(err error) error {
	fields := dErrors.FieldErrors(err)
	if len(fields) == 0 {
		return err
	}
	lines := []string{err.Error()}
	for _, field := range slices.Sorted(maps.Keys(fields)) {
		lines = append(lines, "  "+field+": "+fields[field])
	}
	return errors.New(strings.Join(lines, "\n"))
}
