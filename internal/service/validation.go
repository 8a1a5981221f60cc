package service

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"
)

var ErrValidation = errors.New("validation failed")

// ValidationError carries per-field messages for a 422 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type fieldChecker struct {
	fields map[string]string
}

func (c *fieldChecker) length(field, value string, minLen, maxLen int, label string) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	switch {
	case minLen > 0 && n < minLen:
		c.add(field, label+" is required")
	case n > maxLen:
		c.add(field, label+" is too long")
	}
}

func (c *fieldChecker) add(field, msg string) {
	if c.fields == nil {
		c.fields = make(map[string]string)
	}
	if _, exists := c.fields[field]; !exists {
		c.fields[field] = msg
	}
}

func (c *fieldChecker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}
