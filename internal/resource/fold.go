package resource

import (
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// A Caser keeps state between calls and must not be shared by goroutines.
var folders = sync.Pool{New: func() any {
	c := cases.Fold()
	return &c
}}

// Fold normalizes an attribute, sort key or type name for case-insensitive
// lookups. Tables of names fold once when they are built; requests fold only
// what the client sent.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if isASCII(s) {
		return strings.ToLower(s)
	}
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(s)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
