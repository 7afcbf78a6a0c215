package util

import (
	"fmt"
	"os"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create %v: %w", dir, err)
	}
	return nil
}

// RemoveQuietly deletes a temporary file, reporting only unexpected failures.
func RemoveQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Could not remove %v: %v\n", path, err)
	}
}

// Tail keeps at most the last n items of s.
func Tail[A any](s []A, n int) []A {
	if n <= 0 {
		return s[:0]
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
