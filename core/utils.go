package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// DateFormat is the calendar-date layout used across sessions (sortable).
	DateFormat = "2006-01-02"
	// ClockFormat is the wall-clock layout of session start times.
	ClockFormat = "15:04"
	// TimestampFormat is the second-precision, timezone-naive layout persisted
	// for all timestamps; it sorts lexicographically.
	TimestampFormat = "2006-01-02 15:04:05"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Now returns the current UTC time truncated to the second, matching the
// precision of persisted timestamps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Getwd tries to find the project root (the directory holding go.mod).
// go-test changes the working directory to the test package being run during tests... this breaks our code...
// see: https://stackoverflow.com/questions/23847003/golang-tests-and-working-directory
func Getwd() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd
		}
		currDir = newDir
	}
}
