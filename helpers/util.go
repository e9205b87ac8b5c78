package helpers

import (
	"errors"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// LastPathSegment returns the last path segment of a link, query dropped
func LastPathSegment(link string) string {
	path, _ := GetSplitPart(link, "?", 0)
	path = strings.TrimRight(path, "/")
	return path[strings.LastIndex(path, "/")+1:]
}
