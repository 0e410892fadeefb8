package yolo

import (
	"regexp"
	"strconv"
	"strings"
)

// ultralytics exports store class names as a python dict literal, e.g.
// {0: 'person', 1: "traffic light"}.
var nameEntry = regexp.MustCompile(`(\d+)\s*:\s*(?:'((?:[^'\\]|\\.)*)'|"((?:[^"\\]|\\.)*)")`)

// ParseNames returns names indexed by class id. Ids at or above numClasses
// are ignored, so the result never outgrows the model's class channels.
func ParseNames(meta string, numClasses int) []string {
	matches := nameEntry.FindAllStringSubmatch(meta, -1)
	if len(matches) == 0 || numClasses <= 0 {
		return nil
	}

	byID := make(map[int]string, len(matches))
	maxID := -1
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil || id >= numClasses {
			continue
		}
		name := m[2]
		if name == "" {
			name = m[3]
		}
		byID[id] = strings.ReplaceAll(name, `\'`, `'`)
		if id > maxID {
			maxID = id
		}
	}

	if maxID < 0 {
		return nil
	}
	names := make([]string, maxID+1)
	for id, name := range byID {
		names[id] = name
	}
	return names
}
