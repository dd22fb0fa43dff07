package linear

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pkgz/fileutils"
)

// markers of the block replaced by EmbedInto
const (
	MarkerBegin = "rss:model:begin"
	MarkerEnd   = "rss:model:end"
)

// ErrNoMarkers returned if the target has no valid marker block
var ErrNoMarkers = errors.New("model markers not found")

// Embed replaces lines between the begin and end marker lines of content with the compact artifact json.
// The inserted line is indented the same way as the begin marker line.
func Embed(content []byte, a Artifact) ([]byte, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("can't marshal artifact: %w", err)
	}

	lines := strings.SplitAfter(string(content), "\n")
	begin, end := -1, -1
	for i, line := range lines {
		if begin < 0 && strings.Contains(line, MarkerBegin) {
			begin = i
			continue
		}
		if begin >= 0 && strings.Contains(line, MarkerEnd) {
			end = i
			break
		}
	}
	if begin < 0 || end < 0 {
		return nil, fmt.Errorf("%w: need a %q line followed by a %q line", ErrNoMarkers, MarkerBegin, MarkerEnd)
	}

	beginLine := lines[begin]
	indent := beginLine[:len(beginLine)-len(strings.TrimLeft(beginLine, " \t"))]

	var buf bytes.Buffer
	for _, line := range lines[:begin+1] {
		buf.WriteString(line)
	}
	if !strings.HasSuffix(beginLine, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString(indent)
	buf.Write(payload)
	buf.WriteString("\n")
	for _, line := range lines[end:] {
		buf.WriteString(line)
	}
	return buf.Bytes(), nil
}

// EmbedInto writes the artifact into the target file. A .json target is replaced as a whole,
// any other target must have a marker block. The target is rewritten atomically.
func EmbedInto(target string, a Artifact) error {
	if !fileutils.IsFile(target) {
		return fmt.Errorf("target %s is not a file", target)
	}

	var result []byte
	if strings.EqualFold(filepath.Ext(target), ".json") {
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return fmt.Errorf("can't marshal artifact: %w", err)
		}
		result = append(data, '\n')
	} else {
		content, err := os.ReadFile(target) //nolint:gosec // path from the operator
		if err != nil {
			return fmt.Errorf("can't read target %s: %w", target, err)
		}
		if result, err = Embed(content, a); err != nil {
			return fmt.Errorf("can't embed into %s: %w", target, err)
		}
	}
	return writeFileAtomic(target, result)
}

// writeFileAtomic writes data to a temp file in the same directory and renames it to path
func writeFileAtomic(path string, data []byte) error {
	tmp, err := fileutils.TempFileName(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("can't make temp file name: %w", err)
	}
	if err = os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // model and script files are public
		_ = os.Remove(tmp)
		return fmt.Errorf("can't write %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("can't rename %s to %s: %w", tmp, path, err)
	}
	return nil
}
