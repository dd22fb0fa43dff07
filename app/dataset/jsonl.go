package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pkgz/fileutils"
)

// ReadJSONL decodes one json value per line, empty lines ignored. Lines failing to decode are reported
// together, in this case no items returned.
func ReadJSONL[T any](r io.Reader) ([]T, error) {
	var res []T
	errs := &rowErrors{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 1; scanner.Scan(); line++ {
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			errs.add(line, err)
			continue
		}
		res = append(res, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("can't read lines: %w", err)
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return res, nil
}

// ReadJSONLFile is ReadJSONL over a file
func ReadJSONLFile[T any](path string) ([]T, error) {
	fh, err := os.Open(path) //nolint:gosec // path from cli
	if err != nil {
		return nil, fmt.Errorf("can't open %s: %w", path, err)
	}
	defer fh.Close()
	res, err := ReadJSONL[T](fh)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", path, err)
	}
	return res, nil
}

// WriteJSONL encodes items one per line
func WriteJSONL[T any](w io.Writer, items []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, it := range items {
		if err := enc.Encode(it); err != nil {
			return fmt.Errorf("can't encode item %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("can't flush: %w", err)
	}
	return nil
}

// WriteJSONLFile writes items to a temp file in the target directory and renames it to path,
// so a failed write never leaves a partial file.
func WriteJSONLFile[T any](path string, items []T) (err error) {
	tmp, err := fileutils.TempFileName(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("can't make temp file name: %w", err)
	}
	fh, err := os.Create(tmp) //nolint:gosec // tmp name is generated
	if err != nil {
		return fmt.Errorf("can't create %s: %w", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = WriteJSONL(fh, items); err != nil {
		_ = fh.Close()
		return fmt.Errorf("can't write %s: %w", path, err)
	}
	if err = fh.Close(); err != nil {
		return fmt.Errorf("can't close %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("can't rename %s to %s: %w", tmp, path, err)
	}
	return nil
}
