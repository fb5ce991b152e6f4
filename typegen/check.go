package typegen

import (
	"bufio"
	"os"
	"strings"

	"github.com/teranos/declgen/errors"
)

// CheckResult holds the result of comparing fresh output with a written file
type CheckResult struct {
	Path     string
	UpToDate bool
	Missing  bool
	Lines    []int // 1-based line numbers that differ, after metadata filtering
}

// Banner returns the header lines prepended to generated files when the
// banner is enabled. The version line is metadata and ignored by Check.
func Banner(d Dialect, version string) string {
	return d.Comment("Code generated by declgen. DO NOT EDIT.") + "\n" +
		d.Comment("Source version: "+version) + "\n"
}

// Check compares freshly generated text with the file at existingPath.
// A missing file is reported as stale, not as an error.
func Check(fresh, existingPath string, d Dialect) (*CheckResult, error) {
	res := &CheckResult{Path: existingPath}

	existing, err := os.ReadFile(existingPath)
	if err != nil {
		if os.IsNotExist(err) {
			res.Missing = true
			return res, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", existingPath)
	}

	prefix := d.Comment("Source version:")
	a, err := filterMetadataLines(fresh, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan generated output")
	}
	b, err := filterMetadataLines(string(existing), prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", existingPath)
	}

	res.Lines = diffLines(a, b)
	res.UpToDate = len(res.Lines) == 0
	return res, nil
}

// filterMetadataLines drops lines that change on every generation without
// representing a declaration change.
func filterMetadataLines(content, prefix string) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func diffLines(a, b []string) []int {
	var diff []int
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		if i >= len(a) || i >= len(b) || a[i] != b[i] {
			diff = append(diff, i+1)
		}
	}
	return diff
}
