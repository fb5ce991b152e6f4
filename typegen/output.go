package typegen

import (
	"io"
	"os"
	"path/filepath"

	"github.com/teranos/declgen/errors"
)

// Stdout is the destination name that means standard output.
const Stdout = "-"

// WriteOutputs writes text to every destination. Stdout ("-") goes to stdout;
// anything else is a file path whose parent directories are created.
// Writing stops at the first failure.
func WriteOutputs(text string, destinations []string, stdout io.Writer) error {
	for _, dest := range destinations {
		if dest == Stdout {
			if _, err := io.WriteString(stdout, text); err != nil {
				return errors.Wrap(err, "failed to write to stdout")
			}
			continue
		}

		if dir := filepath.Dir(dest); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", dir)
			}
		}
		if err := os.WriteFile(dest, []byte(text), 0644); err != nil {
			return errors.Wrapf(err, "failed to write %s", dest)
		}
	}
	return nil
}
