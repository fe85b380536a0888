package envfile

import (
	"fmt"
	"io"
	"os"
)

// MissingMessage is printed when there is nothing to delete.
const MissingMessage = "Can not delete the file as it doesn't exists"

// Clean deletes the file at path. A missing file is reported on out and is not an error.
func Clean(path string, out io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, MissingMessage)
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
