package checkpointer

import (
	"fmt"
	"path/filepath"
)

// UpdateFilename returns a function which names checkpoint files in
// dir after the update they were saved at, zero-padded to five digits
// (e.g. dir/00010).
func UpdateFilename(dir string) func(int) string {
	return func(update int) string {
		return filepath.Join(dir, fmt.Sprintf("%05d", update))
	}
}
