// Package checkpointer implements periodic checkpointing of objects
// that can save themselves to files
package checkpointer

// Saver is an object that can be saved to a file
type Saver interface {
	Save(path string) error
}

// Checkpointer checkpoints/saves objects based on the number of
// updates performed. If the object was saved, Checkpoint returns the
// path to which it was saved and true.
type Checkpointer interface {
	Checkpoint(update int) (string, bool, error)
}
