package checkpointer

import "fmt"

// nStep implements checkpointing every N updates
type nStep struct {
	interval  int
	saveFirst bool
	object    Saver // Object to save

	// filename returns the filename of the file to save the object
	// in at an update.
	//
	// If each checkpoint should be named after its update (e.g.
	// 00001, 00010, 00020), use the static function UpdateFilename.
	filename func(update int) string
}

// NewNStep returns a checkpointer that checkpoints every n updates. If
// saveFirst is true, the first update is checkpointed as well.
func NewNStep(n int, object Saver, filename func(int) string,
	saveFirst bool) (Checkpointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newNStep: interval must be positive, "+
			"have(%v)", n)
	}

	return &nStep{
		interval:  n,
		saveFirst: saveFirst,
		object:    object,
		filename:  filename,
	}, nil
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method
func (n *nStep) Checkpoint(update int) (string, bool, error) {
	if update%n.interval != 0 && !(n.saveFirst && update == 1) {
		return "", false, nil
	}

	path := n.filename(update)
	if err := n.object.Save(path); err != nil {
		return "", false, fmt.Errorf("checkpoint: could not save to %v: %v",
			path, err)
	}
	return path, true, nil
}
