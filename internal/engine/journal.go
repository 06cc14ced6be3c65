package engine

// journal collects undo actions during a call so that a failing step can
// roll back every mutation made earlier in the same call. Undo actions run
// in reverse order of recording.
type journal struct {
	undos []func()
}

func (j *journal) record(undo func()) {
	j.undos = append(j.undos, undo)
}

func (j *journal) revert() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		j.undos[i]()
	}
	j.undos = nil
}

func (j *journal) commit() {
	j.undos = nil
}
