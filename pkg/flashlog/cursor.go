package flashlog

// Cursor navigation.
//
// These operations are pure index arithmetic over the in-memory state;
// they never touch flash and fail only on an empty log or an already
// terminal cursor. Position the cursor, then call [Log.Read].

// GotoNewest moves the cursor to the newest entry.
func (l *Log) GotoNewest() error {
	if l.buf == nil {
		return ErrClosed
	}

	if l.numInUse == 0 {
		return ErrNoEntry
	}

	l.current = l.newest

	return nil
}

// GotoOldest moves the cursor to the oldest entry.
func (l *Log) GotoOldest() error {
	if l.buf == nil {
		return ErrClosed
	}

	if l.numInUse == 0 {
		return ErrNoEntry
	}

	l.current = l.oldest

	return nil
}

// GotoNext advances the cursor one entry toward the newest.
// Fails with [ErrNoEntry] when already at the newest entry.
func (l *Log) GotoNext() error {
	if l.buf == nil {
		return ErrClosed
	}

	if l.numInUse == 0 || l.current == l.newest {
		return ErrNoEntry
	}

	l.current++
	if l.current >= l.numslots {
		l.current = 0
	}

	return nil
}

// GotoPrev moves the cursor one entry toward the oldest.
// Fails with [ErrNoEntry] when already at the oldest entry.
func (l *Log) GotoPrev() error {
	if l.buf == nil {
		return ErrClosed
	}

	if l.numInUse == 0 || l.current == l.oldest {
		return ErrNoEntry
	}

	l.current--
	if l.current < 0 {
		l.current = l.numslots - 1
	}

	return nil
}
