package session

// SetSequenceForTesting overwrites the message counter of c with seq, which
// must be Nn bytes long. This is intended for testing only.
// Since this package is internal, this function cannot be accessed by external code.
func SetSequenceForTesting(c *Context, seq []byte) {
	if len(seq) != len(c.seq) {
		panic("session: sequence length mismatch")
	}
	copy(c.seq, seq)
}
