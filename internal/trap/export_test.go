package trap

// ActiveOp exposes the escape slot to the external tests.
func ActiveOp(t *Trap) string {
	return t.activeOp()
}
