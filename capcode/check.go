package capcode

import "fmt"

// Check reports whether text is a well-formed encoding for the codec's
// alphabet. Decode accepts anything; Check is for callers that want to
// detect corruption in transit. The first problem found is returned as a
// *SyntaxError wrapping ErrMalformed:
//
//   - END with no open BEGIN
//   - BEGIN while a run is already open
//   - WORD or CHARACTER followed by another marker or by the end of text
//   - text ending inside a BEGIN run
//
// Offsets are byte offsets into text.
func (c *Codec) Check(text string) error {
	a := c.alphabet
	inRun := false
	runAt := 0
	pending := rune(-1)
	pendingAt := 0

	for i, r := range text {
		if !a.IsMarker(r) {
			pending = -1
			continue
		}
		if pending >= 0 {
			return &SyntaxError{
				Reason: fmt.Sprintf("%s followed by %s", a.Name(pending), a.Name(r)),
				Offset: i,
			}
		}
		switch r {
		case a.Begin:
			if inRun {
				return &SyntaxError{Reason: "BEGIN inside open run", Offset: i}
			}
			inRun = true
			runAt = i
		case a.End:
			if !inRun {
				return &SyntaxError{Reason: "END without BEGIN", Offset: i}
			}
			inRun = false
		default:
			pending = r
			pendingAt = i
		}
	}

	if pending >= 0 {
		return &SyntaxError{Reason: fmt.Sprintf("dangling %s", a.Name(pending)), Offset: pendingAt}
	}
	if inRun {
		return &SyntaxError{Reason: "unterminated BEGIN run", Offset: runAt}
	}
	return nil
}
