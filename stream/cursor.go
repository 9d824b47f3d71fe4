package stream

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/Neumenon/capcode/capcode"
)

// Cursor tracks per-SID receive state. Each SID decodes with its own
// capcode.State, so interleaved streams never disturb one another.
type Cursor struct {
	mu      sync.RWMutex
	codec   *capcode.Codec
	logger  *zap.Logger
	cursors map[uint64]*SIDState
}

// SIDState holds state for a single stream ID.
type SIDState struct {
	SID       uint64
	LastSeq   uint64        // last text frame accepted
	LastAcked uint64        // last seq acknowledged
	Decode    capcode.State // decoder state after LastSeq
	Bytes     int64         // decoded bytes so far
	Final     bool          // whether the stream has ended
	digest    hash.Hash     // running SHA-256 of decoded text
}

// CursorOption configures a Cursor.
type CursorOption func(*Cursor)

// WithCursorCodec sets the codec used to decode text frames.
func WithCursorCodec(c *capcode.Codec) CursorOption {
	return func(cur *Cursor) {
		if c != nil {
			cur.codec = c
		}
	}
}

// WithLogger sets the logger for sequence and digest problems.
func WithLogger(l *zap.Logger) CursorOption {
	return func(cur *Cursor) {
		if l != nil {
			cur.logger = l
		}
	}
}

// NewCursor creates a new cursor.
func NewCursor(opts ...CursorOption) *Cursor {
	c := &Cursor{
		codec:   capcode.Default(),
		logger:  zap.NewNop(),
		cursors: make(map[uint64]*SIDState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the state for a SID, creating it if needed.
func (c *Cursor) Get(sid uint64) *SIDState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(sid)
}

func (c *Cursor) getLocked(sid uint64) *SIDState {
	st, ok := c.cursors[sid]
	if !ok {
		st = &SIDState{SID: sid, digest: sha256.New()}
		c.cursors[sid] = st
	}
	return st
}

// GetReadOnly returns the state for a SID, or nil if unknown.
func (c *Cursor) GetReadOnly(sid uint64) *SIDState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cursors[sid]
}

// Delete removes state for a SID.
func (c *Cursor) Delete(sid uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cursors, sid)
}

// AllSIDs returns all tracked SIDs in ascending order.
func (c *Cursor) AllSIDs() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sids := make([]uint64, 0, len(c.cursors))
	for sid := range c.cursors {
		sids = append(sids, sid)
	}
	slices.Sort(sids)
	return sids
}

// Decode accepts the next text frame of its SID and returns the decoded
// plain text. Frames must arrive with seq = LastSeq+1; anything else is a
// *SequenceError and leaves the state untouched. On the final frame the
// digest of all decoded text is compared against the frame's sum, if any.
func (c *Cursor) Decode(f *Frame) (string, error) {
	if f.Kind != KindText {
		return "", fmt.Errorf("cs1: sid %d seq %d: cannot decode %s frame", f.SID, f.Seq, f.Kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.getLocked(f.SID)
	if st.Final {
		return "", fmt.Errorf("cs1: sid %d: frame seq %d after final", f.SID, f.Seq)
	}
	if f.Seq != st.LastSeq+1 {
		c.logger.Warn("sequence gap",
			zap.Uint64("sid", f.SID),
			zap.Uint64("expected", st.LastSeq+1),
			zap.Uint64("got", f.Seq))
		return "", &SequenceError{SID: f.SID, Expected: st.LastSeq + 1, Got: f.Seq}
	}

	text, next := c.codec.DecodeChunk(st.Decode, string(f.Payload))
	st.LastSeq = f.Seq
	st.Decode = next
	st.Bytes += int64(len(text))
	st.digest.Write([]byte(text))

	if f.IsFinal() {
		st.Final = true
		if f.Sum != nil {
			var got [32]byte
			copy(got[:], st.digest.Sum(nil))
			if got != *f.Sum {
				c.logger.Warn("digest mismatch", zap.Uint64("sid", f.SID))
				return text, &DigestMismatchError{SID: f.SID, Expected: *f.Sum, Got: got}
			}
		}
		c.logger.Debug("stream complete",
			zap.Uint64("sid", f.SID),
			zap.Uint64("frames", st.LastSeq),
			zap.Int64("bytes", st.Bytes))
	}
	return text, nil
}

// Ack marks seq as acknowledged.
func (c *Cursor) Ack(sid, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.getLocked(sid)
	if seq > st.LastAcked {
		st.LastAcked = seq
	}
}

// PendingAcks returns the sequence numbers accepted but not yet acknowledged.
func (c *Cursor) PendingAcks(sid uint64) []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := c.cursors[sid]
	if st == nil || st.LastSeq <= st.LastAcked {
		return nil
	}
	pending := make([]uint64, 0, st.LastSeq-st.LastAcked)
	for seq := st.LastAcked + 1; seq <= st.LastSeq; seq++ {
		pending = append(pending, seq)
	}
	return pending
}

// ============================================================
// Frame Handler - callback dispatch
// ============================================================

// FrameHandler decodes text frames through a Cursor and dispatches every
// frame to the matching callback.
type FrameHandler struct {
	Cursor *Cursor

	OnText  func(sid, seq uint64, text string, state *SIDState) error
	OnAck   func(sid, seq uint64, state *SIDState) error
	OnErr   func(sid, seq uint64, msg string, state *SIDState) error
	OnPing  func(sid, seq uint64) error
	OnFinal func(sid uint64, state *SIDState) error

	// OnSeqGap is called for out-of-order text frames. Returning nil skips
	// the frame; without a callback the gap is returned as an error.
	OnSeqGap func(sid uint64, expected, got uint64) error
}

// NewFrameHandler creates a handler with a default cursor.
func NewFrameHandler(opts ...CursorOption) *FrameHandler {
	return &FrameHandler{Cursor: NewCursor(opts...)}
}

// Handle processes a frame and calls the appropriate callback.
func (h *FrameHandler) Handle(f *Frame) error {
	switch f.Kind {
	case KindText:
		text, err := h.Cursor.Decode(f)
		var gap *SequenceError
		if errors.As(err, &gap) {
			if h.OnSeqGap != nil {
				return h.OnSeqGap(gap.SID, gap.Expected, gap.Got)
			}
			return err
		}
		state := h.Cursor.Get(f.SID)
		if h.OnText != nil && (err == nil || text != "") {
			if cbErr := h.OnText(f.SID, f.Seq, text, state); cbErr != nil {
				return cbErr
			}
		}
		if err != nil {
			return err
		}
		if f.IsFinal() && h.OnFinal != nil {
			return h.OnFinal(f.SID, state)
		}
		return nil
	case KindAck:
		h.Cursor.Ack(f.SID, f.Seq)
		if h.OnAck != nil {
			return h.OnAck(f.SID, f.Seq, h.Cursor.Get(f.SID))
		}
	case KindErr:
		if h.OnErr != nil {
			return h.OnErr(f.SID, f.Seq, string(f.Payload), h.Cursor.Get(f.SID))
		}
	case KindPing:
		if h.OnPing != nil {
			return h.OnPing(f.SID, f.Seq)
		}
	}
	return nil
}
