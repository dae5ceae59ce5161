package rarblock

// EndOfArchiveHeader marks the end of the block stream (block type 5).
type EndOfArchiveHeader struct {
	Base
	EndArchiveFlags uint64
}

func (*EndOfArchiveHeader) Type() HeaderType { return HeaderTypeEnd }

func (h *EndOfArchiveHeader) encodePayload(w *payloadWriter) error {
	w.vint(h.EndArchiveFlags)
	return nil
}

func (h *EndOfArchiveHeader) decodePayload(r *payloadReader) error {
	var err error
	h.EndArchiveFlags, err = r.vint("end archive flags")
	return err
}
