package rarblock

// MainArchiveHeader describes archive wide properties (block type 1).
type MainArchiveHeader struct {
	Base
	ArchiveFlags uint64
	VolumeNumber *uint64 // set iff ArchiveFlags&ArchiveFlagVolumeNumber != 0
}

func (*MainArchiveHeader) Type() HeaderType { return HeaderTypeMain }

func (h *MainArchiveHeader) encodePayload(w *payloadWriter) error {
	w.vint(h.ArchiveFlags)
	if h.ArchiveFlags&ArchiveFlagVolumeNumber != 0 {
		var vol uint64
		if h.VolumeNumber != nil {
			vol = *h.VolumeNumber
		}
		w.vint(vol)
	}
	return nil
}

func (h *MainArchiveHeader) decodePayload(r *payloadReader) error {
	var err error
	if h.ArchiveFlags, err = r.vint("archive flags"); err != nil {
		return err
	}
	if h.ArchiveFlags&ArchiveFlagVolumeNumber != 0 {
		vol, err := r.vint("volume number")
		if err != nil {
			return err
		}
		h.VolumeNumber = &vol
	}
	return nil
}
