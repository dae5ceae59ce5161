package rarblock

// Summary totals the files of one or more archive listings.
type Summary struct {
	Archives          int    `json:"archives"`
	Files             int    `json:"files"`
	Symlinks          int    `json:"symlinks"`
	TotalPackedSize   uint64 `json:"totalPackedSize"`
	TotalUnpackedSize uint64 `json:"totalUnpackedSize"`
	AllStored         bool   `json:"allStored"`
	AllComplete       bool   `json:"allComplete"`
}

// Summarize builds a Summary from listings. Nil entries are ignored.
func Summarize(ls []*ArchiveListing) Summary {
	s := Summary{AllStored: true, AllComplete: true}
	for _, l := range ls {
		if l == nil {
			continue
		}
		s.Archives++
		if !l.Complete {
			s.AllComplete = false
		}
		for _, fe := range l.Files {
			s.Files++
			if fe.Symlink != "" {
				s.Symlinks++
			}
			s.TotalPackedSize += fe.PackedSize
			s.TotalUnpackedSize += fe.UnpackedSize
			if !fe.Stored {
				s.AllStored = false
			}
		}
	}
	return s
}
