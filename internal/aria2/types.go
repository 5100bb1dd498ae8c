package aria2

import (
	"path/filepath"
	"strconv"
)

// Download states reported by aria2 in the status field.
const (
	StatusActive   = "active"
	StatusWaiting  = "waiting"
	StatusPaused   = "paused"
	StatusError    = "error"
	StatusComplete = "complete"
	StatusRemoved  = "removed"
)

// Status is one tellStatus/tellActive entry. aria2 encodes every number as a
// JSON string.
type Status struct {
	GID             string `json:"gid"`
	Status          string `json:"status"`
	TotalLength     int64  `json:"totalLength,string"`
	CompletedLength int64  `json:"completedLength,string"`
	DownloadSpeed   int64  `json:"downloadSpeed,string"`
	Connections     int    `json:"connections,string"`
	NumPieces       int    `json:"numPieces,string,omitempty"`
	PieceLength     int64  `json:"pieceLength,string,omitempty"`
	Bitfield        string `json:"bitfield,omitempty"`
	ErrorCode       string `json:"errorCode,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
	Dir             string `json:"dir,omitempty"`
	Files           []File `json:"files,omitempty"`
}

// Name is the base name of the first file, or "unknown" while aria2 has not
// resolved one yet.
func (s *Status) Name() string {
	if len(s.Files) == 0 || s.Files[0].Path == "" {
		return "unknown"
	}
	return filepath.Base(s.Files[0].Path)
}

// Remaining is the number of bytes still to fetch.
func (s *Status) Remaining() int64 {
	if s.TotalLength <= s.CompletedLength {
		return 0
	}
	return s.TotalLength - s.CompletedLength
}

// HasPiece reports whether piece i is complete according to the hex bitfield.
// The high bit of the first byte is piece 0.
func (s *Status) HasPiece(i int) bool {
	if i < 0 || i >= s.NumPieces {
		return false
	}
	nibble := i / 4
	if nibble >= len(s.Bitfield) {
		return false
	}
	v, err := strconv.ParseUint(s.Bitfield[nibble:nibble+1], 16, 8)
	if err != nil {
		return false
	}
	return v&(8>>(i%4)) != 0
}

// File is a getFiles entry.
type File struct {
	Index           int    `json:"index,string"`
	Path            string `json:"path"`
	Length          int64  `json:"length,string"`
	CompletedLength int64  `json:"completedLength,string"`
	Selected        bool   `json:"selected,string"`
}

// Version is the getVersion result.
type Version struct {
	Version         string   `json:"version"`
	EnabledFeatures []string `json:"enabledFeatures"`
}
