// Package study defines the study identity and the tracked-file naming
// scheme shared by the storage strategies, the sync manager, and the remote
// session client.
package study

import (
	"fmt"
	"path"
	"strings"
)

// ID identifies a user's analysis session. It is opaque to this package and
// is used only to namespace persisted handles, blobs, and server sessions.
type ID string

// String returns the raw identifier.
func (id ID) String() string {
	return string(id)
}

// FileSet is the fixed set of logical files tracked for one study, all
// derived from a single base filename.
//
// Derivation rules (for base "data.csv"):
//
//	Base      data.csv             the raw upload
//	Mapping   data.json            base with its extension replaced
//	Simulated simulated_data.csv   "simulated_" prefix on the base
//	Encoded   data_encoded.csv     "_encoded.csv" on the stem
//	Codebook  data_codebook.json   "_codebook.json" on the stem
//
// The server derives the same names on its side, so these rules are part of
// the wire contract and must not drift.
type FileSet struct {
	Base      string
	Mapping   string
	Simulated string
	Encoded   string
	Codebook  string
}

// DeriveFileSet builds the tracked file set from the base filename.
//
// The base must be a bare filename (no directory separators) with an
// extension; anything else is rejected so a malformed configuration cannot
// silently produce keys that the server will never match.
func DeriveFileSet(base string) (FileSet, error) {
	if base == "" {
		return FileSet{}, fmt.Errorf("base filename is empty")
	}
	if strings.ContainsAny(base, "/\\") {
		return FileSet{}, fmt.Errorf("base filename %q must not contain path separators", base)
	}

	ext := path.Ext(base)
	if ext == "" || ext == base {
		return FileSet{}, fmt.Errorf("base filename %q has no extension", base)
	}
	stem := strings.TrimSuffix(base, ext)

	return FileSet{
		Base:      base,
		Mapping:   stem + ".json",
		Simulated: "simulated_" + base,
		Encoded:   stem + "_encoded.csv",
		Codebook:  stem + "_codebook.json",
	}, nil
}

// Names returns the tracked filenames in sync order: the base file first,
// then its derived counterparts. SyncProjectState and hydration both walk
// this slice, so the order is stable.
func (fs FileSet) Names() []string {
	return []string{fs.Base, fs.Mapping, fs.Simulated, fs.Encoded, fs.Codebook}
}

// Contains reports whether name is one of the tracked filenames.
func (fs FileSet) Contains(name string) bool {
	for _, n := range fs.Names() {
		if n == name {
			return true
		}
	}
	return false
}
