package manifest

import "strconv"

// Version selects the hash layout of a manifest and which hash peers trust
// as the top-level checkpoint hash.
type Version uint32

const (
	// V0 hashes the file table only; no version field in the hash.
	V0 Version = 0
	// V1 adds the version and the chunk table to the manifest hash.
	V1 Version = 1
	// V2 shifts trust to the meta-manifest hash over the encoded manifest.
	V2 Version = 2
	// V3 drops the file index from chunk entries in the file hash, making a
	// file's hash independent of other files' positions.
	V3 Version = 3
)

// CurrentVersion is used for all newly built manifests.
const CurrentVersion = V2

// MaxSupportedVersion bounds what may be decoded. Decoding a manifest with
// a higher version fails outright.
const MaxSupportedVersion = V3

// versionNames doubles as the reverse-lookup table for decoding: a version
// absent from it is unknown.
var versionNames = map[Version]string{
	V0: "V0",
	V1: "V1",
	V2: "V2",
	V3: "V3",
}

// VersionFromU32 converts a decoded integer to a Version. Unknown integers
// fail rather than defaulting.
func VersionFromU32(n uint32) (Version, error) {
	v := Version(n)
	if _, ok := versionNames[v]; !ok {
		return 0, &VersionError{Got: n}
	}
	if v > MaxSupportedVersion {
		return 0, &VersionError{Got: n}
	}
	return v, nil
}

// String returns the version name, or a numeric form for unknown values.
func (v Version) String() string {
	if name, ok := versionNames[v]; ok {
		return name
	}
	return "V?(" + strconv.FormatUint(uint64(v), 10) + ")"
}
