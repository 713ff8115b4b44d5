package gbx

import (
	"hash"
	"hash/crc32"
)

// NewCRC returns a streaming Checksum, for comparing encoded files without
// buffering them.
func NewCRC() hash.Hash32 {
	return crc32.NewIEEE()
}

// Checksum returns the CRC-32 (IEEE) of b.
func Checksum(b []byte) uint32 {
	return crc32.ChecksumIEEE(b)
}

// Checksum returns the CRC of the body as stored. Two bodies compressed with
// different codecs only compare equal after File.DecompressBody.
func (b Body) Checksum() uint32 {
	return Checksum(b.Raw)
}
