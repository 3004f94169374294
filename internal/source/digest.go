package source

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// DomainSource prefixes source file digests. The version suffix allows
// the algorithm to change without colliding with recorded digests.
const DomainSource = "supaharris/source/v1"

// Digest hashes the decoded bytes of a source file as they are read.
// Format: SHA256(domain + 0x00 + data).
type Digest struct {
	h hash.Hash
}

// NewDigest starts a domain-separated digest.
func NewDigest() *Digest {
	h := sha256.New()
	h.Write([]byte(DomainSource))
	h.Write([]byte{0x00})
	return &Digest{h: h}
}

// Tee returns a reader that feeds everything read from r into the digest.
func (d *Digest) Tee(r io.Reader) io.Reader {
	return io.TeeReader(r, d.h)
}

// Sum returns the hex digest of everything read so far.
func (d *Digest) Sum() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
