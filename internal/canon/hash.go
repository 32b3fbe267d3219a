package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// Domain prefixes for content fingerprints. The version suffix allows the
// algorithm to change without colliding with old fingerprints.
const (
	DomainFile = "packc/file/v1"
	DomainTree = "packc/tree/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data). The separator keeps
// the domain/data boundary unambiguous.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// File is one rendered file for fingerprinting.
type File struct {
	Path    string
	Content []byte
}

// Fingerprint hashes a set of files independent of their order. Each file
// hash covers its path and content; the tree hash covers the canonical
// JSON array of "path=hash" entries sorted by path.
func Fingerprint(files []File) string {
	entries := make([]string, 0, len(files))
	for _, f := range files {
		body := append([]byte(f.Path+"\x00"), f.Content...)
		entries = append(entries, f.Path+"="+HashWithDomain(DomainFile, body))
	}
	slices.Sort(entries)
	return HashWithDomain(DomainTree, MustMarshal(Strings(entries...)))
}
