package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/maksimkurb/openwrt-monitor/src/internal/utils"
)

// ChecksumReader hashes everything read through it.
type ChecksumReader struct {
	reader   io.Reader
	checksum hash.Hash
}

// NewChecksumReader wraps reader with a SHA-256 hasher.
func NewChecksumReader(reader io.Reader) *ChecksumReader {
	return &ChecksumReader{
		reader:   reader,
		checksum: sha256.New(),
	}
}

func (p *ChecksumReader) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		// hash.Hash.Write never fails
		p.checksum.Write(buf[:n])
	}
	return n, err
}

// Checksum returns the hex checksum of the bytes read so far.
func (p *ChecksumReader) Checksum() string {
	return hex.EncodeToString(p.checksum.Sum(nil))
}

// FileChecksum returns the checksum of the file at path.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer utils.CloseOrWarn(f)

	r := NewChecksumReader(f)
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return r.Checksum(), nil
}
