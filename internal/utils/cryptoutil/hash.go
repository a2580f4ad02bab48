// Package cryptoutil computes content digests of DEX files for reports and
// threat-intelligence lookups
package cryptoutil

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"golang.org/x/crypto/blake2b"
)

// Bytes2Hex encodes a byte slice to hex string
func Bytes2Hex(d []byte) string {
	return hex.EncodeToString(d)
}

// HashAlgorithm represents supported hash algorithms
type HashAlgorithm string

const (
	// MD5 algorithm (not recommended for security-critical applications)
	MD5 HashAlgorithm = "md5"

	// SHA1 algorithm, the digest Android stores in the dex signature field
	SHA1 HashAlgorithm = "sha1"

	// SHA256 algorithm, the key VirusTotal indexes files by
	SHA256 HashAlgorithm = "sha256"

	// BLAKE2b256 algorithm
	BLAKE2b256 HashAlgorithm = "blake2b-256"
)

// Hasher provides an interface for hashing operations
type Hasher interface {
	// Algorithm returns the algorithm the hasher computes
	Algorithm() HashAlgorithm

	// Hash hashes the provided data
	Hash(data []byte) (string, error)

	// HashReader hashes data from a reader
	HashReader(reader io.Reader) (string, error)

	// Verify checks if the provided hash matches the calculated hash for the data
	Verify(data []byte, expectedHash string) (bool, error)
}

// hasherImpl implements the Hasher interface
type hasherImpl struct {
	algorithm HashAlgorithm
	newHash   func() hash.Hash
}

func newBLAKE2b256() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only reachable with an oversized key
		panic(err)
	}
	return h
}

// NewHasher creates a new Hasher for the specified algorithm
func NewHasher(algorithm HashAlgorithm) (Hasher, error) {
	var newHashFunc func() hash.Hash

	switch HashAlgorithm(strings.ToLower(string(algorithm))) {
	case MD5:
		newHashFunc = md5.New
	case SHA1:
		newHashFunc = sha1.New
	case SHA256:
		newHashFunc = sha256.New
	case BLAKE2b256:
		newHashFunc = newBLAKE2b256
	default:
		return nil, fmt.Errorf("%w: '%s'", errors.ErrUnsupportedHashAlg, algorithm)
	}

	return &hasherImpl{
		algorithm: algorithm,
		newHash:   newHashFunc,
	}, nil
}

// Algorithm returns the algorithm the hasher computes
func (h *hasherImpl) Algorithm() HashAlgorithm {
	return h.algorithm
}

// Hash hashes the provided data
func (h *hasherImpl) Hash(data []byte) (string, error) {
	hasher := h.newHash()
	if _, err := hasher.Write(data); err != nil {
		return "", fmt.Errorf("hash operation failed: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashReader hashes data from a reader
func (h *hasherImpl) HashReader(reader io.Reader) (string, error) {
	hasher := h.newHash()
	if _, err := io.Copy(hasher, reader); err != nil {
		return "", fmt.Errorf("hash operation failed: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify checks if the provided hash matches the calculated hash for the data
func (h *hasherImpl) Verify(data []byte, expectedHash string) (bool, error) {
	actualHash, err := h.Hash(data)
	if err != nil {
		return false, err
	}

	return strings.EqualFold(actualHash, expectedHash), nil
}

// Digests hashes data once per algorithm in a single pass and returns the
// hex digests keyed by algorithm
func Digests(data []byte, algorithms ...HashAlgorithm) (map[HashAlgorithm]string, error) {
	writers := make([]*HashWriter, 0, len(algorithms))
	sinks := make([]io.Writer, 0, len(algorithms))
	for _, algorithm := range algorithms {
		hw, err := NewHashWriter(algorithm)
		if err != nil {
			return nil, err
		}
		writers = append(writers, hw)
		sinks = append(sinks, hw)
	}

	if _, err := io.MultiWriter(sinks...).Write(data); err != nil {
		return nil, fmt.Errorf("hash operation failed: %w", err)
	}

	digests := make(map[HashAlgorithm]string, len(writers))
	for i, hw := range writers {
		digests[algorithms[i]] = hw.SumHex()
	}
	return digests, nil
}
