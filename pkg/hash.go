package detectdupes

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/spf13/afero"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	Size    int
	NewFunc func() hash.Hash
}

// HexLen returns the length of a hex encoded digest of this algorithm
func (ha *HashAlgorithm) HexLen() int {
	return ha.Size * 2
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "md5":
		return &HashAlgorithm{
			Name:    "md5",
			Size:    HashSizeMD5,
			NewFunc: func() hash.Hash { return md5.New() },
		}, nil
	case "sha1":
		return &HashAlgorithm{
			Name:    "sha1",
			Size:    HashSizeSHA1,
			NewFunc: func() hash.Hash { return sha1.New() },
		}, nil
	case "sha256":
		return &HashAlgorithm{
			Name:    "sha256",
			Size:    HashSizeSHA256,
			NewFunc: func() hash.Hash { return sha256.New() },
		}, nil
	case "sha512":
		return &HashAlgorithm{
			Name:    "sha512",
			Size:    HashSizeSHA512,
			NewFunc: func() hash.Hash { return sha512.New() },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// HashReader consumes r completely and returns its digest
func HashReader(r io.Reader, algorithm *HashAlgorithm, bufferSize int) ([]byte, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultHashBuffer
	}

	hasher := algorithm.NewFunc()
	buffer := make([]byte, bufferSize)
	if _, err := io.CopyBuffer(hasher, r, buffer); err != nil {
		return nil, err
	}

	return hasher.Sum(nil), nil
}

// HashFile calculates the digest of a file. The file is opened, read to the
// end and closed before returning.
func HashFile(fs afero.Fs, filePath string, algorithm *HashAlgorithm, bufferSize int) ([]byte, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	sum, err := HashReader(file, algorithm, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("failed to hash file %s: %w", filePath, err)
	}

	return sum, nil
}

// HashFileToHexString calculates the digest of a file and returns it as a lowercase hex string
func HashFileToHexString(fs afero.Fs, filePath string, algorithm *HashAlgorithm, bufferSize int) (string, error) {
	hashBytes, err := HashFile(fs, filePath, algorithm, bufferSize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hashBytes), nil
}

// HashStringToHexString calculates the hash of a string and returns it as a hex string
func HashStringToHexString(data string, algorithm *HashAlgorithm) string {
	hasher := algorithm.NewFunc()
	hasher.Write([]byte(data))
	return hex.EncodeToString(hasher.Sum(nil))
}

// isDigestFor reports whether digest looks like a hex digest produced by algorithm
func isDigestFor(digest string, algorithm *HashAlgorithm) bool {
	if len(digest) != algorithm.HexLen() {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}
