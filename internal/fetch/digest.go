package fetch

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// Digest is an expected content hash. Algo defaults to sha1, the digest
// declared by version manifests.
type Digest struct {
	Algo string
	Hex  string
}

// SHA1 builds a sha1 digest from a manifest field.
func SHA1(hexValue string) Digest { return Digest{Algo: "sha1", Hex: strings.ToLower(hexValue)} }

// ParseDigest accepts "algo:hex" or a bare hex string whose length selects
// the algorithm.
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Digest{}, nil
	}
	if algo, hexValue, ok := strings.Cut(s, ":"); ok {
		if _, err := newHash(algo); err != nil {
			return Digest{}, err
		}
		return Digest{Algo: algo, Hex: strings.ToLower(hexValue)}, nil
	}
	switch len(s) {
	case 40:
		return SHA1(s), nil
	case 64:
		return Digest{Algo: "sha256", Hex: strings.ToLower(s)}, nil
	case 128:
		return Digest{Algo: "sha512", Hex: strings.ToLower(s)}, nil
	}
	return Digest{}, fmt.Errorf("unrecognized digest %q", s)
}

// IsZero reports whether no digest was declared.
func (d Digest) IsZero() bool { return d.Hex == "" }

func (d Digest) String() string {
	if d.IsZero() {
		return "none"
	}
	return d.algo() + ":" + d.Hex
}

func (d Digest) algo() string {
	if d.Algo == "" {
		return "sha1"
	}
	return d.Algo
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case "", "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("unknown digest algorithm: %s", algo)
}

// HashFile computes the hex digest of path using algo.
func HashFile(path, algo string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Matches reports whether path exists and hashes to d. A zero digest
// matches any existing file.
func (d Digest) Matches(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return false
	}
	if d.IsZero() {
		return true
	}
	got, err := HashFile(path, d.algo())
	return err == nil && got == d.Hex
}
