// Package hash computes content hashes of parsed Kkipple programs.
package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/kkipple/compiler"
)

// HashProgram computes the SHA-256 content hash of a parsed program.
//
// The hash is computed over a deterministic serialization of the operation
// tree. Two sources that parse to the same operations (differing only in
// layout, comments, alias spelling or literal notation) hash the same.
func HashProgram(ops []compiler.Op) [32]byte {
	return sha256.Sum256(Serialize(ops))
}

// HashSource parses src and returns the hex-encoded hash of its program.
func HashSource(src string) (string, error) {
	ops, err := compiler.Parse(src)
	if err != nil {
		return "", err
	}
	sum := HashProgram(ops)
	return hex.EncodeToString(sum[:]), nil
}
