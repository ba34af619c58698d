// Package merkle implements the note-commitment tree hashing, empty-
// subtree table, and path representation of spec.md §3/§6. Grounded on
// the teacher's internal/zkp/merkle.go CommitmentTree/TreeStore/
// MerklePath, generalized per spec.md §9's design note from an
// owning/mutating tree into a pure oracle-backed path fetcher, and from
// SHA-256 pair-hashing to the primitives package's domain-separated hash.
package merkle

import (
	"context"
	"errors"

	"github.com/ccoin/core/internal/primitives"
	"github.com/ccoin/core/pkg/types"
)

// Depth is the fixed depth of the note-commitment tree (spec.md §3, §6).
const Depth = 32

// ErrInvalidPosition names a leaf position beyond the oracle's advertised
// leaf count. FetchPath does not check positions against a leaf count and
// does not return it.
var ErrInvalidPosition = errors.New("merkle: invalid leaf position")

// TreeOracle is the read-only key-value view the storage layer exposes:
// a flat array indexed by position, where each tree of depth Depth
// occupies 2^(Depth+1)-1 positions and leaves live at
// [2^Depth-1, 2^(Depth+1)-2] (spec.md §6). It is an external collaborator
// per spec.md §1, not owned by this package.
type TreeOracle interface {
	// GetHash retrieves the node hash at a flat array index, or false if
	// absent (callers substitute the empty-subtree constant for the
	// depth).
	GetHash(ctx context.Context, arrayIndex uint64) (types.Hash, bool, error)
	// GetIndexByHash is the reverse lookup used to locate a newly
	// committed note.
	GetIndexByHash(ctx context.Context, hash types.Hash) (uint64, bool, error)
}

// EmptyRoots is the precomputed table of empty-subtree constants for
// levels 0..=Depth, cached globally per spec.md §6.
var EmptyRoots [Depth + 1]types.Hash

func init() {
	EmptyRoots[0] = types.EmptyHash
	for level := 1; level <= Depth; level++ {
		EmptyRoots[level] = hashPair(EmptyRoots[level-1], EmptyRoots[level-1])
	}
}

func hashPair(left, right types.Hash) types.Hash {
	return primitives.DomainHashFields("OrchardZ-MerkleNode", [32]byte(left), [32]byte(right))
}

// levelStart returns the flat array index of the first node at tree
// level (0 = leaves, Depth = root), per the complete-binary-tree array
// layout of spec.md §6: level k occupies a contiguous block of size
// 2^(Depth-k) starting at 2^(Depth-k)-1.
func levelStart(level int) uint64 {
	return (uint64(1) << (Depth - level)) - 1
}

// leafArrayIndex returns the flat array index of a leaf at the given
// position.
func leafArrayIndex(position uint64) uint64 {
	return levelStart(0) + position
}

// MerklePath is a path from a leaf to the root: the leaf's position and
// the 32 sibling hashes along the way.
type MerklePath struct {
	Position uint64
	Siblings [Depth]types.Hash
}

// Dummy returns a MerklePath filled with empty-subtree siblings, used to
// pad a bundle witness where no real Merkle proof is required
// (spec.md §4.6).
func Dummy() MerklePath {
	var p MerklePath
	for level := 0; level < Depth; level++ {
		p.Siblings[level] = EmptyRoots[level]
	}
	return p
}

// Root re-hashes the path up to the anchor the spender committed to
// (spec.md §3 invariant: path.root(note.commitment()) = anchor).
func (p MerklePath) Root(leaf types.Hash) types.Hash {
	current := leaf
	index := p.Position
	for level := 0; level < Depth; level++ {
		if index%2 == 0 {
			current = hashPair(current, p.Siblings[level])
		} else {
			current = hashPair(p.Siblings[level], current)
		}
		index /= 2
	}
	return current
}

// FetchPath queries the oracle for the Merkle path of the leaf at
// position, substituting empty-subtree constants for absent siblings.
func FetchPath(ctx context.Context, oracle TreeOracle, position uint64) (MerklePath, error) {
	path := MerklePath{Position: position}
	localIndex := position

	for level := 0; level < Depth; level++ {
		siblingLocal := localIndex ^ 1
		siblingGlobal := levelStart(level) + siblingLocal

		hash, ok, err := oracle.GetHash(ctx, siblingGlobal)
		if err != nil {
			return MerklePath{}, err
		}
		if !ok {
			hash = EmptyRoots[level]
		}
		path.Siblings[level] = hash
		localIndex /= 2
	}
	return path, nil
}
