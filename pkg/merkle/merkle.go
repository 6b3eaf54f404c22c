// Package merkle builds keccak256 Merkle trees over (address, cumulative amount)
// claims. Internal nodes hash their children in sorted order, which is what the
// on-chain distributor (OpenZeppelin MerkleProof) expects.
package merkle

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrEmptyTree      = errors.New("merkle tree requires at least one entry")
	ErrLeafNotFound   = errors.New("address is not part of the tree")
	ErrDuplicateEntry = errors.New("duplicate address in entries")
	ErrInvalidAmount  = errors.New("amount must be a non-negative uint256")
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

type Entry struct {
	Address common.Address
	Amount  *big.Int
}

type Tree struct {
	levels [][]common.Hash
	index  map[common.Address]int
}

// Leaf is keccak256(abi.encodePacked(address, uint256)).
func Leaf(address common.Address, amount *big.Int) common.Hash {
	return crypto.Keccak256Hash(address.Bytes(), math.U256Bytes(new(big.Int).Set(amount)))
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a.Bytes(), b.Bytes())
}

func New(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyTree
	}

	type keyed struct {
		address common.Address
		leaf    common.Hash
	}

	seen := make(map[common.Address]struct{}, len(entries))
	leaves := make([]keyed, 0, len(entries))
	for _, e := range entries {
		if e.Amount == nil || e.Amount.Sign() < 0 || e.Amount.Cmp(maxUint256) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, e.Address.Hex())
		}
		if _, ok := seen[e.Address]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Address.Hex())
		}
		seen[e.Address] = struct{}{}
		leaves = append(leaves, keyed{address: e.Address, leaf: Leaf(e.Address, e.Amount)})
	}

	sort.Slice(leaves, func(i, j int) bool {
		return bytes.Compare(leaves[i].leaf.Bytes(), leaves[j].leaf.Bytes()) < 0
	})

	t := &Tree{index: make(map[common.Address]int, len(leaves))}
	level := make([]common.Hash, len(leaves))
	for i, l := range leaves {
		level[i] = l.leaf
		t.index[l.address] = i
	}
	t.levels = append(t.levels, level)

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// odd node is carried up unchanged
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}

	return t, nil
}

func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Proof returns the sibling path from the address's leaf up to the root.
func (t *Tree) Proof(address common.Address) ([]common.Hash, error) {
	idx, ok := t.index[address]
	if !ok {
		return nil, ErrLeafNotFound
	}

	proof := make([]common.Hash, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := idx ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		idx /= 2
	}

	return proof, nil
}

func Verify(root, leaf common.Hash, proof []common.Hash) bool {
	computed := leaf
	for _, p := range proof {
		computed = hashPair(computed, p)
	}
	return computed == root
}
