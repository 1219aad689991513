// Package nft implements the non-fungible asset registry: identity,
// ownership, and enumeration. Trait assignment and payment are the clan
// controller's business, not the registry's.
package nft

import (
	"errors"
	"sort"
)

var (
	ErrClanAlreadySet = errors.New("clan already set")
	ErrBadQuantity    = errors.New("quantity must be positive")
	ErrUnknownAsset   = errors.New("unknown asset")
)

// Registry is an in-memory asset registry. Not safe for concurrent use; all
// access happens inside the clan loop's critical section.
type Registry struct {
	owners map[uint64]string
	clan   string
	nextID uint64
}

func New() *Registry {
	return &Registry{owners: map[uint64]string{}}
}

// SetClan wires the clan controller's authority over registry-held assets.
// One-time configuration.
func (r *Registry) SetClan(addr string) error {
	if r.clan != "" {
		return ErrClanAlreadySet
	}
	r.clan = addr
	return nil
}

func (r *Registry) Clan() string { return r.clan }

// Mint allocates quantity fresh asset ids owned by owner. Asset ids start
// at 1 and are never reused.
func (r *Registry) Mint(owner string, quantity int) ([]uint64, error) {
	if quantity <= 0 {
		return nil, ErrBadQuantity
	}
	ids := make([]uint64, 0, quantity)
	for i := 0; i < quantity; i++ {
		r.nextID++
		r.owners[r.nextID] = owner
		ids = append(ids, r.nextID)
	}
	return ids, nil
}

func (r *Registry) OwnerOf(id uint64) (string, bool) {
	owner, ok := r.owners[id]
	return owner, ok
}

func (r *Registry) Transfer(from, to string, id uint64) error {
	owner, ok := r.owners[id]
	if !ok {
		return ErrUnknownAsset
	}
	if owner != from {
		return errors.New("transfer from non-owner")
	}
	r.owners[id] = to
	return nil
}

func (r *Registry) TotalMinted() uint64 { return r.nextID }

// TokensOf enumerates an owner's assets in ascending id order.
func (r *Registry) TokensOf(owner string) []uint64 {
	var ids []uint64
	for id, o := range r.owners {
		if o == owner {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Owners returns a copy of the full ownership map.
func (r *Registry) Owners() map[uint64]string {
	out := make(map[uint64]string, len(r.owners))
	for k, v := range r.owners {
		out[k] = v
	}
	return out
}

// Restore replaces registry state from a snapshot.
func (r *Registry) Restore(owners map[uint64]string, clan string, nextID uint64) {
	r.owners = map[uint64]string{}
	for k, v := range owners {
		r.owners[k] = v
	}
	r.clan = clan
	r.nextID = nextID
}
