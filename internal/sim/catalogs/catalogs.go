// Package catalogs loads the static trait tables the clan sim draws from.
//
// Attribute tables ship as compact hex blobs of (value, weight) byte pairs;
// decoding to cumulative-weight buckets happens once here, never per draw.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AttrSlots is the fixed number of attribute slots per trait set.
const AttrSlots = 6

type Catalogs struct {
	Trader   RoleTraits
	Guardian RoleTraits
}

type RoleTraits struct {
	Slots  []SlotTable
	Digest string
}

// SlotTable is one attribute slot's decoded weighted-bucket table.
type SlotTable struct {
	Name    string
	Buckets []Bucket
	Total   uint32
}

// Bucket pairs an attribute value with its cumulative weight.
type Bucket struct {
	Value     uint8
	CumWeight uint32
}

// Pick selects the first bucket whose cumulative weight exceeds the roll.
// The table must have Total > 0 (enforced at load time).
func (t SlotTable) Pick(roll uint64) uint8 {
	target := uint32(roll % uint64(t.Total))
	for _, b := range t.Buckets {
		if b.CumWeight > target {
			return b.Value
		}
	}
	// Unreachable with a well-formed table; last bucket covers Total-1.
	return t.Buckets[len(t.Buckets)-1].Value
}

type traitsFile struct {
	Trader   roleFile `json:"trader"`
	Guardian roleFile `json:"guardian"`
}

type roleFile struct {
	Slots []slotFile `json:"slots"`
}

type slotFile struct {
	Name  string `json:"name"`
	Table string `json:"table"` // hex pairs: value byte, weight byte
}

func Load(configDir string) (*Catalogs, error) {
	raw, err := os.ReadFile(filepath.Join(configDir, "traits.json"))
	if err != nil {
		return nil, err
	}

	var f traitsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("traits.json: %w", err)
	}

	var c Catalogs
	if err := decodeRole("trader", f.Trader, &c.Trader); err != nil {
		return nil, err
	}
	if err := decodeRole("guardian", f.Guardian, &c.Guardian); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeRole(role string, in roleFile, out *RoleTraits) error {
	if len(in.Slots) != AttrSlots {
		return fmt.Errorf("traits.json: %s has %d slots, want %d", role, len(in.Slots), AttrSlots)
	}
	out.Slots = make([]SlotTable, 0, AttrSlots)
	for i, s := range in.Slots {
		tbl, err := decodeTable(s.Table)
		if err != nil {
			return fmt.Errorf("traits.json: %s slot %d (%s): %w", role, i, s.Name, err)
		}
		tbl.Name = s.Name
		out.Slots = append(out.Slots, tbl)
	}
	b, _ := json.Marshal(in)
	out.Digest = sha256Hex(b)
	return nil
}

func decodeTable(blob string) (SlotTable, error) {
	var t SlotTable
	raw, err := hex.DecodeString(blob)
	if err != nil {
		return t, fmt.Errorf("bad hex: %w", err)
	}
	if len(raw) == 0 || len(raw)%2 != 0 {
		return t, fmt.Errorf("table blob must be non-empty (value,weight) byte pairs")
	}
	var cum uint32
	for i := 0; i < len(raw); i += 2 {
		cum += uint32(raw[i+1])
		t.Buckets = append(t.Buckets, Bucket{Value: raw[i], CumWeight: cum})
	}
	t.Total = cum
	if t.Total == 0 {
		return t, fmt.Errorf("cumulative weight is zero")
	}
	return t, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
