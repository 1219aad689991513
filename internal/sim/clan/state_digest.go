package clan

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// StateDigest is a canonical hash of clan economy state, used by the
// determinism tests and the read-model index to detect divergence between
// resumed and replayed runs.
func (c *Clan) StateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, uint64(c.cfg.Seed))
	digestWriteU64(h, &tmp, c.nextClaimNum.Load())

	for _, id := range sortedKeys(c.traits) {
		ts := c.traits[id]
		digestWriteU64(h, &tmp, id)
		h.Write([]byte{byte(ts.Role), ts.Tier})
		h.Write(ts.Attributes[:])
	}
	for _, id := range sortedKeys(c.positions) {
		pos := c.positions[id]
		digestWriteU64(h, &tmp, id)
		digestWriteU64(h, &tmp, uint64(pos.CityID))
		digestWriteU64(h, &tmp, pos.StakedAtTick)
		digestWriteU64(h, &tmp, pos.AccruedUnclaimed)
	}
	for id := 1; id <= c.cfg.Cities; id++ {
		ct := c.cities[id]
		if ct == nil {
			continue
		}
		digestWriteU64(h, &tmp, uint64(id))
		digestWriteU64(h, &tmp, uint64(ct.GuardianWeight))
		for _, a := range sortedSet(ct.Traders) {
			digestWriteU64(h, &tmp, a)
		}
		for _, a := range sortedSet(ct.Guardians) {
			digestWriteU64(h, &tmp, a)
		}
	}
	for _, id := range sortedKeys(c.invested) {
		digestWriteU64(h, &tmp, id)
		digestWriteU64(h, &tmp, c.invested[id])
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}
