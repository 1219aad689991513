package clan

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// DrawSource yields a uniform pseudo-random integer from caller-supplied
// material. Implementations must be stable for identical material within a
// process, so trait draws replay identically; risk draws mix in tick and a
// claim nonce so callers cannot re-roll the same outcome.
type DrawSource interface {
	Draw(material ...uint64) uint64
}

type hashSource struct {
	secret uint64
}

// NewSeededSource is the deterministic source used for simulation, replay
// and tests.
func NewSeededSource(seed int64) DrawSource {
	return hashSource{secret: uint64(seed)}
}

// NewSecretSource seeds the source from the OS entropy pool at startup.
// The secret never leaves the process, so risky-claim outcomes are
// unpredictable to callers at submission time.
func NewSecretSource() (DrawSource, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}
	return hashSource{secret: binary.LittleEndian.Uint64(b[:])}, nil
}

func (s hashSource) Draw(material ...uint64) uint64 {
	v := s.secret
	for _, m := range material {
		v = mix64(v ^ (m * 0x9e3779b97f4a7c15))
	}
	return mix64(v)
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Draw-material salts keep independent draw streams from colliding.
const (
	saltRole = 0x01
	saltAttr = 0x02
	saltRisk = 0x03
)

func scalePermille(base uint64, permille int) uint64 {
	if permille <= 0 {
		return 0
	}
	return (base*uint64(permille) + 500) / 1000
}
