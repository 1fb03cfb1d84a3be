package pipeline

import (
	"hash/fnv"
	"math"
	"sync"
)

const (
	// bloomFalsePositiveRate es la probabilidad objetivo de descartar un
	// hecho nuevo por creerlo repetido.
	bloomFalsePositiveRate = 0.01

	// bloomEstimatedFacts es el número esperado de hechos distintos en una
	// ejecución.
	bloomEstimatedFacts = 200000
)

// BloomDedupe deduplica con memoria acotada usando un filtro de Bloom. Un
// falso positivo descarta un hecho que nunca se escribió, así que solo
// compensa con capturas muy grandes.
type BloomDedupe struct {
	mu        sync.Mutex
	bits      []uint64
	size      uint64
	numHashes int
}

// NewBloomDedupe crea un BloomDedupe dimensionado para una ejecución típica.
func NewBloomDedupe() *BloomDedupe {
	return NewBloomDedupeWithParams(bloomEstimatedFacts, bloomFalsePositiveRate)
}

// NewBloomDedupeWithParams crea un BloomDedupe para expectedFacts hechos
// distintos con la tasa de falsos positivos indicada. Los valores fuera de
// rango se sustituyen por los de NewBloomDedupe.
func NewBloomDedupeWithParams(expectedFacts int, falsePositiveRate float64) *BloomDedupe {
	if expectedFacts <= 0 {
		expectedFacts = bloomEstimatedFacts
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = bloomFalsePositiveRate
	}

	// m = -(n * ln(p)) / (ln(2)^2), k = (m/n) * ln(2)
	m := math.Ceil(-float64(expectedFacts) * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2))
	k := int(math.Ceil(m / float64(expectedFacts) * math.Ln2))
	if k < 1 {
		k = 1
	}

	size := uint64(m)
	return &BloomDedupe{
		bits:      make([]uint64, (size+63)/64),
		size:      size,
		numHashes: k,
	}
}

// Seen marca key en space y devuelve true si probablemente ya estaba.
// La comprobación y la marca ocurren bajo el mismo lock.
func (bd *BloomDedupe) Seen(space, key string) bool {
	if bd == nil || bd.size == 0 || space == "" || key == "" {
		return false
	}
	h1, h2 := bloomHashes(space + "\x00" + key)

	bd.mu.Lock()
	defer bd.mu.Unlock()

	present := true
	for i := 0; i < bd.numHashes; i++ {
		// Doble hash: h(i) = h1 + i*h2
		pos := (h1 + uint64(i)*h2) % bd.size
		word, bit := pos/64, pos%64
		if bd.bits[word]&(1<<bit) == 0 {
			present = false
			bd.bits[word] |= 1 << bit
		}
	}
	return present
}

// bloomHashes devuelve dos hashes FNV-1a independientes de item.
func bloomHashes(item string) (uint64, uint64) {
	h := fnv.New64a()
	h.Write([]byte(item))
	h1 := h.Sum64()

	h.Reset()
	h.Write([]byte(item + "\x00"))
	return h1, h.Sum64()
}
