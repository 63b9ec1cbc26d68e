package couponsim

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	randv2 "math/rand/v2"
	"sync"
)

// SourceFunc adapts an ordinary function to RandomSource
type SourceFunc func() float64

// Float64 calls f()
func (f SourceFunc) Float64() float64 { return f() }

// SeededStreams derives an independent PCG stream per trial from a base seed.
// The stream depends only on (Seed, trial), so results do not depend on how trials are
// distributed across workers.
type SeededStreams struct {
	Seed uint64
}

// Stream returns the deterministic stream for the given trial
func (s SeededStreams) Stream(trial int) RandomSource {
	return randv2.New(randv2.NewPCG(s.Seed, mix64(s.Seed^uint64(trial)*0x9e3779b97f4a7c15)))
}

// NewSeededSource returns a single deterministic stream
func NewSeededSource(seed uint64) RandomSource {
	return randv2.New(randv2.NewPCG(seed, mix64(seed)))
}

// mix64 is the splitmix64 finalizer
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// NewRandomSeed returns a seed drawn from crypto/rand
func NewRandomSeed() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return mix64(uint64(randv2.Int64()))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// SecureStreams shares one SecureRandomGenerator across all trials.
// Draws are not reproducible.
type SecureStreams struct {
	Generator *SecureRandomGenerator
}

// Stream returns the shared generator
func (s SecureStreams) Stream(int) RandomSource { return s.Generator }

// SecureRandomGenerator implements secure random number generation using crypto/rand with caching
type SecureRandomGenerator struct {
	cache      []float64
	cacheSize  int
	cacheIndex int
	cacheMtx   sync.Mutex
}

// NewSecureRandomGenerator creates a new fast secure random generator with specified cache size
//
// If no cache size is provided, the default cache size will be used.
// The cache size should be a positive integer.
func NewSecureRandomGenerator(cacheSize ...int) *SecureRandomGenerator {
	size := DefaultFastRandomGeneratorCacheSize
	if len(cacheSize) > 0 && cacheSize[0] > 0 {
		size = cacheSize[0]
	}

	generator := &SecureRandomGenerator{
		cache:     make([]float64, size),
		cacheSize: size,
	}

	// 预填充缓存
	generator.refillCache()
	return generator
}

// refillCache refills the random number cache
func (g *SecureRandomGenerator) refillCache() {
	for i := range g.cacheSize {
		val, err := generateFloat()
		if err != nil {
			// 如果生成失败，使用备用方法
			val = randv2.Float64()
		}
		g.cache[i] = val
	}

	g.cacheIndex = 0
}

// GenerateFloat generates a fast secure random float between 0 and 1 (exclusive of 1)
func (g *SecureRandomGenerator) GenerateFloat() (float64, error) {
	g.cacheMtx.Lock()
	defer g.cacheMtx.Unlock()

	// Refill cache if needed
	if g.cacheIndex >= g.cacheSize {
		g.refillCache()
	}

	result := g.cache[g.cacheIndex]
	g.cacheIndex++
	return result, nil
}

// Float64 implements RandomSource
func (g *SecureRandomGenerator) Float64() float64 {
	v, _ := g.GenerateFloat()
	return v
}

// generateFloat generates a secure random float between 0 and 1 (exclusive of 1)
func generateFloat() (float64, error) {
	randomBig, err := rand.Int(rand.Reader, big.NewInt(1<<53)) // Use 53 bits for precision
	if err != nil {
		return 0, err
	}

	return float64(randomBig.Int64()) / float64(1<<53), nil
}
