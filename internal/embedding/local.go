package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder is a deterministic bag-of-words embedder that hashes
// lowercase word tokens into a fixed number of buckets. It needs no network
// and gives texts sharing vocabulary a positive similarity.
type LocalEmbedder struct {
	dims int
}

// NewLocalEmbedder returns a local embedder; dims <= 0 means 256.
func NewLocalEmbedder(dims int) *LocalEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &LocalEmbedder{dims: dims}
}

func (e *LocalEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	v := make(Vector, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		h.Write([]byte(w))
		sum := h.Sum32()
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		v[int(sum>>1)%e.dims] += sign
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v, nil
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v, nil
}

func (e *LocalEmbedder) Dims() int { return e.dims }
