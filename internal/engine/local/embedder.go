package local

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// embedDim is the fixed dimensionality of local embeddings. Feature hashing
// avoids a vocabulary, so any text embeds into the same space without a
// prepare step.
const embedDim = 256

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// embed maps text to an L2-normalized bag-of-words vector via feature
// hashing. Identical texts always produce identical vectors.
func embed(text string) []float32 {
	vec := make([]float32, embedDim)
	for _, tok := range tokenize(text) {
		if _, ok := stopwords[tok]; ok {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%embedDim]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
