package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// Hash returns the hex BLAKE3-256 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON fingerprints v by its JSON encoding, so equal counts or layouts
// share a cache key regardless of where they came from. Unencodable values
// fall back to their Go syntax representation.
func HashJSON(v any) string {
	h := blake3.New()
	writeJSON(h, v)
	return hex.EncodeToString(h.Sum(nil))
}

// hashKey builds "<kind>:<digest>" over the ordered key parts.
func hashKey(kind string, parts ...any) string {
	return kind + ":" + HashJSON(parts)
}

func writeJSON(h hash.Hash, v any) {
	if err := json.NewEncoder(h).Encode(v); err != nil {
		h.Reset()
		fmt.Fprintf(h, "%#v", v)
	}
}
