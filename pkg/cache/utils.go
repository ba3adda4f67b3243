package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// GenerateKeyWithParams creates a cache key with multiple parameters.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key = fmt.Sprintf("%s:%v", key, param)
	}
	return key
}

// HashKey generates MD5 hash of a key.
func HashKey(key string) string {
	hasher := md5.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}

// ShortHash is the first n hex chars of HashKey. Used for code-list cache keys
// and push fingerprints.
func ShortHash(key string, n int) string {
	h := HashKey(key)
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}

// CodesHash identifies a code list independent of its order.
func CodesHash(codes []string) string {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	return ShortHash(strings.Join(sorted, ","), 16)
}
