package redisstack

import (
	"strings"

	"github.com/zeebo/xxh3"
)

// ServerSelector picks the server of a key among Config.Addrs (or
// Config.ReplicaAddrs). It returns an index in [0, serverCount).
type ServerSelector func(key string, serverCount int) int

// DefaultServerSelector hashes the key's hash tag with xxh3 and maps it with
// jump consistent hashing: adding a server moves about 1/n of the keys.
//
// Keys sharing a hash tag ("{user:1}:profile", "{user:1}:sessions") land on
// the same server, so they can be used together in a Multi.
func DefaultServerSelector(key string, serverCount int) int {
	return jumpHash(xxh3.HashString(hashTag(key)), serverCount)
}

// hashTag returns the part of key between the first '{' and the next '}',
// or the whole key when there is no such non-empty part.
func hashTag(key string) string {
	open := strings.IndexByte(key, '{')
	if open < 0 {
		return key
	}
	end := strings.IndexByte(key[open+1:], '}')
	if end <= 0 {
		return key
	}
	return key[open+1 : open+1+end]
}

// jumpHash is Lamping and Veach's jump consistent hash
// (https://arxiv.org/abs/1406.2294).
func jumpHash(key uint64, buckets int) int {
	if buckets <= 0 {
		return 0
	}

	b, j := int64(-1), int64(0)
	for j < int64(buckets) {
		b = j
		key = key*2862933555777941757 + 1
		j = int64(float64(b+1) * (float64(int64(1)<<31) / float64((key>>33)+1)))
	}
	return int(b)
}

func staticSelector(index int) ServerSelector {
	return func(key string, serverCount int) int {
		return index % serverCount
	}
}
