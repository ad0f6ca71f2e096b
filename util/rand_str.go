// Package util holds small helpers with no better home
package util

import (
	"math/rand"
	"time"
	"unsafe"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const (
	letterIdxBits = 6                    // bits needed to index the charset
	letterIdxMask = 1<<letterIdxBits - 1 // low letterIdxBits bits set
	letterIdxMax  = 63 / letterIdxBits   // letter indices per Int63 call
)

var src = rand.NewSource(time.Now().UnixNano())

// RandStr returns n random ASCII letters. Request IDs are minted on every
// request, so this uses the masked-Int63 trick instead of crypto/rand;
// the IDs only need to be distinct, not unguessable.
// See https://stackoverflow.com/questions/22892120
func RandStr(n int) string {
	b := make([]byte, n)
	for i, cache, remain := n-1, src.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = src.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(charset) {
			b[i] = charset[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return *(*string)(unsafe.Pointer(&b))
}
