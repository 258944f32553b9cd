package primitives

import (
	"crypto/rand"
	"runtime"
)

// wipePatterns are applied in order before the random and zero passes.
var wipePatterns = [...]byte{0xFF, 0x00, 0xAA}

// SecureWipe overwrites buf in place: three fixed-pattern passes, one random
// pass, then zeros. runtime.KeepAlive pins the buffer after each pass so the
// stores are not elided as dead. Best effort only: copies in swap,
// memory-mapped storage or hibernation images are out of reach.
func SecureWipe(buf []byte) {
	if len(buf) == 0 {
		return
	}
	for _, pattern := range wipePatterns {
		for i := range buf {
			buf[i] = pattern
		}
		runtime.KeepAlive(buf)
	}
	// Random pass; if the CSPRNG fails the zero pass below still runs.
	if _, err := rand.Read(buf); err == nil {
		runtime.KeepAlive(buf)
	}
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}
