// Package zeroize overwrites secret-bearing buffers.
package zeroize

import "runtime"

// Bytes overwrites buf with zeros. runtime.KeepAlive keeps the compiler from
// eliding the stores (golang/go#33325). Copies made by the garbage collector
// or by cipher implementations are out of reach.
func Bytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

// All wipes every buffer in bufs.
func All(bufs ...[]byte) {
	for _, b := range bufs {
		Bytes(b)
	}
}
