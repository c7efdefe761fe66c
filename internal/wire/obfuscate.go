package wire

// Obfuscate applies the reversible byte transform used to keep embedded
// resources out of casual inspection: a forward XOR chain, a reversal, and a
// second forward XOR chain. It is not cryptography and must never be treated
// as such.
func Obfuscate(data []byte) []byte {
	out := append([]byte(nil), data...)
	xorChain(out)
	reverseBytes(out)
	xorChain(out)
	return out
}

// Deobfuscate exactly undoes Obfuscate.
func Deobfuscate(data []byte) []byte {
	out := append([]byte(nil), data...)
	unxorChain(out)
	reverseBytes(out)
	unxorChain(out)
	return out
}

func xorChain(b []byte) {
	for i := 1; i < len(b); i++ {
		b[i] ^= b[i-1]
	}
}

func unxorChain(b []byte) {
	for i := len(b) - 1; i >= 1; i-- {
		b[i] ^= b[i-1]
	}
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
