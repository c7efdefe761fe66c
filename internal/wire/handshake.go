package wire

import (
	"bytes"
	"crypto/sha256"
)

// Version tracks the wire-protocol revision expected by peers.
const Version = 1

// Handshake opens every connection: protocol version, build identifiers and
// the opaque client secret.
type Handshake struct {
	Version      int    `cbor:"1,keyasint"`
	BuildName    string `cbor:"2,keyasint"`
	BuildVersion string `cbor:"3,keyasint,omitempty"`
	Secret       []byte `cbor:"4,keyasint"`
}

// The handshake label ships obfuscated so the literal does not show up in a
// strings dump of the binary.
var obfuscatedLabel = []byte{
	0x08, 0x3a, 0x39, 0x4c, 0x16, 0x29, 0x7d, 0x48,
	0x15, 0x3b, 0x71, 0x55, 0x10, 0x3d, 0x3f, 0x44,
	0x5e, 0x28, 0x3b, 0x5a, 0x4f, 0x32, 0x28, 0x5b,
}

// SecretFor derives the handshake secret for a build name: a one-way hash of
// the embedded label followed by the name.
func SecretFor(buildName string) []byte {
	material := append(Deobfuscate(obfuscatedLabel), []byte(buildName)...)
	sum := sha256.Sum256(material)
	return sum[:]
}

// Verify checks the protocol version and recomputes the expected secret for
// the announced build name. This guards against accidental mismatch, not
// against adversaries; constant-time comparison is deliberately not needed.
func (h Handshake) Verify() bool {
	if h.Version != Version {
		return false
	}
	return bytes.Equal(h.Secret, SecretFor(h.BuildName))
}

// NewHandshake builds a handshake for the given build identifiers.
func NewHandshake(buildName, buildVersion string) Handshake {
	return Handshake{
		Version:      Version,
		BuildName:    buildName,
		BuildVersion: buildVersion,
		Secret:       SecretFor(buildName),
	}
}
