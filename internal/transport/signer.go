package transport

import (
	"crypto/hmac"
	"encoding/hex"
	"hash"
)

// Signer produces the hex HMAC signatures the private exchange endpoints
// require. The digest algorithm differs per provider (Binance signs with
// SHA-256, Exmo and Yobit with SHA-512).
type Signer struct {
	secret []byte
	digest func() hash.Hash
}

// NewSigner builds a signer for the given API secret and digest constructor.
func NewSigner(secret string, digest func() hash.Hash) *Signer {
	return &Signer{
		secret: []byte(secret),
		digest: digest,
	}
}

// Sign returns the hex-encoded HMAC of the payload.
func (s *Signer) Sign(payload string) string {
	mac := hmac.New(s.digest, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
