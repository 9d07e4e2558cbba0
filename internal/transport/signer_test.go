package transport

import (
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner_Sign(t *testing.T) {
	t.Run("sha256", func(t *testing.T) {
		signer := NewSigner("test-secret", sha256.New)
		assert.Equal(t,
			"935ec5619473f0af58d3900ab5396b475f15fc967dddbfa6450898046752dca9",
			signer.Sign("symbol=BTCUSDT&timestamp=1499827319559"))
	})

	t.Run("sha512", func(t *testing.T) {
		signer := NewSigner("test-secret", sha512.New)
		assert.Equal(t,
			"7025e0da8b0fe571ecea0248f97a40b952636a8af2f035f8f82c673c5218171c"+
				"b4d0d01ab5a9501c1fea7216be295f4bad16988e2d5d73a03275261df821f10f",
			signer.Sign("nonce=1699999999"))
	})

	t.Run("signatures differ per payload", func(t *testing.T) {
		signer := NewSigner("test-secret", sha256.New)
		assert.NotEqual(t, signer.Sign("a"), signer.Sign("b"))
	})
}
