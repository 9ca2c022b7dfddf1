package identity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	_ "image/jpeg"

	"github.com/corona10/goimagehash"

	"hotpix/internal/services"
)

// Identity is the pair of fingerprints derived from a canonical preview.
type Identity struct {
	// Hothash is the hex SHA-256 digest of the canonical preview bytes and
	// the primary key of visual identity.
	Hothash string
	// PerceptualHash is a 64-bit difference hash of the decoded canonical
	// image, serialized in goimagehash string form (e.g. "d:c3c3...").
	// Matching against it is a consumer concern.
	PerceptualHash string
}

// Hash derives both fingerprints from canonical preview bytes. Identical
// input always yields identical output; there is no salting and no
// timestamp involvement.
func Hash(canonical []byte) (Identity, error) {
	digest := sha256.Sum256(canonical)

	img, _, err := image.Decode(bytes.NewReader(canonical))
	if err != nil {
		// The canonical preview is produced by this repository's encoder, so
		// an undecodable input means the caller skipped normalization.
		return Identity{}, services.Wrap(services.ErrValidation, "identity", "decode",
			"input is not a canonical preview", err)
	}

	perceptual, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return Identity{}, services.Wrap(services.ErrValidation, "identity", "perceptual-hash", "", err)
	}

	return Identity{
		Hothash:        hex.EncodeToString(digest[:]),
		PerceptualHash: perceptual.ToString(),
	}, nil
}
