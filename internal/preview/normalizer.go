package preview

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the recognized raster formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"

	"hotpix/internal/services"
)

// Canonicalization contract. These values are baked into every stored
// hothash; changing any of them invalidates all previously computed
// identities.
const (
	CanonicalMaxWidth    = 1024
	CanonicalMaxHeight   = 1024
	CanonicalJPEGQuality = 85
)

// Spec fixes the canonicalization parameters a Normalizer operates with.
type Spec struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// CanonicalSpec returns the repository's canonicalization contract.
func CanonicalSpec() Spec {
	return Spec{
		MaxWidth:  CanonicalMaxWidth,
		MaxHeight: CanonicalMaxHeight,
		Quality:   CanonicalJPEGQuality,
	}
}

// Normalizer converts arbitrary raster bytes into the canonical preview:
// orientation baked in, fitted within the spec bounds (aspect preserved,
// no crop, no padding), re-encoded as metadata-free JPEG.
type Normalizer struct {
	spec Spec
}

// NewNormalizer constructs a Normalizer with the given spec.
func NewNormalizer(spec Spec) *Normalizer {
	return &Normalizer{spec: spec}
}

// Canonicalize decodes data, applies the embedded EXIF orientation, resizes,
// and re-encodes. format is the normalized extension token of the source
// file; RAW formats are rejected because RAW files ride along as companions
// and are never normalized directly. The returned Metadata describes the
// oriented original.
func (n *Normalizer) Canonicalize(data []byte, format string) ([]byte, *Metadata, error) {
	if IsRawFormat(format) {
		return nil, nil, services.Wrap(services.ErrValidation, "preview", "canonicalize",
			fmt.Sprintf("raw format %q cannot be normalized directly", format), nil)
	}
	if format != "" && !IsRasterFormat(format) {
		return nil, nil, services.Wrap(services.ErrValidation, "preview", "canonicalize",
			fmt.Sprintf("unsupported format %q", format), nil)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "preview", "decode", "undecodable image bytes", err)
	}

	orientation := readOrientation(data)
	oriented := applyOrientation(img, orientation)

	canonical, err := n.encodeCanonical(oriented)
	if err != nil {
		return nil, nil, err
	}

	meta := extractMetadata(data)
	bounds := oriented.Bounds()
	meta.Width = bounds.Dx()
	meta.Height = bounds.Dy()
	return canonical, meta, nil
}

// encodeCanonical resizes an already-oriented image and encodes it with the
// fixed quality. Re-encoding drops all metadata (EXIF, thumbnails, maker
// notes) by construction.
func (n *Normalizer) encodeCanonical(img image.Image) ([]byte, error) {
	fitted := imaging.Fit(img, n.spec.MaxWidth, n.spec.MaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(n.spec.Quality)); err != nil {
		return nil, services.Wrap(services.ErrValidation, "preview", "encode", "canonical jpeg encode", err)
	}
	return buf.Bytes(), nil
}
