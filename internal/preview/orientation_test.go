package preview

import (
	"bytes"
	"image"
	"testing"

	"github.com/disintegration/imaging"

	"hotpix/internal/identity"
	"hotpix/internal/testsupport"
)

// Each EXIF orientation names the transform a camera applied before storing
// pixels. Applying the decoder-side correction to a pre-transformed image
// must recover the upright original exactly.
func TestApplyOrientationInvertsCameraTransform(t *testing.T) {
	upright := testsupport.NewTestImage(64, 48, 9)

	cases := []struct {
		orientation int
		stored      func(image.Image) *image.NRGBA
	}{
		{2, imaging.FlipH},
		{3, imaging.Rotate180},
		{4, imaging.FlipV},
		{5, imaging.Transpose},
		{6, imaging.Rotate90},
		{7, imaging.Transverse},
		{8, imaging.Rotate270},
	}

	for _, tc := range cases {
		corrected := applyOrientation(tc.stored(upright), tc.orientation)
		nrgba := imaging.Clone(corrected)
		if got, want := nrgba.Bounds(), upright.Bounds(); got != want {
			t.Errorf("orientation %d: bounds %v, want %v", tc.orientation, got, want)
			continue
		}
		if !bytes.Equal(nrgba.Pix, upright.Pix) {
			t.Errorf("orientation %d: pixels differ from upright original", tc.orientation)
		}
	}
}

// Orientation variants of one capture share a hothash when the stored pixels
// are exact rotations of each other, as with lossless in-camera rotation. The
// variants are built in-process: two independently JPEG-compressed rotations
// of the same scene decode to slightly different pixels and can never agree
// under a canonical-bytes hash.
func TestOrientationVariantsShareHothash(t *testing.T) {
	n := NewNormalizer(CanonicalSpec())
	upright := testsupport.NewTestImage(320, 240, 15)

	base, err := n.encodeCanonical(upright)
	if err != nil {
		t.Fatalf("encode upright: %v", err)
	}
	want, err := identity.Hash(base)
	if err != nil {
		t.Fatalf("hash upright: %v", err)
	}

	cases := []struct {
		orientation int
		stored      func(image.Image) *image.NRGBA
	}{
		{2, imaging.FlipH},
		{3, imaging.Rotate180},
		{4, imaging.FlipV},
		{5, imaging.Transpose},
		{6, imaging.Rotate90},
		{7, imaging.Transverse},
		{8, imaging.Rotate270},
	}
	for _, tc := range cases {
		canonical, err := n.encodeCanonical(applyOrientation(tc.stored(upright), tc.orientation))
		if err != nil {
			t.Fatalf("orientation %d: encode: %v", tc.orientation, err)
		}
		got, err := identity.Hash(canonical)
		if err != nil {
			t.Fatalf("orientation %d: hash: %v", tc.orientation, err)
		}
		if got.Hothash != want.Hothash {
			t.Errorf("orientation %d: hothash %s, want %s", tc.orientation, got.Hothash, want.Hothash)
		}
		if got.PerceptualHash != want.PerceptualHash {
			t.Errorf("orientation %d: perceptual hash %s, want %s", tc.orientation, got.PerceptualHash, want.PerceptualHash)
		}
	}
}

func TestApplyOrientationIdentity(t *testing.T) {
	img := testsupport.NewTestImage(10, 10, 0)
	for _, orientation := range []int{0, 1, 9} {
		if got := applyOrientation(img, orientation); got != image.Image(img) {
			t.Errorf("orientation %d should return the input unchanged", orientation)
		}
	}
}

func TestReadOrientation(t *testing.T) {
	plain := testsupport.EncodeJPEG(t, testsupport.NewTestImage(32, 32, 3))

	if got := readOrientation(plain); got != 1 {
		t.Fatalf("untagged JPEG: got %d, want 1", got)
	}
	if got := readOrientation([]byte("not an image")); got != 1 {
		t.Fatalf("garbage bytes: got %d, want 1", got)
	}
	for _, want := range []int{1, 3, 6, 8} {
		tagged := testsupport.WithOrientation(t, plain, uint16(want))
		if got := readOrientation(tagged); got != want {
			t.Fatalf("tagged orientation %d: got %d", want, got)
		}
	}
	// Out-of-range tag values fall back to the no-transform default.
	if got := readOrientation(testsupport.WithOrientation(t, plain, 12)); got != 1 {
		t.Fatalf("out-of-range tag: got %d, want 1", got)
	}
}
