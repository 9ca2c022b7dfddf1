package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// NewTestImage builds a deterministic gradient image. The same dimensions and
// seed always yield identical pixels, so hashes derived from the image are
// stable across runs.
func NewTestImage(width, height int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x*7 + int(seed)),
				G: uint8(y*13 + int(seed)*3),
				B: uint8((x+y)*5 + int(seed)*7),
				A: 255,
			})
		}
	}
	return img
}

// EncodeJPEG encodes an image as JPEG for use as import-pipeline input.
func EncodeJPEG(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// EncodePNG encodes an image as PNG for use as import-pipeline input.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WithOrientation splices a minimal EXIF APP1 segment carrying the given
// orientation tag into a JPEG, directly after the SOI marker. The segment
// holds a little-endian TIFF header and a single-entry IFD0.
func WithOrientation(t testing.TB, jpegData []byte, orientation uint16) []byte {
	t.Helper()

	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		t.Fatalf("input is not a JPEG stream")
	}

	tiff := make([]byte, 0, 26)
	tiff = append(tiff, 'I', 'I', 0x2A, 0x00)                // little-endian TIFF header
	tiff = binary.LittleEndian.AppendUint32(tiff, 8)         // IFD0 offset
	tiff = binary.LittleEndian.AppendUint16(tiff, 1)         // one entry
	tiff = binary.LittleEndian.AppendUint16(tiff, 0x0112)    // orientation tag
	tiff = binary.LittleEndian.AppendUint16(tiff, 3)         // SHORT
	tiff = binary.LittleEndian.AppendUint32(tiff, 1)         // count
	tiff = binary.LittleEndian.AppendUint16(tiff, orientation)
	tiff = append(tiff, 0x00, 0x00)                          // value padding
	tiff = binary.LittleEndian.AppendUint32(tiff, 0)         // no next IFD

	payload := append([]byte("Exif\x00\x00"), tiff...)

	var out bytes.Buffer
	out.Write(jpegData[:2])
	out.WriteByte(0xFF)
	out.WriteByte(0xE1)
	length := uint16(len(payload) + 2)
	out.WriteByte(byte(length >> 8))
	out.WriteByte(byte(length))
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes()
}
