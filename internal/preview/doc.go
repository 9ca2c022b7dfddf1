// Package preview turns arbitrary source image bytes into the canonical,
// orientation-corrected, fixed-size preview that photo identity is derived
// from. Canonicalization is a pure function of the input bytes: same bytes,
// same preview, always.
package preview
