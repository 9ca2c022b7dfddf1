// Package identity derives the deterministic content hash (hothash) and the
// perceptual hash from canonical preview bytes.
package identity
