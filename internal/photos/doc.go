// Package photos persists the photo registry in SQLite: one Photo row per
// distinct hothash, an append-only ledger of ImageFile records per photo,
// and ImportSession rows tracking batch import runs.
package photos
