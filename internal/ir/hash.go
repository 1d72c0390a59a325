package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "curvemigrate/record/v1"
	DomainRun    = "curvemigrate/run/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash identifies a record payload. kind is part of the hash so
// identical JSON stored under two kinds never collides. payload must already
// be canonical.
func ContentHash(kind string, payload []byte) string {
	data := make([]byte, 0, len(kind)+1+len(payload))
	data = append(data, kind...)
	data = append(data, 0x00)
	data = append(data, payload...)
	return hashWithDomain(DomainRecord, data)
}

// RecordHash canonicalizes v and returns the payload with its content hash.
func RecordHash(kind string, v any) (payload []byte, hash string, err error) {
	payload, err = Canonicalize(v)
	if err != nil {
		return nil, "", fmt.Errorf("RecordHash %s: %w", kind, err)
	}
	return payload, ContentHash(kind, payload), nil
}

// RunHash identifies the outcome of a migration run: the canonical summary
// plus the ordered content hashes of everything it wrote.
func RunHash(summary any, written []string) (string, error) {
	canonical, err := Canonicalize(map[string]any{
		"summary": summary,
		"written": written,
	})
	if err != nil {
		return "", fmt.Errorf("RunHash: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustRecordHash is like RecordHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordHash(kind string, v any) string {
	_, hash, err := RecordHash(kind, v)
	if err != nil {
		panic(err)
	}
	return hash
}
