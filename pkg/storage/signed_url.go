package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner mints and verifies download tokens for snapshot
// artifacts. Tokens are self-contained: snapshot ID, expiry, encoded
// relative path and an HMAC over all three, dot-separated.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner builds a signer. A non-positive TTL defaults to a
// day, matching the snapshot cadence.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate signs a token for one artifact and returns it with its expiry.
func (s *SignedURLSigner) Generate(snapshotID, relPath string) (string, time.Time, error) {
	if snapshotID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("snapshot id and path are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret is not configured")
	}

	expiresAt := time.Now().Add(s.ttl)
	expiry := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))

	token := strings.Join([]string{
		snapshotID, expiry, encodedPath,
		s.sign(snapshotID, expiry, encodedPath),
	}, ".")
	return token, expiresAt, nil
}

// Parse verifies a token and returns what it references. allowExpired
// skips the expiry check for cleanup paths that only need the location.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (snapshotID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	snapshotID, expiry, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(snapshotID, expiry, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", time.Time{}, fmt.Errorf("token signature mismatch")
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode token path: %w", err)
	}
	expUnix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("malformed token expiry")
	}
	expiresAt = time.Unix(expUnix, 0)

	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return snapshotID, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(snapshotID, expiry, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", snapshotID, expiry, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
