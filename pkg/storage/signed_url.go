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

// Signer issues and validates HMAC-signed download tokens for export files.
// Token layout: jobID.expiryUnix.base64(relPath).hexSignature
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a signer with the provided secret and TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Sign returns a token granting download access to the job's file until the
// TTL elapses.
func (s *Signer) Sign(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("jobID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	signature := s.signature(jobID, strconv.FormatInt(expiresAt.Unix(), 10), encodedPath)
	token := strings.Join([]string{
		jobID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		encodedPath,
		signature,
	}, ".")
	return token, expiresAt, nil
}

// Verify validates a token and returns the embedded job id and file path.
func (s *Signer) Verify(token string) (jobID, relPath string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("invalid token format")
	}
	jobID, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.signature(jobID, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", "", fmt.Errorf("invalid token signature")
	}

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid timestamp")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("token expired")
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", fmt.Errorf("decode path: %w", err)
	}
	return jobID, string(rawPath), nil
}

func (s *Signer) signature(jobID, ts, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", jobID, ts, encodedPath)
	return hex.EncodeToString(mac.Sum(nil))
}
