// Package device derives a stable client fingerprint from the User-Agent
// header. The fingerprint travels with unauthenticated contact-sync evidence
// so abuse review can group contributions by originating device family.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. Disabled instances return empty
// fingerprints so callers need no conditional wiring.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ComputeFingerprint hashes the stable parts of the user agent: browser name,
// major version, OS and mobile class. Minor and patch version bumps do not
// change the fingerprint; a major version bump does.
func (s *Service) ComputeFingerprint(rawUA string) string {
	if !s.enabled || rawUA == "" {
		return ""
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	major, _, _ := strings.Cut(version, ".")

	basis := strings.Join([]string{name, major, ua.OS(), mobileClass(ua)}, "|")
	sum := sha256.Sum256([]byte(basis))
	return hex.EncodeToString(sum[:])
}

// ParseUserAgent formats a human-readable device name for audit output.
func ParseUserAgent(rawUA string) string {
	if rawUA == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUA)
	name, _ := ua.Browser()
	if name == "" {
		name = "Unknown Browser"
	}
	os := ua.OS()
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(name + " on " + os)
}

func mobileClass(ua *useragent.UserAgent) string {
	if ua.Mobile() {
		return "mobile"
	}
	return "desktop"
}
