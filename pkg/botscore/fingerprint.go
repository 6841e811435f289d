package botscore

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/vajra-security/shield/pkg/defaults"
	"github.com/vajra-security/shield/pkg/traffic"
)

// fingerprintHeaders are the only headers that feed the fingerprint, in
// digest order. Narrow on purpose: stable across page loads from the same
// client, cheap to compute, and useless as a tracking identity.
var fingerprintHeaders = []string{
	"accept-language",
	"accept-encoding",
	"accept",
}

// Fingerprint derives a stable correlation key from the user-agent and a
// small header whitelist. It is a truncated sha256 hex digest, suitable for
// cache keys and signal deduplication, not for identifying a user.
func Fingerprint(req traffic.Request) string {
	components := make([]string, 0, 1+len(fingerprintHeaders))
	if req.UserAgent != "" {
		components = append(components, req.UserAgent)
	}
	for _, name := range fingerprintHeaders {
		if v := req.Header(name); v != "" {
			components = append(components, v)
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(components, "|")))
	return hex.EncodeToString(sum[:])[:defaults.FingerprintLen]
}
