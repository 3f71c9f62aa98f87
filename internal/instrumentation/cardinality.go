package instrumentation

import "strings"

// UnknownDomain labels metrics whose identity has no usable domain.
const UnknownDomain = "unknown"

// ExtractIdentityDomain reduces a service account email to its domain so
// identities can label metrics without one series per account.
//
// Example:
//
//	ExtractIdentityDomain("robot@project.iam.gserviceaccount.com") // "project.iam.gserviceaccount.com"
//	ExtractIdentityDomain("invalid")                               // "unknown"
//	ExtractIdentityDomain("")                                      // "unknown"
func ExtractIdentityDomain(email string) string {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return strings.ToLower(parts[1])
	}
	return UnknownDomain
}
