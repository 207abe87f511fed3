// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityVerify                       // Email verification token required
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
)

// EndpointSecurityConfig maps "METHOD /route/template" to the required security level.
// Routes that are not listed require an access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health and metrics - Public
	"GET /healthz": SecurityPublic,
	"GET /metrics": SecurityPublic,

	// Auth - Public
	"POST /api/v1/auth/signup": SecurityPublic,
	"POST /api/v1/auth/login":  SecurityPublic,

	// Auth - Verification token
	"POST /api/v1/auth/verify": SecurityVerify,

	// Auth - Refresh token
	"POST /api/v1/auth/refresh": SecurityRefresh,

	// Client error reports may arrive before login
	"POST /api/v1/error-logs": SecurityPublic,
}

// GetSecurityLevel returns the security level for a route key
func GetSecurityLevel(method, pathTemplate string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAccess
}
