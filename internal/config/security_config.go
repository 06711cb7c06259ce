// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic        SecurityLevel = iota // No authentication
	SecurityAuthenticated                      // Any active account
	SecurityStaff                              // Editor or administrator
	SecurityAdmin                              // Administrator only
)

// EndpointSecurityConfig maps "METHOD /path-template" to its required level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	"GET /health":               SecurityPublic,
	"POST /api/auth/register":   SecurityPublic,
	"POST /api/auth/login":      SecurityPublic,
	"GET /api/books":            SecurityPublic,
	"GET /api/books/categories": SecurityPublic,
	"GET /api/books/{id}":       SecurityPublic,

	// Any signed-in user
	"GET /api/auth/me":    SecurityAuthenticated,
	"GET /api/loans/my":   SecurityAuthenticated,
	"GET /api/loans/{id}": SecurityAuthenticated,

	// Catalog and circulation staff
	"POST /api/books":                 SecurityStaff,
	"PUT /api/books/{id}":             SecurityStaff,
	"POST /api/books/{id}/add-copies": SecurityStaff,
	"GET /api/loans":                  SecurityStaff,
	"GET /api/loans/overdue":          SecurityStaff,
	"GET /api/loans/stats":            SecurityStaff,
	"POST /api/loans":                 SecurityStaff,
	"PUT /api/loans/{id}/return":      SecurityStaff,

	// Administration
	"DELETE /api/books/{id}":            SecurityAdmin,
	"GET /api/users":                    SecurityAdmin,
	"GET /api/users/stats":              SecurityAdmin,
	"GET /api/users/{id}":               SecurityAdmin,
	"PUT /api/users/{id}/toggle-active": SecurityAdmin,
	"PUT /api/users/{id}/role":          SecurityAdmin,
	"DELETE /api/users/{id}":            SecurityAdmin,
	"POST /api/admin/jobs/daily":        SecurityAdmin,
}

// GetSecurityLevel returns the level for a route. Unknown routes require an administrator.
func GetSecurityLevel(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAdmin
}
