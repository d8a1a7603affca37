// Package middleware implements gin middleware shared across the ingress
// layer, grounded on the teacher's handler/middleware/auth.go Bearer-token
// pattern (constant-time comparison, path whitelist) generalized from a
// single shared gateway token to a per-token Principal lookup (§1
// Non-goals: authentication itself is out of scope, but the core still
// receives and trusts an authenticated Principal{ID, Role}).
package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/brightpath-edu/iepforge/internal/domain/principal"
)

// contextKey is the gin.Context key the authenticated Principal is stored
// under by BearerAuth and read back by handlers via FromContext.
const contextKey = "iepforge.principal"

// principalRecord is one entry of the TokenFile (§6: auth.token-file).
type principalRecord struct {
	Token string          `yaml:"token"`
	ID    string          `yaml:"id"`
	Role  principal.Role  `yaml:"role"`
}

// PrincipalTable maps a bearer token to the Principal it authenticates as.
type PrincipalTable struct {
	byToken map[string]principal.Principal
}

// LoadPrincipalTable parses the YAML token file named by auth.token-file
// (§6), grounded on the teacher's AuthConfig but replacing a single shared
// token with a per-principal table since this system recognizes three
// distinct roles rather than one gateway-wide secret.
func LoadPrincipalTable(data []byte) (*PrincipalTable, error) {
	var records []principalRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	table := &PrincipalTable{byToken: make(map[string]principal.Principal, len(records))}
	for _, r := range records {
		if !r.Role.Valid() {
			continue
		}
		table.byToken[r.Token] = principal.Principal{ID: r.ID, Role: r.Role}
	}
	return table, nil
}

// Lookup resolves a bearer token to its Principal.
func (t *PrincipalTable) Lookup(token string) (principal.Principal, bool) {
	p, ok := t.byToken[token]
	return p, ok
}

// BearerAuth returns a gin middleware that resolves the Authorization
// header's bearer token to a Principal via table and stashes it on the
// request context, 401ing on a missing/unrecognized token (§1, §6).
func BearerAuth(table *PrincipalTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/healthz" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if authHeader == "" || !strings.HasPrefix(authHeader, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing or malformed Authorization header"},
			})
			return
		}
		provided := authHeader[len(prefix):]

		p, matched := lookupConstantTime(table, provided)
		if !matched {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "token not recognized"},
			})
			return
		}

		c.Set(contextKey, p)
		c.Next()
	}
}

// lookupConstantTime scans every known token with a constant-time compare
// (the teacher's subtle.ConstantTimeCompare idiom) so token recognition
// doesn't leak timing information about which prefix matched.
func lookupConstantTime(table *PrincipalTable, provided string) (principal.Principal, bool) {
	for token, p := range table.byToken {
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1 {
			return p, true
		}
	}
	return principal.Principal{}, false
}

// FromContext reads back the Principal BearerAuth attached to c. Callers
// in the handler layer use this after auth has already run.
func FromContext(c *gin.Context) principal.Principal {
	v, ok := c.Get(contextKey)
	if !ok {
		return principal.Principal{}
	}
	p, _ := v.(principal.Principal)
	return p
}

// ResolveTokenFilePath lets the token file path be overridden by env var in
// deployments that inject secrets rather than mounting a file, mirroring
// the teacher's AuthConfig.ResolveToken env-var fallback.
func ResolveTokenFilePath(configured string) string {
	if env := os.Getenv("IEPFORGE_AUTH_TOKEN_FILE"); env != "" {
		return env
	}
	return configured
}
