package serv

import (
	"context"
	"crypto"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-http-utils/headers"
	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
)

// Auth configures how API requests are authenticated
type Auth struct {
	// Type of authentication, none or jwt
	Type string `mapstructure:"type" jsonschema:"title=Type,enum=none,enum=jwt" validate:"omitempty,oneof=none jwt"`

	// Cookie holding the token when it is not sent in the Authorization header
	Cookie string `mapstructure:"cookie" jsonschema:"title=Cookie Name"`

	// JWT settings
	JWT JWTConfig `mapstructure:"jwt" jsonschema:"title=JWT"`
}

// JWTConfig sets the key used to verify tokens. Either secret or a public
// key file is required.
type JWTConfig struct {
	// Shared secret for HMAC signed tokens
	Secret string `mapstructure:"secret" jsonschema:"title=Secret"`

	// PEM file holding the public key for RSA or ECDSA signed tokens
	PubKeyFile string `mapstructure:"public_key_file" jsonschema:"title=Public Key File"`

	// Type of the public key
	PubKeyType string `mapstructure:"public_key_type" jsonschema:"title=Public Key Type,enum=rsa,enum=ecdsa" validate:"omitempty,oneof=rsa ecdsa"`

	// When set the token audience must match
	Audience string `mapstructure:"audience" jsonschema:"title=Audience"`

	// When set the token issuer must match
	Issuer string `mapstructure:"issuer" jsonschema:"title=Issuer"`
}

type subjectKey struct{}

// authenticator verifies the bearer token of a request
type authenticator struct {
	key    interface{}
	hmac   bool
	cookie string
	aud    string
	iss    string
}

// newAuthenticator returns nil when authentication is off
func newAuthenticator(c *Config) (*authenticator, error) {
	ac := c.Auth

	switch ac.Type {
	case "", "none":
		return nil, nil
	case "jwt":
	default:
		return nil, fmt.Errorf("unknown auth type: %s", ac.Type)
	}

	a := &authenticator{
		cookie: ac.Cookie,
		aud:    ac.JWT.Audience,
		iss:    ac.JWT.Issuer,
	}

	switch {
	case ac.JWT.Secret != "":
		a.key = []byte(ac.JWT.Secret)
		a.hmac = true

	case ac.JWT.PubKeyFile != "":
		b, err := os.ReadFile(c.AbsolutePath(ac.JWT.PubKeyFile))
		if err != nil {
			return nil, err
		}
		var key crypto.PublicKey
		if ac.JWT.PubKeyType == "ecdsa" {
			key, err = jwt.ParseECPublicKeyFromPEM(b)
		} else {
			key, err = jwt.ParseRSAPublicKeyFromPEM(b)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", ac.JWT.PubKeyFile)
		}
		a.key = key

	default:
		return nil, errors.New("jwt: a secret or a public_key_file is required")
	}

	return a, nil
}

// token takes the token from the Authorization header or the cookie
func (a *authenticator) token(r *http.Request) string {
	if v := r.Header.Get(headers.Authorization); v != "" {
		if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
			return strings.TrimSpace(v[7:])
		}
		return ""
	}
	if a.cookie != "" {
		if c, err := r.Cookie(a.cookie); err == nil {
			return c.Value
		}
	}
	return ""
}

// subject verifies the request token and returns its subject
func (a *authenticator) subject(r *http.Request) (string, error) {
	tok := a.token(r)
	if tok == "" {
		return "", errors.New("missing token")
	}

	var claims jwt.StandardClaims

	_, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if a.hmac {
				return a.key, nil
			}
		case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS, *jwt.SigningMethodECDSA:
			if !a.hmac {
				return a.key, nil
			}
		}
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	})
	if err != nil {
		return "", err
	}

	if a.aud != "" && !claims.VerifyAudience(a.aud, true) {
		return "", errors.New("token audience does not match")
	}
	if a.iss != "" && !claims.VerifyIssuer(a.iss, true) {
		return "", errors.New("token issuer does not match")
	}
	return claims.Subject, nil
}

// authHandler rejects requests without a valid token when auth is enabled
func (s1 *HttpService) authHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := s1.Load().(*service)

		if s.auth == nil {
			h.ServeHTTP(w, r)
			return
		}

		sub, err := s.auth.subject(r)
		if err != nil {
			if s.logLevel >= logLevelDebug {
				s.log.Debugf("auth failed: %s", err)
			}
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, sub)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// subjectFrom returns the token subject of an authenticated request
func subjectFrom(ctx context.Context) string {
	v, _ := ctx.Value(subjectKey{}).(string)
	return v
}
