package session

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// segmentParser decodes base64url token segments, restoring any padding that the
// encoder stripped
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeJWT returns the payload of a JSON Web Token without verifying its signature.
//
// The result is NOT trustworthy: anyone can forge a token that decodes to any claims
// they like. It exists only to pick which UI to render; the API that serves the data
// behind that UI is responsible for verifying the token. Malformed input (wrong
// number of segments, bad base64, a payload that isn't a JSON object) yields nil.
func DecodeJWT(token string) jwt.MapClaims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil
	}
	payload := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(parts[1], "="))
	data, err := segmentParser.DecodeSegment(payload)
	if err != nil {
		return nil
	}
	var claims jwt.MapClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil
	}
	return claims
}

// claimExtractor attempts to find a role-like value in a set of decoded claims
type claimExtractor func(claims jwt.MapClaims) (string, bool)

// roleScopePattern selects the scope entries that name a role
var roleScopePattern = regexp.MustCompile(`(?i)admin|editor|redactor|moderator|viewer`)

// roleExtractors are tried in order; the first one to produce a value wins
var roleExtractors = []claimExtractor{
	fieldExtractor("role"),
	fieldExtractor("rol"),
	fieldExtractor("user_role"),
	firstRoleExtractor,
	roleScopeExtractor,
	isAdminExtractor,
}

// extractRole runs the extractor chain against the given claims
func extractRole(claims jwt.MapClaims) (string, bool) {
	if claims == nil {
		return "", false
	}
	for _, extract := range roleExtractors {
		if value, ok := extract(claims); ok {
			return value, true
		}
	}
	return "", false
}

func fieldExtractor(name string) claimExtractor {
	return func(claims jwt.MapClaims) (string, bool) {
		return truthyString(claims[name])
	}
}

func firstRoleExtractor(claims jwt.MapClaims) (string, bool) {
	roles, ok := claims["roles"].([]any)
	if !ok || len(roles) == 0 {
		return "", false
	}
	return truthyString(roles[0])
}

func roleScopeExtractor(claims jwt.MapClaims) (string, bool) {
	scopes, ok := claims["scopes"].([]any)
	if !ok {
		return "", false
	}
	for _, scope := range scopes {
		s, ok := scope.(string)
		if ok && roleScopePattern.MatchString(s) {
			return s, true
		}
	}
	return "", false
}

func isAdminExtractor(claims jwt.MapClaims) (string, bool) {
	if _, ok := truthyString(claims["is_admin"]); ok {
		return string(RoleAdmin), true
	}
	return "", false
}

// truthyString converts a decoded JSON value to a string, reporting false for values
// that carry nothing (null, false, 0, "")
func truthyString(v any) (string, bool) {
	switch value := v.(type) {
	case nil:
		return "", false
	case string:
		return value, value != ""
	case bool:
		return strconv.FormatBool(value), value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), value != 0
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			s, _ := truthyString(item)
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true
	default:
		return fmt.Sprint(value), true
	}
}

// ClaimedRole returns the raw role a token claims for itself, before folding, if any
// of the role claims are present
func ClaimedRole(token string) (string, bool) {
	return extractRole(DecodeJWT(token))
}
