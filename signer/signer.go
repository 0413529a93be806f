// Package signer builds canonical query strings and AWS Signature Version 2
// signatures for MWS/PA requests.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/smithy-go/encoding/httpbinding"

	"github.com/garrettmk/broccoli/schemas"
)

const timestampFormat = "2006-01-02T15:04:05Z"

// unreserved characters that must not be percent-encoded, per spec.md §4.1.
const unreservedExtra = "-_.~"

// Signer produces canonical, signed URLs for a single set of credentials.
type Signer struct {
	creds *schemas.Credentials
}

// New returns a Signer bound to the given credentials. Credentials are not
// validated here, and gateway.New does not validate them either;
// config.Load does, through Credentials.Validate. Signer assumes valid input.
func New(creds *schemas.Credentials) *Signer {
	return &Signer{creds: creds}
}

// hmacSHA256 computes HMAC-SHA256 over data with the given key.
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// encodeValue URL-encodes v using the unreserved set spec.md §4.1 specifies:
// letters, digits, and -_.~ pass through unescaped; everything else is
// percent-encoded.
func encodeValue(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	default:
		return strings.IndexByte(unreservedExtra, c) >= 0
	}
}

// encodeStrict URL-encodes v with an empty safe set: every byte outside
// [A-Za-z0-9] is percent-encoded, used only for the final Signature value
// (spec.md §4.1 distinguishes this from the params' unreserved-set encoding).
func encodeStrict(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// BuildParams assembles the full parameter map for one action call: the
// standard AWS/MWS envelope fields plus the caller's kwargs, with any
// "...List"/"List..." keys expanded via EnumerateList.
func (s *Signer) BuildParams(section *schemas.SectionSpec, action string, kwargs map[string]any) map[string]string {
	params := map[string]string{
		"AWSAccessKeyId":   s.creds.AccessKey,
		"SignatureMethod":  "HmacSHA256",
		"SignatureVersion": "2",
		"Timestamp":        time.Now().UTC().Format(timestampFormat),
		"Version":          section.Version,
	}
	params[section.ActionParamName] = action

	// The credential that belongs in this field is determined by which
	// field the section expects, not by which one happens to be set: a
	// gateway holding both a SellerId and an AssociateTag (MWS and PA
	// sections sharing one credential set) must sign each section with
	// its own identity.
	accountID := s.creds.SellerID
	if section.AccountParamName == "AssociateTag" {
		accountID = s.creds.AssociateTag
	}
	params[section.AccountParamName] = accountID

	if s.creds.AuthToken != "" {
		params["MWSAuthToken"] = s.creds.AuthToken
	}

	for k, v := range kwargs {
		if strings.HasPrefix(k, "List") || strings.HasSuffix(k, "List") {
			values, ok := v.([]any)
			if !ok {
				continue
			}
			for ek, ev := range EnumerateList(k, values) {
				params[ek] = ev
			}
			continue
		}
		if isTruthy(v) {
			params[k] = stringify(v)
		}
	}

	return params
}

func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case int:
		return t != 0
	default:
		return true
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// canonicalQueryString sorts params by percent-encoded key, bytewise, and
// joins "key=value" pairs with "&".
func canonicalQueryString(params map[string]string) string {
	keys := make([]string, 0, len(params))
	encoded := make(map[string]string, len(params))
	for k, v := range params {
		ek := encodeValue(k)
		keys = append(keys, ek)
		encoded[ek] = encodeValue(v)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(encoded[k])
	}
	return b.String()
}

// BuildURL computes the canonical request string, signs it, and returns the
// final URL to call: https://<host><uri>?<params>&Signature=<sig>.
func (s *Signer) BuildURL(method, host, uriPath string, params map[string]string) (string, error) {
	if method != "GET" && method != "POST" {
		return "", schemas.NewConfigurationError("unsupported HTTP method: "+method, nil)
	}

	canonicalURI := httpbinding.EscapePath(uriPath, false)
	query := canonicalQueryString(params)

	canonicalRequest := strings.Join([]string{
		method,
		strings.ToLower(host),
		canonicalURI,
		query,
	}, "\n")

	digest := hmacSHA256([]byte(s.creds.SecretKey), []byte(canonicalRequest))
	signature := base64.StdEncoding.EncodeToString(digest)
	encodedSig := encodeStrict(signature)

	return fmt.Sprintf("https://%s%s?%s&Signature=%s", host, uriPath, query, encodedSig), nil
}
