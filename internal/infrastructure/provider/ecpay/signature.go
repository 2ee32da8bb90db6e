package ecpay

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	domainErrors "github.com/Mattie1391/sportify-backend/internal/domain/errors"
	"github.com/Mattie1391/sportify-backend/internal/domain/provider"
)

// SignatureCodec computes ECPay CheckMacValue digests (EncryptType=1, SHA-256).
type SignatureCodec struct {
	hashKey string
	hashIV  string
}

// NewSignatureCodec creates a codec for the merchant's HashKey and HashIV.
func NewSignatureCodec(hashKey, hashIV string) *SignatureCodec {
	return &SignatureCodec{hashKey: hashKey, hashIV: hashIV}
}

var _ provider.SignatureCodec = (*SignatureCodec)(nil)

// Sign returns the upper-case hex CheckMacValue of params.
func (s *SignatureCodec) Sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == provider.SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := strings.ToLower(keys[i]), strings.ToLower(keys[j])
		if li != lj {
			return li < lj
		}
		return keys[i] < keys[j]
	})

	var b strings.Builder
	b.WriteString("HashKey=")
	b.WriteString(s.hashKey)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	b.WriteString("&HashIV=")
	b.WriteString(s.hashIV)

	sum := sha256.Sum256([]byte(strings.ToLower(dotNetURLEncode(b.String()))))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// Verify fails with ErrSignatureInvalid unless digest equals Sign(params).
func (s *SignatureCodec) Verify(params map[string]string, digest string) error {
	if digest == "" {
		return domainErrors.ErrSignatureInvalid
	}
	expected := s.Sign(params)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(digest)) != 1 {
		return domainErrors.ErrSignatureInvalid
	}
	return nil
}

// .NET HttpUtility.UrlEncode leaves !*() literal and escapes ~, unlike url.QueryEscape.
var dotNetReplacer = strings.NewReplacer(
	"~", "%7E",
	"%21", "!",
	"%2A", "*",
	"%28", "(",
	"%29", ")",
)

func dotNetURLEncode(s string) string {
	return dotNetReplacer.Replace(url.QueryEscape(s))
}
