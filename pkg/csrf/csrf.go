// Package csrf ties form posts to the browser that loaded the form. The
// browser keeps a random binding id in a cookie and sends back a token
// that is an HMAC over that id.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

const (
	CookieName = "advbs_csrf"
	FieldName  = "csrf_token"
	HeaderName = "X-CSRF-Token"

	// MinSecretLength is the shortest accepted signing secret.
	MinSecretLength = 32
)

const randLength = 32

var (
	ErrMissingCookie = errors.New("csrf cookie missing")
	ErrMissingToken  = errors.New("csrf token missing")
	ErrInvalidToken  = errors.New("csrf token invalid")
)

type Protector struct {
	secret []byte
}

// New returns a protector signing with secret. An empty secret is replaced
// by a random one, so tokens only live as long as the process.
func New(secret []byte) *Protector {
	if len(secret) == 0 {
		secret = make([]byte, MinSecretLength)
		_, _ = rand.Read(secret)
	}
	return &Protector{secret: secret}
}

// Issue returns a token for the browser behind r and sets the binding
// cookie when the browser has none yet.
func (p *Protector) Issue(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return NewToken(c.Value, p.secret)
	}

	binding := rand.Text()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    binding,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	return NewToken(binding, p.secret)
}

// Check verifies the posts a foreign page can send without a CORS
// preflight. Other methods and JSON bodies pass untouched.
func (p *Protector) Check(r *http.Request) error {
	if r.Method != http.MethodPost || isJSON(r) {
		return nil
	}

	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return ErrMissingCookie
	}

	token := r.Header.Get(HeaderName)
	if token == "" {
		token = r.PostFormValue(FieldName)
	}
	if token == "" {
		return ErrMissingToken
	}

	if !Validate(token, c.Value, p.secret) {
		return ErrInvalidToken
	}

	return nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func formMessage(binding, randValue string) []byte {
	return fmt.Appendf(nil, "%d!%s!%d!%s", len(binding), binding, len(randValue), randValue)
}

// NewToken signs a fresh random value together with binding.
func NewToken(binding string, secret []byte) string {
	buf := make([]byte, randLength)
	_, _ = rand.Read(buf)
	randValue := hex.EncodeToString(buf)

	mac := hmac.New(sha256.New, secret)
	mac.Write(formMessage(binding, randValue))

	return hex.EncodeToString(mac.Sum(nil)) + "." + hex.EncodeToString([]byte(randValue))
}

func Validate(token, binding string, secret []byte) bool {
	sum, value, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}

	received, err := hex.DecodeString(sum)
	if err != nil {
		return false
	}

	randValue, err := hex.DecodeString(value)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(formMessage(binding, string(randValue)))

	return hmac.Equal(received, mac.Sum(nil))
}
