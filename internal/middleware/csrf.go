package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/merchantdash/internal/pkg"
)

const (
	csrfCookieName = "_csrf_token"
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	csrfContextKey = "CSRFToken"
)

// CSRF protects the page routes with a signed double-submit cookie.
//
// Token format: hex(nonce) + "." + base64url(HMAC-SHA256(nonce, secret)).
//
// Safe methods get a token (reusing a valid cookie) stored under "CSRFToken"
// for the templates. Unsafe methods must echo the cookie in the "_csrf_token"
// form field or the X-CSRF-Token header; the layout sets the header on every
// htmx request. Rejected htmx requests get an error toast instead of a swap.
func CSRF(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.Response{
				Code:    http.StatusInternalServerError,
				Message: "csrf secret is required",
			})
		}
	}

	secure := gin.Mode() == gin.ReleaseMode
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			token, err := c.Cookie(csrfCookieName)
			if err != nil || !validToken(token, secret) {
				token, err = generateToken(secret)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, pkg.Response{
						Code:    http.StatusInternalServerError,
						Message: "failed to generate csrf token",
					})
					return
				}
				setCSRFCookie(c, token, secure)
			}
			c.Set(csrfContextKey, token)
			c.Next()

		default:
			cookieToken, _ := c.Cookie(csrfCookieName)
			requestToken := c.GetHeader(csrfHeaderName)
			if requestToken == "" {
				requestToken = c.PostForm(csrfFormField)
			}
			if msg := checkTokens(cookieToken, requestToken, secret); msg != "" {
				rejectCSRF(c, msg)
				return
			}
			c.Set(csrfContextKey, cookieToken)
			c.Next()
		}
	}
}

// checkTokens returns the rejection reason, or "" when the request is valid.
func checkTokens(cookieToken, requestToken, secret string) string {
	if cookieToken == "" || requestToken == "" {
		return "csrf token missing"
	}
	if !validToken(cookieToken, secret) || !validToken(requestToken, secret) {
		return "csrf token invalid"
	}
	if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(requestToken)) != 1 {
		return "csrf token invalid"
	}
	return ""
}

func rejectCSRF(c *gin.Context, msg string) {
	if pkg.IsHTMX(c) {
		pkg.SetToast(c, "Your session expired, reload the page and try again", pkg.ToastError)
		c.Header("HX-Reswap", "none")
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.AbortWithStatusJSON(http.StatusForbidden, pkg.Response{
		Code:    http.StatusForbidden,
		Message: msg,
	})
}

// GetCSRFToken returns the token stored by CSRF, or "".
func GetCSRFToken(c *gin.Context) string {
	if token, ok := c.Get(csrfContextKey); ok {
		if s, ok := token.(string); ok {
			return s
		}
	}
	return ""
}

func generateToken(secret string) (string, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	nonceHex := hex.EncodeToString(nonce)
	return nonceHex + "." + signNonce(nonceHex, secret), nil
}

func signNonce(nonce, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(nonce))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// validToken checks the token format and its HMAC signature.
func validToken(token, secret string) bool {
	nonce, sig, ok := strings.Cut(token, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sig), []byte(signNonce(nonce, secret))) == 1
}

// setCSRFCookie leaves HttpOnly off so the layout script can read the token.
func setCSRFCookie(c *gin.Context, token string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
