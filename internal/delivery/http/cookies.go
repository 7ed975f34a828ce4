package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

func newAuthCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func setAuthCookies(c echo.Context, accessToken, refreshToken string, accessExpiry, refreshExpiry time.Duration) {
	c.SetCookie(newAuthCookie(accessTokenCookie, accessToken, accessExpiry))
	c.SetCookie(newAuthCookie(refreshTokenCookie, refreshToken, refreshExpiry))
}

func clearAuthCookies(c echo.Context) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cookie := newAuthCookie(name, "", 0)
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
}

// extractAccessToken prefers the Authorization header, falling back to the
// access token cookie.
func extractAccessToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// extractRefreshToken reads the refresh token from its cookie or, when the
// cookie is absent, from the request body. One declared source, one name.
func extractRefreshToken(c echo.Context, bodyToken string) string {
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return bodyToken
}
