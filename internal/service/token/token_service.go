package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/repo"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour

	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

type TokenService struct {
	DB            *gorm.DB
	Users         *repo.UserRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// CheckCookie validates the access cookie and, when it has expired, rotates
// the refresh token. Returns the (possibly new) access token, a new refresh
// token when rotation happened, and the caller's role.
func (t *TokenService) CheckCookie(c echo.Context) (string, string, string, error) {
	if asCookie, err := c.Cookie(AccessCookie); err == nil {
		token, err := jwt.Parse(asCookie.Value, func(j *jwt.Token) (interface{}, error) {
			return t.JWTSecret, nil
		})
		if err == nil && token.Valid {
			claims := token.Claims.(jwt.MapClaims)
			role, ok := claims["role"].(string)
			if !ok {
				return "", "", "", echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			setUserContext(c, claims)
			return asCookie.Value, "", role, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
	}

	rfCookie, err := c.Cookie(RefreshCookie)
	if err != nil {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}

	newAccess, newRefresh, claims, err := t.RotateToken(c, rfCookie.Value)
	if err != nil {
		return "", "", "", err
	}

	role, ok := claims["role"].(string)
	if !ok {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return newAccess, newRefresh, role, nil
}

func (t *TokenService) RotateToken(c echo.Context, rawToken string) (string, string, jwt.MapClaims, error) {
	claims, err := t.ValidateRefresh(c, rawToken)
	if err != nil {
		return "", "", nil, err
	}

	userID := uint(claims["sub"].(float64))
	role, _ := claims["role"].(string)

	newAccess, err := SignAccessToken(userID, role, t.JWTSecret)
	if err != nil {
		return "", "", nil, err
	}
	newRefresh, err := SignRefreshToken(userID, role, t.RefreshSecret)
	if err != nil {
		return "", "", nil, err
	}
	if err := t.StoreRefreshToken(c, newRefresh, userID, role); err != nil {
		return "", "", nil, err
	}
	// the spent token must not be accepted a second time
	if err := t.Users.RevokeRefreshToken(c.Request().Context(), rawToken); err != nil {
		return "", "", nil, err
	}
	return newAccess, newRefresh, claims, nil
}

func (t *TokenService) AutoRefreshMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, _, err := t.CheckCookie(c)
		if err != nil {
			return err
		}
		if newRefresh == "" {
			return next(c)
		}
		t.setRotatedCookies(c, newAccess, newRefresh)
		return next(c)
	}
}

func (t *TokenService) AutoRefreshMiddlewareAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		newAccess, newRefresh, role, err := t.CheckCookie(c)
		if err != nil {
			return err
		}
		if role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		if newRefresh != "" {
			t.setRotatedCookies(c, newAccess, newRefresh)
		}
		return next(c)
	}
}

func (t *TokenService) setRotatedCookies(c echo.Context, access, refresh string) {
	c.SetCookie(CreateCookie(AccessCookie, access, "/", time.Now().Add(AccessTTL)))
	c.SetCookie(CreateCookie(RefreshCookie, refresh, "/", time.Now().Add(RefreshTTL)))

	if token, err := jwt.Parse(access, func(j *jwt.Token) (interface{}, error) { return t.JWTSecret, nil }); err == nil {
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			setUserContext(c, claims)
		}
	}
}

func setUserContext(c echo.Context, claims jwt.MapClaims) {
	if sub, ok := claims["sub"].(float64); ok {
		c.Set("userID", uint(sub))
	}
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
}
