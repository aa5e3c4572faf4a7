package token

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

func SignAccessToken(userID uint, role string, accessSecret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(accessSecret)
}

func SignRefreshToken(userID uint, role string, refreshSecret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(RefreshTTL).Unix(),
		"typ":  "refresh",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(refreshSecret)
}

func (t *TokenService) ValidateRefresh(c echo.Context, rawToken string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, func(j *jwt.Token) (interface{}, error) {
		if _, ok := j.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", j.Header["alg"])
		}
		return t.RefreshSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not a refresh token")
	}

	ctx := c.Request().Context()
	stored, err := t.Users.FindRefreshToken(ctx, rawToken)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh token not found")
	}
	if stored.Revoked {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh token revoked")
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "refresh token expired")
	}
	return claims, nil
}

func (t *TokenService) StoreRefreshToken(c echo.Context, raw string, userID uint, role string) error {
	stored := models.RefreshToken{
		Token:     raw,
		UserID:    userID,
		Role:      role,
		ExpiresAt: time.Now().Add(RefreshTTL).Unix(),
		Revoked:   false,
	}
	return t.Users.SaveRefreshToken(c.Request().Context(), &stored)
}
