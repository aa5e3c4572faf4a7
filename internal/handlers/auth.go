package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/hash"
	"github.com/AndreyProgger/Test-task2/internal/models"
	"github.com/AndreyProgger/Test-task2/internal/mykafka"
	"github.com/AndreyProgger/Test-task2/internal/repo"
	"github.com/AndreyProgger/Test-task2/internal/service/token"
	"github.com/AndreyProgger/Test-task2/internal/transport"
)

type AuthHandler struct {
	Users         *repo.UserRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *mykafka.Producer
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, username and password are required")
	}
	if req.Password != req.PasswordConfirm {
		return echo.NewHTTPError(http.StatusBadRequest, "passwords do not match")
	}

	ctx := c.Request().Context()
	if _, err := h.Users.FindByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Patronymic:   req.Patronymic,
		PasswordHash: pwHash,
		Role:         "user",
	}
	if err := h.Users.Create(ctx, &user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	access, refresh, err := h.issueTokens(c, &user)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     mykafka.EventUserRegistered,
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "success",
		"user":    user,
		"tokens":  echo.Map{"access": access, "refresh": refresh},
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Users.FindByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	access, refresh, err := h.issueTokens(c, user)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     mykafka.EventUserLoggedIn,
		"userID":   user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"is_admin":      user.Role == "admin",
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if rfCookie, err := c.Cookie(token.RefreshCookie); err == nil {
		if err := h.Users.RevokeRefreshToken(c.Request().Context(), rfCookie.Value); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(token.CreateCookie(token.AccessCookie, "", "/", expired))
	c.SetCookie(token.CreateCookie(token.RefreshCookie, "", "/", expired))

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) issueTokens(c echo.Context, user *models.User) (string, string, error) {
	access, err := token.SignAccessToken(user.ID, user.Role, h.JWTSecret)
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}
	refresh, err := token.SignRefreshToken(user.ID, user.Role, h.RefreshSecret)
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusInternalServerError, "could not create refresh token")
	}

	stored := models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(token.RefreshTTL).Unix(),
	}
	if err := h.Users.SaveRefreshToken(c.Request().Context(), &stored); err != nil {
		return "", "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.SetCookie(token.CreateCookie(token.AccessCookie, access, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie(token.RefreshCookie, refresh, "/", time.Now().Add(token.RefreshTTL)))
	return access, refresh, nil
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicUserEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}
