package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neuroguard/neuroguard-api/internal/domain"
	"github.com/neuroguard/neuroguard-api/internal/service"
	"github.com/neuroguard/neuroguard-api/internal/util"
)

type AuthHandler struct {
	auth          *service.AuthService
	secureCookies bool
}

func NewAuthHandler(auth *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookies: secureCookies}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	g := e.Group("/api/users")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)
	g.POST("/forgotPassword", h.forgotPassword)
	g.POST("/verifyResetCode", h.verifyResetCode)
	g.PUT("/resetPassword", h.resetPassword)
}

// registerRequest carries the registration payload. dateOfBirth accepts
// either 2006-01-02 or RFC 3339.
type registerRequest struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DateOfBirth string  `json:"dateOfBirth"`
	Gender      string  `json:"gender"`
	Phone       string  `json:"phone"`
	Country     *string `json:"country,omitempty"`
	Address     *string `json:"address,omitempty"`
	Role        string  `json:"role"`
}

type loginRequest struct {
	EmailOrPhone string `json:"emailOrPhone"`
	Password     string `json:"password"`
}

type forgotPasswordRequest struct {
	EmailOrPhone string `json:"emailOrPhone"`
}

type verifyResetCodeRequest struct {
	ResetCode string `json:"resetCode"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidation("Invalid request body")
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return domain.NewValidation("Date of birth must be a valid date")
	}

	user, session, err := h.auth.Register(c.Request().Context(), service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: dob,
		Gender:      req.Gender,
		Phone:       req.Phone,
		Country:     req.Country,
		Address:     req.Address,
		Role:        req.Role,
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session)
	return c.JSON(http.StatusCreated, util.Success(echo.Map{"user": user}))
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidation("Invalid request body")
	}

	session, err := h.auth.Login(c.Request().Context(), req.EmailOrPhone, req.Password)
	if err != nil {
		return err
	}

	// The token travels only in the cookie; the body stays empty.
	h.setSessionCookie(c, session)
	return c.JSON(http.StatusOK, util.Success(echo.Map{}))
}

func (h *AuthHandler) logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookieName); err != nil || cookie.Value == "" {
		return c.JSON(http.StatusBadRequest,
			util.Fail(http.StatusBadRequest, "No token found to log out"))
	}
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, util.SuccessMessage("Logged out successfully"))
}

func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidation("Invalid request body")
	}
	if err := h.auth.ForgotPassword(c.Request().Context(), req.EmailOrPhone); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.SuccessMessage("Password reset code sent successfully"))
}

func (h *AuthHandler) verifyResetCode(c echo.Context) error {
	var req verifyResetCodeRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidation("Invalid request body")
	}
	if err := h.auth.VerifyResetCode(c.Request().Context(), req.ResetCode); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.SuccessMessage("Reset code verified successfully"))
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidation("Invalid request body")
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, util.SuccessMessage("Password reset successfully"))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, session *service.Session) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
