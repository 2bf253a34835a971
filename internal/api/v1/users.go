package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/safeguardhq/trustguard/internal/auth"
	"github.com/safeguardhq/trustguard/internal/models"
	"github.com/safeguardhq/trustguard/pkg/utils"
)

// Register creates a member account.
func Register(c *fiber.Ctx) error {
	type RegisterInput struct {
		Username string `json:"username" validate:"required,min=3,max=255,alphanum"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}
	ri := new(RegisterInput)
	if err := utils.StrictBodyParser(c, ri); err != nil {
		Logger.Warn(c.Context()).WithFields("error", err).Logs("Failed to parse registration body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}
	if err := Validator.Validate(ri); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	hashed, err := utils.HashPassword(ri.Password)
	if err != nil {
		Logger.Error(c.Context()).WithFields("error", err).Logs("Password hashing failed")
		return utils.SendError(c, utils.ErrInternalServerError)
	}

	u, err := models.NewUser(c.Context(), Redis, DB, ri.Username, ri.Email, hashed)
	if err != nil {
		return utils.SendError(c, err)
	}

	Logger.Info(c.Context()).WithFields("user_id", u.ID, "username", u.Username).Logs("User registered")
	return c.Status(fiber.StatusCreated).JSON(utils.Response{
		Success: true,
		Message: "Account created successfully.",
		Data:    u,
	})
}

// Login verifies credentials and issues the access token cookie.
func Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	li := new(LoginInput)
	if err := utils.StrictBodyParser(c, li); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request format",
		})
	}
	if err := Validator.Validate(li); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": err,
		})
	}

	u, err := models.GetUserBy(c.Context(), Redis, DB, "email = ?", []interface{}{li.Email}, "Role")
	if err != nil {
		// Same response as a bad password so login leaks nothing about accounts.
		return utils.SendError(c, utils.NewError(fiber.StatusUnauthorized, "Invalid email or password"))
	}
	if err := utils.ComparePasswords(u.Password, li.Password); err != nil {
		Logger.Warn(c.Context()).WithFields("user_id", u.ID).Logs("Failed login attempt")
		return utils.SendError(c, utils.NewError(fiber.StatusUnauthorized, "Invalid email or password"))
	}

	token, err := auth.GenerateAccessToken(u.ID.String(), u.RoleID.String())
	if err != nil {
		Logger.Error(c.Context()).WithFields("error", err).Logs("Token generation failed")
		return utils.SendError(c, utils.ErrInternalServerError)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		Expires:  time.Now().Add(15 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	models.CacheUser(c.Context(), Redis, u)

	Logger.Info(c.Context()).WithFields("user_id", u.ID).Logs("User logged in")
	return utils.Success(c).WithMessage("Logged in successfully.").WithData(fiber.Map{
		"access_token": token,
		"user":         u,
	}).Send()
}

// Logout clears the access token cookie.
func Logout(c *fiber.Ctx) error {
	c.ClearCookie("access_token")
	return utils.Success(c).WithMessage("Logged out.").Send()
}
