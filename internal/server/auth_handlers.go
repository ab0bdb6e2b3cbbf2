package server

import (
	"errors"

	"facegram/internal/models"
	"facegram/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/register
// @Summary Register
// @Description Create an unverified account. A one-time code is issued for /verify.
// @Tags auth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Display name"
// @Param username formData string true "Username"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Param bio formData string false "Bio"
// @Param profilepic formData file false "Profile picture"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	// The profile picture is optional; a missing file part is not an error.
	if fh, err := c.FormFile("profilepic"); err == nil {
		file, err := s.readUpload(fh)
		if err != nil {
			return respondError(c, err)
		}
		pic, err := s.uploadService.SaveImage(c.UserContext(), file)
		if err != nil {
			return respondError(c, err)
		}
		in.ProfilePic = pic
	}

	if _, err := s.authService.Register(c.UserContext(), in); err != nil {
		if in.ProfilePic != "" {
			s.uploadService.Remove(c.UserContext(), in.ProfilePic)
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Registration successful. Please verify your email.",
	})
}

// VerifyEmail handles POST /api/verify
// @Summary Verify email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,otp=string} true "Verification code"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /verify [post]
func (s *Server) VerifyEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" form:"email"`
		OTP   string `json:"otp" form:"otp"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.authService.Verify(c.UserContext(), req.Email, req.OTP); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Email verified successfully"})
}

// Login handles POST /api/login
// @Summary Login
// @Description Sets the httpOnly token cookie. The token is also returned for bearer clients.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Credentials"
// @Success 200 {object} object{message=string,user=models.User,token=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, token, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	s.setSessionCookie(c, token)
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Logout handles GET /api/logout
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /logout [get]
func (s *Server) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(tokenCookie); token != "" {
		// An expired or foreign token still gets its cookie cleared.
		if user, err := s.sessions.Resolve(c.UserContext(), token); err == nil {
			s.authService.Logout(c.UserContext(), user.Email)
		}
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// GoogleAuth handles GET /api/auth/google
// @Summary Google sign-in
// @Description Redirects to the Google consent screen when configured.
// @Tags auth
// @Success 302
// @Failure 501 {object} models.ErrorResponse
// @Router /auth/google [get]
func (s *Server) GoogleAuth(c *fiber.Ctx) error {
	url, err := s.authService.GoogleAuthURL(c.UserContext())
	if err != nil {
		if errors.Is(err, service.ErrGoogleDisabled) {
			msg := "Google sign-in is not configured"
			return c.Status(fiber.StatusNotImplemented).JSON(models.ErrorResponse{Error: msg, Message: msg})
		}
		return respondError(c, err)
	}
	return c.Redirect(url, fiber.StatusFound)
}

// Me handles GET /api/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "success",
		"user":    currentUser(c),
	})
}
