package api

import (
	"net/http"
	"strings"

	"jetcharter/internal/identity"
	"jetcharter/internal/service"
	"jetcharter/internal/validation"

	"github.com/gin-gonic/gin"
)

// authStatus maps a provider failure to the HTTP status of the response.
func authStatus(kind identity.Kind) int {
	switch kind {
	case identity.KindWrongPassword, identity.KindUserNotFound:
		return http.StatusUnauthorized
	case identity.KindUserDisabled:
		return http.StatusForbidden
	case identity.KindEmailAlreadyInUse:
		return http.StatusConflict
	case identity.KindTooManyRequests:
		return http.StatusTooManyRequests
	case identity.KindInvalidEmail:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *HTTPServer) respondAuth(c *gin.Context, res *service.AuthResult, okStatus int) {
	switch {
	case res.Invalid():
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": res.Errors, "session": res.Session})
	case res.Err != nil:
		c.JSON(authStatus(res.Kind), gin.H{
			"error":   res.Banner,
			"code":    res.Kind.Code(),
			"session": res.Session,
		})
	default:
		body := gin.H{"session": res.Session}
		if res.Banner != "" {
			body["banner"] = res.Banner
		}
		if res.User != nil && res.User.Token != "" {
			body["token"] = res.User.Token
		}
		c.JSON(okStatus, body)
	}
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
}

func (s *HTTPServer) handleLogin(c *gin.Context) {
	var form validation.SignInForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badJSON(c)
		return
	}
	res, err := s.svc.Auth.SignIn(c.Request.Context(), sessionID(c), form)
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.respondAuth(c, res, http.StatusOK)
}

func (s *HTTPServer) handleRegister(c *gin.Context) {
	var form validation.SignUpForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badJSON(c)
		return
	}
	res, err := s.svc.Auth.SignUp(c.Request.Context(), sessionID(c), form)
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.respondAuth(c, res, http.StatusCreated)
}

func (s *HTTPServer) handleLogout(c *gin.Context) {
	res, err := s.svc.Auth.SignOut(c.Request.Context(), sessionID(c))
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.respondAuth(c, res, http.StatusOK)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (s *HTTPServer) handlePasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	res, err := s.svc.Auth.SendPasswordReset(c.Request.Context(), sessionID(c), req.Email)
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.respondAuth(c, res, http.StatusAccepted)
}

type passwordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (s *HTTPServer) handlePasswordResetConfirm(c *gin.Context) {
	if s.svc.Resetter == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "password reset is not available"})
		return
	}
	var req passwordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c)
		return
	}
	if errs := validation.NewPassword(req.Password, s.svc.Auth.SignUpRules()); len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}
	if err := s.svc.Resetter.ResetPassword(c.Request.Context(), strings.TrimSpace(req.Token), req.Password); err != nil {
		s.log.Warn().Err(err).Str("request_id", GetRequestID(c)).Msg("Password reset rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": identity.RawMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"banner": "Your password has been updated. Please sign in."})
}

func (s *HTTPServer) handleSession(c *gin.Context) {
	res, err := s.svc.Auth.Current(c.Request.Context(), sessionID(c))
	if err != nil {
		s.internalError(c, err)
		return
	}
	s.respondAuth(c, res, http.StatusOK)
}

// handleMe resolves the bearer token issued at sign-in.
func (s *HTTPServer) handleMe(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	user, err := s.svc.Auth.Verify(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uid":          user.UID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"username":     user.Username(),
	})
}

type accountDisabledRequest struct {
	Disabled *bool `json:"disabled"`
}

func (s *HTTPServer) handleAccountDisabled(c *gin.Context) {
	var req accountDisabledRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Disabled == nil {
		badJSON(c)
		return
	}

	uid := c.Param("uid")
	if err := s.svc.Accounts.SetAccountDisabled(c.Request.Context(), uid, *req.Disabled); err != nil {
		if identity.KindOf(err) == identity.KindUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		s.internalError(c, err)
		return
	}

	s.log.Info().
		Str("uid", uid).
		Bool("disabled", *req.Disabled).
		Str("api_client", c.GetString(apiClientKey)).
		Msg("Account status changed by admin")
	c.JSON(http.StatusOK, gin.H{"uid": uid, "disabled": *req.Disabled})
}
