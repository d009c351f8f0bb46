package api

import (
	"net/http"

	"jetcharter/internal/validation"

	"github.com/gin-gonic/gin"
)

func (s *HTTPServer) handleContact(c *gin.Context) {
	var form validation.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badJSON(c)
		return
	}

	res, err := s.svc.Contact.Submit(c.Request.Context(), sessionID(c), form)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "We could not send your message right now. Please try again later."})
		return
	}
	if len(res.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": res.Errors})
		return
	}
	c.JSON(http.StatusAccepted, res)
}
