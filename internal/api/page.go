package api

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"jetcharter/internal/catalog"
	"jetcharter/internal/config"
	"jetcharter/internal/models"
	"jetcharter/internal/service"
	"jetcharter/internal/session"
	"jetcharter/internal/validation"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const brandName = "JetPage"

//go:embed templates/index.html
var pageFS embed.FS

var amountPrinter = message.NewPrinter(language.English)

type stageStep struct {
	Number int
	Title  string
	Active bool
	Done   bool
}

type pageData struct {
	Brand         string
	Year          int
	Session       session.Session
	Booking       *service.BookingView
	Steps         []stageStep
	Fleet         catalog.Fleet
	MaxPassengers int
	Today         string
	Contact       config.ContactConfig
	SignUp        validation.SignUpRules
	InquiryTypes  []string
	ResetToken    string
}

func parsePage() (*template.Template, error) {
	return template.New("index.html").Funcs(template.FuncMap{
		"usd": func(n int64) string { return amountPrinter.Sprintf("$%d", n) },
		"num": func(n int) string { return amountPrinter.Sprintf("%d", n) },
		"isStage": func(v *service.BookingView, name string) bool {
			return v != nil && v.StageName == name
		},
	}).ParseFS(pageFS, "templates/index.html")
}

var stageTitles = []struct {
	stage models.Stage
	title string
}{
	{models.StageFlightDetails, "Flight Details"},
	{models.StageAircraftSelection, "Select Your Aircraft"},
	{models.StagePayment, "Payment Details"},
}

func steps(current models.Stage) []stageStep {
	out := make([]stageStep, 0, len(stageTitles))
	for i, st := range stageTitles {
		out = append(out, stageStep{
			Number: i + 1,
			Title:  st.title,
			Active: st.stage == current,
			Done:   st.stage < current,
		})
	}
	return out
}

// handleIndex renders the landing page for the current session. The reset
// page is the same document with the new password form opened.
func (s *HTTPServer) handleIndex(c *gin.Context) {
	ctx := c.Request.Context()
	sid := sessionID(c)

	auth, err := s.svc.Auth.Current(ctx, sid)
	if err != nil {
		s.internalError(c, err)
		return
	}
	booking, err := s.svc.Booking.View(ctx, sid)
	if err != nil {
		s.internalError(c, err)
		return
	}

	now := s.now()
	fleet := s.svc.Booking.Fleet()
	data := pageData{
		Brand:         brandName,
		Year:          now.Year(),
		Session:       auth.Session,
		Booking:       booking,
		Steps:         steps(booking.Stage),
		Fleet:         fleet,
		MaxPassengers: fleet.MaxCapacity(),
		Today:         now.Format(models.DateLayout),
		Contact:       s.cfg.Contact,
		SignUp:        s.svc.Auth.SignUpRules(),
		InquiryTypes:  models.InquiryTypes,
		ResetToken:    c.Query("token"),
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		s.internalError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
