// Package google writes contact inquiries to a Google Sheet.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"jetcharter/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const inquiryTimeLayout = "2006-01-02 15:04:05"

var inquiryHeaders = []interface{}{"ID", "Received At", "Type", "Name", "Email", "Subject", "Message", "Session"}

// InquirySheet appends one row per inquiry to a sheet of a spreadsheet.
type InquirySheet struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewInquirySheet authenticates with a service-account key file.
func NewInquirySheet(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*InquirySheet, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newInquirySheet(srv, spreadsheetID, sheetName), nil
}

func newInquirySheet(srv *sheets.Service, spreadsheetID, sheetName string) *InquirySheet {
	if sheetName == "" {
		sheetName = "Inquiries"
	}
	return &InquirySheet{service: srv, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func (s *InquirySheet) Name() string {
	return "sheets"
}

func (s *InquirySheet) Deliver(ctx context.Context, inquiry *models.Inquiry) error {
	return s.AppendInquiry(ctx, inquiry)
}

// TestConnection reads the header cell of the inquiry sheet.
func (s *InquirySheet) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// EnsureHeader writes the column titles when the first row is empty.
func (s *InquirySheet) EnsureHeader(ctx context.Context) error {
	headerRange := fmt.Sprintf("%s!A1:H1", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, headerRange, &sheets.ValueRange{
		Values: [][]interface{}{inquiryHeaders},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func (s *InquirySheet) AppendInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	row := []interface{}{
		inquiry.ID,
		inquiry.ReceivedAt.Format(inquiryTimeLayout),
		inquiry.InquiryType,
		inquiry.Name,
		inquiry.Email,
		inquiry.Subject,
		inquiry.Message,
		inquiry.SessionID,
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName+"!A:H", &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append inquiry %s: %w", inquiry.ID, err)
	}
	return nil
}

// ServiceAccountEmail reads the client email from a key file, the address the
// spreadsheet has to be shared with.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}
