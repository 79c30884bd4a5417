package store

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	oauthjwt "golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"absensi/internal/apperr"
)

// Sheets is a Store backed by one Google spreadsheet, one sheet per table.
// Row 1 of every sheet is the header.
type Sheets struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	inputOption   string
}

// ServiceAccount authenticates as a service account from its email and PEM key.
func ServiceAccount(ctx context.Context, email, privateKey string) option.ClientOption {
	conf := &oauthjwt.Config{
		Email:      email,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	return option.WithTokenSource(conf.TokenSource(ctx))
}

// NewSheets connects to spreadsheetID. inputOption is RAW or USER_ENTERED.
func NewSheets(ctx context.Context, spreadsheetID, inputOption string, opts ...option.ClientOption) (*Sheets, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	if inputOption == "" {
		inputOption = "RAW"
	}
	return &Sheets{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		inputOption:   inputOption,
	}, nil
}

func (s *Sheets) Scan(ctx context.Context, t Table, cols Columns) ([]Row, error) {
	rng := fmt.Sprintf("%s!%s%d:%s", quoteSheet(t.Name), columnLetter(cols.First), FirstPosition, columnLetter(cols.Last))
	resp, err := s.values.Get(s.spreadsheetID, rng).MajorDimension("ROWS").Context(ctx).Do()
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("get %s: %w", rng, err))
	}
	rows := make([]Row, len(resp.Values))
	for i, raw := range resp.Values {
		row := make(Row, len(raw))
		for j, v := range raw {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = trimRight(row)
	}
	return trimTrailingBlank(rows), nil
}

func (s *Sheets) Append(ctx context.Context, t Table, row Row) error {
	rng := fmt.Sprintf("%s!A:%s", quoteSheet(t.Name), columnLetter(t.Width-1))
	_, err := s.values.Append(s.spreadsheetID, rng, valueRange(fit(row, t.Width))).
		ValueInputOption(s.inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("append %s: %w", rng, err))
	}
	return nil
}

func (s *Sheets) UpdateAt(ctx context.Context, t Table, position int, row Row) error {
	if err := checkPosition(position); err != nil {
		return apperr.Unavailable(err)
	}
	rng := rowRange(t, position)
	_, err := s.values.Update(s.spreadsheetID, rng, valueRange(fit(row, t.Width))).
		ValueInputOption(s.inputOption).
		Context(ctx).
		Do()
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("update %s: %w", rng, err))
	}
	return nil
}

func (s *Sheets) ClearAt(ctx context.Context, t Table, position int) error {
	if err := checkPosition(position); err != nil {
		return apperr.Unavailable(err)
	}
	rng := rowRange(t, position)
	_, err := s.values.Clear(s.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return apperr.Unavailable(fmt.Errorf("clear %s: %w", rng, err))
	}
	return nil
}

func valueRange(row Row) *sheets.ValueRange {
	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = c
	}
	return &sheets.ValueRange{Values: [][]interface{}{cells}}
}

func rowRange(t Table, position int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(t.Name), position, columnLetter(t.Width-1), position)
}

// columnLetter converts a zero-based column index to A1 notation.
func columnLetter(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('A' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}

func quoteSheet(name string) string {
	for _, r := range name {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
