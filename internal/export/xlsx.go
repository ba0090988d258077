// Package export writes lead listings to xlsx spreadsheets.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"lead-capture/internal/lead/domain"
)

// SheetName is the worksheet that holds the leads.
const SheetName = "Leads"

// ErrNoLeads is returned when there is nothing to export.
var ErrNoLeads = errors.New("no leads found")

// Header is the first row of the sheet.
var Header = []string{"ID", "Name", "Email", "Phone", "Message", "Property", "Submitted At"}

// Lister reads every stored lead.
type Lister interface {
	ListAll(ctx context.Context) ([]*domain.Lead, error)
}

// Workbook builds a workbook with one row per lead below Header. The caller must Close it.
func Workbook(leads []*domain.Lead) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, l := range leads {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := []any{l.ID, l.Name, l.Email, l.Phone, l.Message, l.Property, l.SubmittedAt.UTC().Format(time.RFC3339)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write streams the spreadsheet for leads to w. It returns ErrNoLeads and writes nothing when leads is empty.
func Write(w io.Writer, leads []*domain.Lead) error {
	if len(leads) == 0 {
		return ErrNoLeads
	}
	f, err := Workbook(leads)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	return f.Write(w)
}

// WriteFile lists every lead and saves them to path. It returns the number of rows written;
// with zero leads it returns ErrNoLeads and creates no file.
func WriteFile(ctx context.Context, src Lister, path string) (int, error) {
	leads, err := src.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list leads: %w", err)
	}
	if len(leads) == 0 {
		return 0, ErrNoLeads
	}
	f, err := Workbook(leads)
	if err != nil {
		return 0, fmt.Errorf("build workbook: %w", err)
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	return len(leads), nil
}
