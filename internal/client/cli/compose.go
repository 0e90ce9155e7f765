package cli

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/civilog/civilog-cli/internal/client/services"
)

var reportTypes = []models.ReportType{
	models.ReportTypePartida,
	models.ReportTypeSubpartida,
	models.ReportTypeConcepto,
	models.ReportTypeSubconcepto,
}

// NewReport composes a report interactively and routes it: submitted when
// the server is reachable, queued otherwise. An online submission failure
// is reported without queuing.
func (a *App) NewReport(ctx context.Context) error {
	draft, err := a.composeDraft(ctx)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}

	outcome, err := a.reports.SubmitOrQueue(ctx, *draft)
	if err != nil {
		printlnFn("Submission failed:", err)
		printlnFn("The report was not saved. Use 'draft' to compose and keep one locally.")
		return err
	}
	if outcome.Queued {
		printlnFn("Offline: report saved to the pending queue as", outcome.Pending.ID)
	} else {
		printlnFn("Report submitted:", outcome.Result.Message)
	}
	return nil
}

// SaveDraft composes a report interactively and stores it in the pending
// queue without contacting the server.
func (a *App) SaveDraft(ctx context.Context) error {
	draft, err := a.composeDraft(ctx)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}

	saved, err := a.reports.SaveDraft(ctx, *draft)
	if err != nil {
		printlnFn("Could not save draft:", err)
		return err
	}
	printlnFn("Draft saved as", saved.ID)
	return nil
}

// composeDraft walks the user through composing a report. Returns nil
// without error when composition was abandoned.
func (a *App) composeDraft(ctx context.Context) (*services.Draft, error) {
	if a.projectID == "" {
		printlnFn("Select a project first: projects, then use <n>")
		return nil, nil
	}

	typeNames := make([]string, len(reportTypes))
	for i, t := range reportTypes {
		typeNames[i] = string(t)
	}
	ti, err := SelectOption(a.reader, "Report level:", typeNames, false, os.Stdout)
	if err != nil {
		return nil, err
	}
	reportType := reportTypes[ti]

	draft := services.Draft{
		ProjectID: a.projectID,
		Type:      reportType,
	}

	// Element selection needs the hierarchy; offline with a cold cache the
	// user can still file a free-form report.
	elements, err := a.reports.Elements(ctx, a.projectID)
	if err != nil {
		printlnFn("Element list unavailable, continuing without one:", err)
	} else if list := elements.ListFor(reportType); len(list) > 0 {
		names := make([]string, len(list))
		for i, el := range list {
			names[i] = el.Name
		}
		ei, err := SelectOption(a.reader, "Element:", names, true, os.Stdout)
		if err != nil {
			return nil, err
		}
		if ei >= 0 {
			draft.ObjectID = list[ei].ID
			draft.Name = list[ei].Name
		}
	}

	if draft.Name == "" {
		name, err := GetSimpleText(a.reader, "Report title", os.Stdout)
		if err != nil {
			return nil, err
		}
		if name == "" {
			printlnFn("A report needs a title; abandoned")
			return nil, nil
		}
		draft.Name = name
	}

	lines, err := GetMultiline(a.reader, "Comment", os.Stdout)
	if err != nil {
		return nil, err
	}
	draft.Comment = strings.Join(lines, "\n")

	quantity, err := GetSimpleText(a.reader, "Quantity (empty to skip)", os.Stdout)
	if err != nil {
		return nil, err
	}
	if quantity != "" {
		draft.Quantity = quantity
		unit, err := a.selectUnit(ctx)
		if err != nil {
			return nil, err
		}
		draft.UnitType = unit
	}

	media, err := a.collectMedia()
	if err != nil {
		return nil, err
	}
	draft.Media = media

	return &draft, nil
}

func (a *App) selectUnit(ctx context.Context) (string, error) {
	units, err := a.reports.UnitTypes(ctx)
	if err != nil {
		return "", err
	}
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name + " (" + u.Symbol + ")"
	}
	ui, err := SelectOption(a.reader, "Unit:", names, false, os.Stdout)
	if err != nil {
		return "", err
	}
	return units[ui].Symbol, nil
}

// collectMedia reads photo file paths until an empty line. Files are not
// read here; the pipeline resolves URIs to bytes at upload time.
func (a *App) collectMedia() ([]models.PendingMedia, error) {
	var media []models.PendingMedia
	for {
		path, err := GetSimpleText(a.reader, "Photo path (empty to finish)", os.Stdout)
		if err != nil {
			return nil, err
		}
		if path == "" {
			return media, nil
		}
		if _, err := os.Stat(strings.TrimPrefix(path, "file://")); err != nil {
			printlnFn("Cannot read", path, "-", err)
			continue
		}
		media = append(media, models.PendingMedia{
			URI:      path,
			FileName: filepath.Base(path),
			MimeType: mimeTypeFor(path),
		})
	}
}

func mimeTypeFor(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
