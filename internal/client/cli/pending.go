package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/civilog/civilog-cli/internal/client/pending"
	"github.com/civilog/civilog-cli/internal/common"
)

// Pending lists the queued reports newest first and remembers the listing,
// so upload/edit/media/rm can address items by number.
func (a *App) Pending(ctx context.Context) error {
	a.listed = a.queue.Load(ctx)
	if len(a.listed) == 0 {
		printlnFn("No pending reports")
		return nil
	}

	for i, r := range a.listed {
		tag := ""
		if r.IsDraft {
			tag = " [draft]"
		}
		created := time.UnixMilli(r.CreatedAt).Format("2006-01-02 15:04")
		line := fmt.Sprintf("%d) %s%s  %s  %d photo(s)  %s", i+1, r.Name, tag, string(r.Type), len(r.Media), created)
		if r.Quantity != "" {
			line += "  " + r.Quantity + " " + r.UnitType
		}
		printlnFn(line)
	}
	return nil
}

// pickListed resolves a user-supplied argument to a queued report, first as
// a number in the last "pending" listing, then as a raw id.
func (a *App) pickListed(ctx context.Context, arg string) (models.PendingReport, bool) {
	if arg == "" {
		printlnFn("Which one? Run 'pending' and pass a number")
		return models.PendingReport{}, false
	}

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(a.listed) {
			printlnFn("No such item in the last listing; run 'pending' again")
			return models.PendingReport{}, false
		}
		return a.listed[n-1], true
	}

	for _, r := range a.queue.Load(ctx) {
		if r.ID == arg {
			return r, true
		}
	}
	printlnFn("No pending report with id", arg)
	return models.PendingReport{}, false
}

// Upload submits one queued report through the full pipeline and removes
// it from the queue on success.
func (a *App) Upload(ctx context.Context, arg string) error {
	report, ok := a.pickListed(ctx, arg)
	if !ok {
		return nil
	}

	result, err := a.reports.UploadOne(ctx, report.ID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrOffline):
			printlnFn("Server unreachable; the report stays queued")
		case errors.Is(err, common.ErrNotFound):
			printlnFn("That report is no longer queued")
		default:
			printlnFn("Upload failed, report stays queued:", err)
		}
		return err
	}

	printlnFn("Uploaded:", result.Message)
	a.listed = nil
	return nil
}

// UploadAll sweeps the whole queue, submitting each report in turn.
func (a *App) UploadAll(ctx context.Context) error {
	sweep, err := a.reports.UploadAll(ctx)
	if err != nil {
		if errors.Is(err, common.ErrOffline) {
			printlnFn("Server unreachable; nothing uploaded")
		} else {
			printlnFn("Upload sweep failed:", err)
		}
		return err
	}

	printlnFn(fmt.Sprintf("Uploaded %d report(s), %d failed and stay queued", sweep.Uploaded, sweep.Failed))
	a.listed = nil
	return nil
}

// Edit patches the editable fields of a queued report. Empty input keeps
// the current value.
func (a *App) Edit(ctx context.Context, arg string) error {
	report, ok := a.pickListed(ctx, arg)
	if !ok {
		return nil
	}

	var patch pending.DetailsPatch

	name, err := GetSimpleText(a.reader, "Title ["+report.Name+"]", os.Stdout)
	if err != nil {
		return err
	}
	if name != "" {
		patch.Name = &name
	}

	comment, err := GetSimpleText(a.reader, "Comment ["+report.Comment+"]", os.Stdout)
	if err != nil {
		return err
	}
	if comment != "" {
		patch.Comment = &comment
	}

	quantity, err := GetSimpleText(a.reader, "Quantity ["+report.Quantity+"]", os.Stdout)
	if err != nil {
		return err
	}
	if quantity != "" {
		patch.Quantity = &quantity
		unit, err := a.selectUnit(ctx)
		if err != nil {
			return err
		}
		patch.UnitType = &unit
	}

	if err := a.queue.UpdateDetails(ctx, report.ID, patch); err != nil {
		printlnFn("Could not update report:", err)
		return err
	}
	printlnFn("Updated", report.ID)
	a.listed = nil
	return nil
}

// Media manages the photos attached to a queued report: list, add by path,
// or drop by number.
func (a *App) Media(ctx context.Context, arg string) error {
	report, ok := a.pickListed(ctx, arg)
	if !ok {
		return nil
	}

	for i, m := range report.Media {
		printlnFn(fmt.Sprintf("  %d) %s (%s)", i+1, m.FileName, m.MimeType))
	}
	if len(report.Media) == 0 {
		printlnFn("No photos attached")
	}

	action, err := GetSimpleText(a.reader, "add <path>, drop <n>, or empty to leave as is", os.Stdout)
	if err != nil {
		return err
	}
	if action == "" {
		return nil
	}

	verb, rest, _ := strings.Cut(action, " ")
	media := report.Media

	switch verb {
	case "add":
		path := strings.TrimSpace(rest)
		if path == "" {
			printlnFn("Usage: add <path>")
			return nil
		}
		if _, err := os.Stat(strings.TrimPrefix(path, "file://")); err != nil {
			printlnFn("Cannot read", path, "-", err)
			return nil
		}
		media = append(media, models.PendingMedia{
			URI:      path,
			FileName: filepath.Base(path),
			MimeType: mimeTypeFor(path),
		})
	case "drop":
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || n < 1 || n > len(media) {
			printlnFn("Usage: drop <photo number>")
			return nil
		}
		media = append(media[:n-1], media[n:]...)
	default:
		printlnFn("Unknown action:", verb)
		return nil
	}

	if err := a.queue.UpdateMedia(ctx, report.ID, media); err != nil {
		printlnFn("Could not update photos:", err)
		return err
	}
	printlnFn("Photos updated for", report.ID)
	a.listed = nil
	return nil
}

// Remove deletes a queued report after confirmation. The attached photo
// files on disk are left alone.
func (a *App) Remove(ctx context.Context, arg string) error {
	report, ok := a.pickListed(ctx, arg)
	if !ok {
		return nil
	}

	answer, err := GetSimpleText(a.reader, "Delete '"+report.Name+"'? (y/N)", os.Stdout)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") {
		printlnFn("Kept")
		return nil
	}

	if err := a.queue.Remove(ctx, report.ID); err != nil {
		printlnFn("Could not delete:", err)
		return err
	}
	printlnFn("Deleted", report.ID)
	a.listed = nil
	return nil
}
