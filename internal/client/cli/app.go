// Package cli implements the interactive CiviLog client: a REPL over the
// report service, the pending queue, and the auth manager.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/civilog/civilog-cli/internal/client/api"
	"github.com/civilog/civilog-cli/internal/client/auth"
	"github.com/civilog/civilog-cli/internal/client/cache"
	"github.com/civilog/civilog-cli/internal/client/config"
	"github.com/civilog/civilog-cli/internal/client/kvstore"
	"github.com/civilog/civilog-cli/internal/client/media"
	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/civilog/civilog-cli/internal/client/pending"
	"github.com/civilog/civilog-cli/internal/client/services"
	"github.com/civilog/civilog-cli/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	log     logging.Logger
	store   kvstore.Store
	auth    *auth.Manager
	queue   *pending.Queue
	reports services.ReportService

	reader *bufio.Reader

	userEmail string
	projectID string

	// listed maps the indexes shown by the last "pending" listing to ids,
	// so upload/edit/rm can take a short number instead of the full id.
	listed []models.PendingReport
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	store, err := kvstore.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	apiClient := api.New(c.APIBaseURL, c.HTTPTimeout, log)
	authManager := auth.NewManager(store, apiClient, log)
	apiClient.SetTokenSource(authManager)

	queue := pending.New(store)
	refCache := cache.New(store)
	reports := services.NewReportService(apiClient, queue, refCache, media.FileResolver{}, log)

	return &App{
		config:  c,
		log:     log,
		store:   store,
		auth:    authManager,
		queue:   queue,
		reports: reports,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error(context.Background(), "failed to close local storage", "error", err)
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.auth.LoggedIn(ctx)
}

func (a *App) getStatus(ctx context.Context) string {
	s := ""
	if a.userEmail != "" {
		s = a.userEmail
	} else if a.isLoggedIn(ctx) {
		s = "logged in"
	}
	if n := len(a.queue.Load(ctx)); n > 0 {
		if s != "" {
			s += ", "
		}
		s += fmt.Sprintf("%d pending", n)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
