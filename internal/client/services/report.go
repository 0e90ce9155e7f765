// Package services contains the application services of the CiviLog client:
// connectivity-aware report routing, the media-then-report submission
// pipeline, the pending-queue sweep, and reference data with cache fallback.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/civilog/civilog-cli/internal/client/api"
	"github.com/civilog/civilog-cli/internal/client/cache"
	"github.com/civilog/civilog-cli/internal/client/media"
	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/civilog/civilog-cli/internal/common"
	"github.com/civilog/civilog-cli/internal/logging"
)

// probeTimeout bounds the point-in-time reachability check.
const probeTimeout = 3 * time.Second

// API is the slice of the REST client the report service consumes.
type API interface {
	Ping(ctx context.Context) error
	FetchProjects(ctx context.Context) ([]models.Project, error)
	FetchElements(ctx context.Context, projectID string) (*models.Elements, error)
	FetchUnitTypes(ctx context.Context) ([]models.UnitType, error)
	CreateReport(ctx context.Context, p api.CreateReportParams) (*api.CreateReportResult, error)
	UploadMedia(ctx context.Context, p api.UploadMediaParams) (*api.UploadMediaResult, error)
}

// Queue is the slice of the pending store the report service consumes.
type Queue interface {
	Load(ctx context.Context) []models.PendingReport
	Add(ctx context.Context, report models.PendingReport) (*models.PendingReport, error)
	Remove(ctx context.Context, id string) error
}

// ReportService routes composed reports to the server or the pending queue
// and runs the submission pipeline.
type ReportService interface {
	// Online probes service reachability at this instant.
	Online(ctx context.Context) bool

	// SubmitOrQueue submits draft when the service is reachable, otherwise
	// persists it into the pending queue. A submission failure is returned
	// as an error without queuing, so the caller keeps the composed input.
	SubmitOrQueue(ctx context.Context, draft Draft) (*SubmitOutcome, error)

	// SaveDraft persists draft into the pending queue unconditionally.
	SaveDraft(ctx context.Context, draft Draft) (*models.PendingReport, error)

	// SubmitReport runs the two-phase pipeline for one report: sequential
	// media uploads, then report creation. It never touches the queue.
	SubmitReport(ctx context.Context, report models.PendingReport) (*SubmitResult, error)

	// UploadOne submits the queued report with the given id and removes it
	// from the queue on success.
	UploadOne(ctx context.Context, id string) (*SubmitResult, error)

	// UploadAll sweeps a snapshot of the queue front to back, submitting
	// each item sequentially. Failing items stay queued.
	UploadAll(ctx context.Context) (*SweepResult, error)

	// Reference data, live-first with cache fallback.
	Projects(ctx context.Context) ([]models.Project, error)
	Elements(ctx context.Context, projectID string) (*models.Elements, error)
	UnitTypes(ctx context.Context) ([]models.UnitType, error)
}

// Draft is a fully composed report as produced by the UI, before it gets a
// queue identity.
type Draft struct {
	ProjectID string
	Type      models.ReportType
	ObjectID  string
	Name      string
	Comment   string
	Quantity  string
	UnitType  string
	Media     []models.PendingMedia
}

func (d Draft) toPending(isDraft bool) models.PendingReport {
	return models.PendingReport{
		ProjectID: d.ProjectID,
		Type:      d.Type,
		ObjectID:  d.ObjectID,
		Name:      d.Name,
		Comment:   d.Comment,
		Quantity:  d.Quantity,
		UnitType:  d.UnitType,
		Media:     d.Media,
		IsDraft:   isDraft,
	}
}

// SubmitResult is the server confirmation for one submitted report.
type SubmitResult struct {
	ID      string
	Message string
}

// SubmitOutcome reports how SubmitOrQueue disposed of a draft: either
// submitted (Result set) or saved to the pending queue (Pending set).
type SubmitOutcome struct {
	Queued  bool
	Pending *models.PendingReport
	Result  *SubmitResult
}

// SweepResult summarizes one upload-all pass.
type SweepResult struct {
	Uploaded int
	Failed   int
}

type reportService struct {
	api      API
	queue    Queue
	cache    *cache.Cache
	resolver media.Resolver
	log      logging.Logger
}

func NewReportService(apiClient API, queue Queue, c *cache.Cache, resolver media.Resolver, log logging.Logger) ReportService {
	return &reportService{api: apiClient, queue: queue, cache: c, resolver: resolver, log: log}
}

func (s *reportService) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return s.api.Ping(ctx) == nil
}

func (s *reportService) SubmitOrQueue(ctx context.Context, draft Draft) (*SubmitOutcome, error) {
	if !s.Online(ctx) {
		stored, err := s.queue.Add(ctx, draft.toPending(false))
		if err != nil {
			return nil, fmt.Errorf("failed to queue report: %w", err)
		}
		s.log.Info(ctx, "offline, report saved to pending", "id", stored.ID)
		return &SubmitOutcome{Queued: true, Pending: stored}, nil
	}

	res, err := s.SubmitReport(ctx, draft.toPending(false))
	if err != nil {
		return nil, err
	}
	return &SubmitOutcome{Result: res}, nil
}

func (s *reportService) SaveDraft(ctx context.Context, draft Draft) (*models.PendingReport, error) {
	stored, err := s.queue.Add(ctx, draft.toPending(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return stored, nil
}

// SubmitReport uploads the report's media strictly in list order, collecting
// asset ids as they come back, then creates the report referencing them.
// Any failure aborts the remaining steps; assets already uploaded in the
// aborted run are not tracked or cleaned up.
func (s *reportService) SubmitReport(ctx context.Context, report models.PendingReport) (*SubmitResult, error) {
	projectName := s.projectName(ctx, report.ProjectID)
	elementName := "/" + report.Name
	hierarchyPath := s.hierarchyPath(ctx, report)

	total := len(report.Media)
	assetIds := make([]string, 0, total)
	for i, m := range report.Media {
		data, err := s.resolver.Resolve(ctx, m.URI)
		if err != nil {
			return nil, fmt.Errorf("media %d/%d: %w", i+1, total, err)
		}

		up, err := s.api.UploadMedia(ctx, api.UploadMediaParams{
			Data:          data,
			FileName:      m.FileName,
			MimeType:      m.MimeType,
			ProjectName:   projectName,
			ElementName:   elementName,
			HierarchyPath: hierarchyPath,
		})
		if err != nil {
			return nil, fmt.Errorf("media %d/%d: %w", i+1, total, err)
		}

		assetIds = append(assetIds, up.AssetID)
		s.log.Info(ctx, "media uploaded", "item", i+1, "total", total, "assetId", up.AssetID)
	}

	payload := models.ReportPayload{
		AssetIds: assetIds,
		Quantity: report.Quantity,
		UnitType: report.UnitType,
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	created, err := s.api.CreateReport(ctx, api.CreateReportParams{
		ProjectID: report.ProjectID,
		Type:      report.Type,
		Name:      report.Name,
		ObjectID:  report.ObjectID,
		Comment:   report.Comment,
		Payload:   payload,
	})
	if err != nil {
		return nil, err
	}

	return &SubmitResult{ID: created.ID, Message: created.Message}, nil
}

func (s *reportService) UploadOne(ctx context.Context, id string) (*SubmitResult, error) {
	report, ok := s.findPending(ctx, id)
	if !ok {
		return nil, common.ErrNotFound
	}

	if !s.Online(ctx) {
		return nil, common.ErrOffline
	}

	res, err := s.SubmitReport(ctx, report)
	if err != nil {
		return nil, err
	}
	if err := s.queue.Remove(ctx, report.ID); err != nil {
		return nil, fmt.Errorf("report submitted but not dequeued: %w", err)
	}
	return res, nil
}

// UploadAll probes connectivity once, takes one snapshot of the queue and
// walks it front to back. Items added to the queue during the sweep are not
// visited in this pass, and connectivity is not re-checked between items.
func (s *reportService) UploadAll(ctx context.Context) (*SweepResult, error) {
	if !s.Online(ctx) {
		return nil, common.ErrOffline
	}

	snapshot := s.queue.Load(ctx)

	result := &SweepResult{}
	for _, report := range snapshot {
		if err := s.submitAndDequeue(ctx, report); err != nil {
			result.Failed++
			s.log.Warn(ctx, "pending report kept for retry", "id", report.ID, "error", err)
			continue
		}
		result.Uploaded++
	}
	return result, nil
}

func (s *reportService) submitAndDequeue(ctx context.Context, report models.PendingReport) error {
	if _, err := s.SubmitReport(ctx, report); err != nil {
		return err
	}
	if err := s.queue.Remove(ctx, report.ID); err != nil {
		return fmt.Errorf("report submitted but not dequeued: %w", err)
	}
	return nil
}

func (s *reportService) findPending(ctx context.Context, id string) (models.PendingReport, bool) {
	for _, r := range s.queue.Load(ctx) {
		if r.ID == id {
			return r, true
		}
	}
	return models.PendingReport{}, false
}

// projectName resolves the display name of a project from the cache. The
// pipeline stays offline-safe: it never fetches, and falls back to a generic
// label when the project was never cached.
func (s *reportService) projectName(ctx context.Context, projectID string) string {
	if projects, ok := cache.Get[[]models.Project](ctx, s.cache, cache.KeyProjects); ok {
		for _, p := range projects {
			if p.ID == projectID {
				return p.Name
			}
		}
	}
	return "Proyecto"
}

// hierarchyPath resolves the selected element's position string from the
// cached hierarchy, or "" when no element is selected or nothing is cached.
func (s *reportService) hierarchyPath(ctx context.Context, report models.PendingReport) string {
	if report.ObjectID == "" {
		return ""
	}
	elements, ok := cache.Get[*models.Elements](ctx, s.cache, cache.KeyElements(report.ProjectID))
	if !ok || elements == nil {
		return ""
	}
	return elements.HierarchyPath(report.Type, report.ObjectID)
}
