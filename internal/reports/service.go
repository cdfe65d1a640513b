package reports

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Alckxyz/nutritrack/internal/blob"
	"github.com/Alckxyz/nutritrack/internal/storage"
	"github.com/Alckxyz/nutritrack/internal/userctx"
	"github.com/google/uuid"
)

// Errors
var (
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrInvalidFormat    = fmt.Errorf("invalid format")
	ErrInvalidDate      = fmt.Errorf("invalid date format")
	ErrInvalidDateRange = fmt.Errorf("from date must be before to date")
	ErrRangeTooLarge    = fmt.Errorf("date range too large")
	ErrReportNotFound   = fmt.Errorf("report not found")
)

// Service handles reports business logic
type Service struct {
	reportsStorage  storage.ReportsStorage
	generator       *Generator
	blobStore       blob.Store
	maxRangeDays    int
	presignTTL      int
	localMode       bool   // true if no S3 configured
	publicBaseURL   string // S3 public base URL (if prefer_public_url mode)
	preferPublicURL bool   // if true, use public URLs instead of presigned
}

// NewService creates a new reports service
func NewService(
	reportsStorage storage.ReportsStorage,
	generator *Generator,
	blobStore blob.Store,
	maxRangeDays int,
	presignTTL int,
	publicBaseURL string,
	preferPublicURL bool,
) *Service {
	return &Service{
		reportsStorage:  reportsStorage,
		generator:       generator,
		blobStore:       blobStore,
		maxRangeDays:    maxRangeDays,
		presignTTL:      presignTTL,
		localMode:       blobStore == nil,
		publicBaseURL:   publicBaseURL,
		preferPublicURL: preferPublicURL,
	}
}

// CreateReport generates a report over a date range and stores it
func (s *Service) CreateReport(ctx context.Context, req CreateReportRequest) (*Report, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if req.Format != FormatPDF && req.Format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	fromDate, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, ErrInvalidDate
	}
	toDate, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if fromDate.After(toDate) {
		return nil, ErrInvalidDateRange
	}
	daysDiff := int(toDate.Sub(fromDate).Hours() / 24)
	if daysDiff > s.maxRangeDays {
		return nil, ErrRangeTooLarge
	}

	data, err := s.generator.GenerateReport(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	report := &storage.ReportMeta{
		OwnerID:   userID,
		Format:    req.Format,
		FromDate:  req.From,
		ToDate:    req.To,
		SizeBytes: int64(len(data)),
		Status:    StatusReady,
	}

	if s.localMode {
		// Local mode: keep the bytes alongside the metadata
		report.Data = data
	} else {
		objectKey := fmt.Sprintf("reports/%s/%s_%s_%s.%s",
			userID,
			req.From,
			req.To,
			uuid.New().String(),
			req.Format,
		)

		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentTypeFor(req.Format)); err != nil {
			return nil, fmt.Errorf("failed to upload to S3: %w", err)
		}
		report.ObjectKey = &objectKey
	}

	if err := s.reportsStorage.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	return toReport(report), nil
}

// GetReport retrieves a report by ID
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReport(meta), nil
}

// ListReports lists the user's reports, newest first
func (s *Service) ListReports(ctx context.Context, limit, offset int) ([]Report, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	metaList, err := s.reportsStorage.ListReports(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, len(metaList))
	for i, meta := range metaList {
		reports[i] = *toReport(&meta)
	}
	return reports, nil
}

// DeleteReport deletes a report and its stored object
func (s *Service) DeleteReport(ctx context.Context, id uuid.UUID) error {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return err
	}

	if !s.localMode && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			// Metadata deletion matters more than the orphaned object.
			log.Printf("reports: failed to delete S3 object %s: %v", *meta.ObjectKey, err)
		}
	}

	if err := s.reportsStorage.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}
	return nil
}

// GetReportDownloadURL generates a download URL for a report
func (s *Service) GetReportDownloadURL(ctx context.Context, id uuid.UUID, baseURL string) (string, error) {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return "", err
	}

	if s.localMode {
		return fmt.Sprintf("%s/v1/reports/%s/download", strings.TrimSuffix(baseURL, "/"), id.String()), nil
	}

	if meta.ObjectKey == nil {
		return "", fmt.Errorf("object key is missing")
	}

	if s.preferPublicURL && s.publicBaseURL != "" {
		return strings.TrimSuffix(s.publicBaseURL, "/") + "/" + *meta.ObjectKey, nil
	}

	presignedURL, err := s.blobStore.PresignGet(ctx, *meta.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedURL, nil
}

// GetReportData retrieves the raw report data (for local mode download)
func (s *Service) GetReportData(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	meta, err := s.ownedReport(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if s.localMode {
		return meta.Data, contentTypeFor(meta.Format), nil
	}

	if meta.ObjectKey == nil {
		return nil, "", fmt.Errorf("object key is missing")
	}

	data, err := s.blobStore.GetObject(ctx, *meta.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch report object: %w", err)
	}
	return data, contentTypeFor(meta.Format), nil
}

// ============================================================================
// Helper methods
// ============================================================================

func (s *Service) ownedReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	meta, err := s.reportsStorage.GetReport(ctx, id)
	if err != nil {
		return nil, ErrReportNotFound
	}
	if meta.OwnerID != userID {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}

// ============================================================================
// Converters
// ============================================================================

func toReport(meta *storage.ReportMeta) *Report {
	return &Report{
		ID:        meta.ID,
		OwnerID:   meta.OwnerID,
		Format:    meta.Format,
		FromDate:  meta.FromDate,
		ToDate:    meta.ToDate,
		ObjectKey: meta.ObjectKey,
		SizeBytes: meta.SizeBytes,
		Status:    meta.Status,
		Error:     meta.Error,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		Data:      meta.Data,
	}
}
