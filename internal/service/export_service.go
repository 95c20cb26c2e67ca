package service

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/papervault/papervault-api/internal/models"
	"github.com/papervault/papervault-api/pkg/export"
	"github.com/papervault/papervault-api/pkg/storage"
)

// ExportService renders the paper catalogue into downloadable files and
// manages their on-disk lifecycle and signed download tokens.
type ExportService struct {
	store  *storage.LocalStorage
	signer *storage.SignedURLSigner
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
}

// NewExportService constructs ExportService.
func NewExportService(store *storage.LocalStorage, signer *storage.SignedURLSigner) *ExportService {
	return &ExportService{
		store:  store,
		signer: signer,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
	}
}

// Generate renders the papers in the job's format, stores the file, and
// returns a signed download token together with the stored path.
func (s *ExportService) Generate(job *models.ExportJob, papers []models.Paper) (token string, relPath string, err error) {
	dataset := buildPaperDataset(papers)

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Question Paper Catalogue")
	default:
		return "", "", fmt.Errorf("unsupported export format %q", job.Format)
	}
	if err != nil {
		return "", "", fmt.Errorf("render export: %w", err)
	}

	relPath = fmt.Sprintf("%s.%s", job.ID, job.Format)
	if _, err := s.store.Save(relPath, payload); err != nil {
		return "", "", fmt.Errorf("store export: %w", err)
	}

	token, _, err = s.signer.Generate(job.ID, relPath)
	if err != nil {
		return "", "", fmt.Errorf("sign export url: %w", err)
	}
	return token, relPath, nil
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle for a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.store.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.store.Delete(relPath)
}

func buildPaperDataset(papers []models.Paper) export.Dataset {
	headers := []string{"Title", "Level", "Grade", "Subject", "Year", "Avg Rating", "Ratings", "Uploaded"}
	rows := make([]map[string]string, 0, len(papers))
	for _, p := range papers {
		grade := ""
		if p.Grade != nil {
			grade = string(*p.Grade)
		}
		rows = append(rows, map[string]string{
			"Title":      p.Title,
			"Level":      string(p.Level),
			"Grade":      grade,
			"Subject":    p.Subject,
			"Year":       strconv.Itoa(p.Year),
			"Avg Rating": fmt.Sprintf("%.2f", p.AverageRating),
			"Ratings":    strconv.Itoa(p.RatingsCount),
			"Uploaded":   p.CreatedAt.Format("2006-01-02"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
