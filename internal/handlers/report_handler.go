package handlers

import (
	"errors"
	"log"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/report"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

type ReportHandler struct {
	Store     *store.Store
	UploadDir string
}

func NewReportHandler(s *store.Store, uploadDir string) *ReportHandler {
	return &ReportHandler{Store: s, UploadDir: uploadDir}
}

// Export writes the summary file for a closed job the caller owns and
// returns where it landed.
func (h *ReportHandler) Export(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	job, err := h.Store.GetJob(c.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
		}
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch job"})
	}
	if job.ContractorID != uid {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}
	if job.Status != models.JobStatusClosed {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Report is only available for closed jobs"})
	}

	bids, err := h.Store.GetBidsByJob(c.Context(), jobID)
	if err != nil {
		log.Println("report: fetch bids failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch bids"})
	}

	ids := make([]uuid.UUID, 0, len(bids)+1)
	for _, b := range bids {
		ids = append(ids, b.BidderID)
	}
	if job.WinnerUserID != nil {
		ids = append(ids, *job.WinnerUserID)
	}
	names, err := h.Store.GetUsersByIDs(c.Context(), ids)
	if err != nil {
		log.Println("report: resolve names failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to resolve names"})
	}

	path, err := report.Write(filepath.Join(h.UploadDir, "reports"), job, bids, names)
	if err != nil {
		log.Println("report: write failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to write report"})
	}

	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"path": path}})
}
