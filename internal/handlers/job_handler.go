package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

type JobHandler struct {
	Store      *store.Store
	UploadDir  string
	AppBaseURL string
}

func NewJobHandler(s *store.Store, uploadDir, appBaseURL string) *JobHandler {
	return &JobHandler{Store: s, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

// Create posts a new job. Multipart form so the optional site photo
// can ride along with the fields.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	title := strings.TrimSpace(c.FormValue("title"))
	category := strings.TrimSpace(c.FormValue("category"))
	description := strings.TrimSpace(c.FormValue("description"))

	errs := FieldErrors{}
	if title == "" {
		errs.Add("title", "Title is required")
	}
	if category == "" {
		errs.Add("category", "Category is required")
	}

	startDate, err := time.Parse("2006-01-02", c.FormValue("start_date"))
	if err != nil {
		startDate = time.Now()
	}

	lat, errLat := strconv.ParseFloat(c.FormValue("latitude"), 64)
	lng, errLng := strconv.ParseFloat(c.FormValue("longitude"), 64)
	if errLat != nil || errLng != nil {
		errs.Add("location", "Latitude and longitude are required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	job := models.Job{
		ContractorID: uid,
		Title:        title,
		Category:     category,
		Description:  description,
		StartDate:    startDate,
		Latitude:     lat,
		Longitude:    lng,
		Status:       models.JobStatusActive,
	}

	// optional site photo; the job still posts when the save fails
	if file, err := c.FormFile("image"); err == nil {
		if file.Size > 10*1024*1024 {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Image exceeds 10MB limit"})
		}
		if publicPath, err := h.saveJobImage(c, file); err != nil {
			log.Println("job: save image failed:", err)
		} else {
			job.ImageURL = publicPath
			attachments, _ := json.Marshal(map[string]interface{}{"images": []string{publicPath}})
			job.Attachments = datatypes.JSON(attachments)
		}
	}

	if err := h.Store.CreateJob(c.Context(), &job); err != nil {
		log.Println("job: create failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create job"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": job})
}

// saveJobImage stores an uploaded site photo under the upload dir and
// returns its public URL.
func (h *JobHandler) saveJobImage(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	filename := uuid.New().String() + filepath.Ext(file.Filename)
	dir := filepath.Join(h.UploadDir, "jobs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return "", err
	}
	publicPath := "/uploads/jobs/" + filename
	if h.AppBaseURL != "" {
		publicPath = strings.TrimRight(h.AppBaseURL, "/") + publicPath
	}
	return publicPath, nil
}

// ListActive returns every open job, newest first.
func (h *JobHandler) ListActive(c *fiber.Ctx) error {
	jobs, err := h.Store.GetActiveJobs(c.Context())
	if err != nil {
		log.Println("job: list failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch jobs"})
	}
	return c.JSON(fiber.Map{"success": true, "data": jobs})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
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
	return c.JSON(fiber.Map{"success": true, "data": job})
}

// Mine returns the calling contractor's jobs.
func (h *JobHandler) Mine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobs, err := h.Store.GetJobsByContractor(c.Context(), uid)
	if err != nil {
		log.Println("job: list mine failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch jobs"})
	}
	return c.JSON(fiber.Map{"success": true, "data": jobs})
}
