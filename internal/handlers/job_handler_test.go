package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func jobTestApp(h *JobHandler, uid uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Post("/jobs", func(c *fiber.Ctx) error {
		c.Locals("userId", uid)
		return c.Next()
	}, h.Create)
	return app
}

func jobForm(t *testing.T, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fields := map[string]string{
		"title":      "Tile the bathroom floor",
		"category":   "Mason",
		"start_date": "2026-09-20",
		"latitude":   "12.97160",
		"longitude":  "77.59460",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if withImage {
		fw, err := w.CreateFormFile("image", "site.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("jpeg-bytes"))
	}
	w.Close()
	return body, w.FormDataContentType()
}

func TestJobCreateWithImage(t *testing.T) {
	st := newWSTestStore(t)
	contractor := wsTestUser(t, st, "builder")
	uploadDir := t.TempDir()
	h := NewJobHandler(st, uploadDir, "")
	app := jobTestApp(h, contractor.ID)

	body, contentType := jobForm(t, true)
	req := httptest.NewRequest("POST", "/jobs", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	jobs, err := st.GetJobsByContractor(context.Background(), contractor.ID)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("jobs = %v, %v", jobs, err)
	}
	if jobs[0].ImageURL == "" {
		t.Fatal("image URL not recorded")
	}
	saved, err := os.ReadDir(filepath.Join(uploadDir, "jobs"))
	if err != nil || len(saved) != 1 {
		t.Fatalf("saved files = %v, %v", saved, err)
	}
}

func TestJobCreateSurvivesUnwritableUploadDir(t *testing.T) {
	st := newWSTestStore(t)
	contractor := wsTestUser(t, st, "builder")

	// a regular file where the upload dir should be makes MkdirAll fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	h := NewJobHandler(st, blocker, "")
	app := jobTestApp(h, contractor.ID)

	body, contentType := jobForm(t, true)
	req := httptest.NewRequest("POST", "/jobs", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("status = %d, job should post without the image", resp.StatusCode)
	}

	jobs, err := st.GetJobsByContractor(context.Background(), contractor.ID)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("jobs = %v, %v", jobs, err)
	}
	if jobs[0].ImageURL != "" {
		t.Fatalf("image URL = %q, want empty after failed save", jobs[0].ImageURL)
	}
}
