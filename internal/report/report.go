// Package report renders a closed job as a plain-text summary file.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
)

// Build renders the summary: header, job fields, the winning bid with
// resolved names, then one line per bid. names maps user ids to
// profiles; unknown bidders fall back to their id.
func Build(job *models.Job, bids []models.Bid, names map[uuid.UUID]models.User) string {
	var b strings.Builder

	b.WriteString("JOB REPORT\n")
	b.WriteString("==========\n\n")
	fmt.Fprintf(&b, "Job: %s\n", job.Title)
	fmt.Fprintf(&b, "Category: %s\n", job.Category)
	fmt.Fprintf(&b, "Status: %s\n", job.Status)
	fmt.Fprintf(&b, "Start date: %s\n", job.StartDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Location: %.5f, %.5f\n", job.Latitude, job.Longitude)

	var winner *models.Bid
	if job.WinningBidID != nil {
		for i := range bids {
			if bids[i].ID == *job.WinningBidID {
				winner = &bids[i]
				break
			}
		}
	}
	if winner != nil {
		fmt.Fprintf(&b, "Winner: %s (bid %d)\n", displayName(winner.BidderID, names), winner.Amount)
		if job.WinnerUserID != nil && *job.WinnerUserID != winner.BidderID {
			// agent bid, resolved to the labourer
			fmt.Fprintf(&b, "Assigned labourer: %s\n", displayName(*job.WinnerUserID, names))
		}
	}

	b.WriteString("\nBids:\n")
	for _, bid := range bids {
		line := fmt.Sprintf("- %s: %d", displayName(bid.BidderID, names), bid.Amount)
		if winner != nil && bid.ID == winner.ID {
			line += " [WINNER]"
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

// Write stores the rendered report under dir and returns its path.
func Write(dir string, job *models.Job, bids []models.Bid, names map[uuid.UUID]models.User) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("job-%s-%s.txt", job.ID, time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(Build(job, bids, names)), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func displayName(id uuid.UUID, names map[uuid.UUID]models.User) string {
	if u, ok := names[id]; ok && u.Name != "" {
		return u.Name
	}
	return id.String()
}
