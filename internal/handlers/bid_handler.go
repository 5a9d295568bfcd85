package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/kaamsetu/kaamsetu-api/internal/award"
	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/notify"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

type BidHandler struct {
	Store  *store.Store
	Award  *award.Service
	Notify *notify.Service
}

func NewBidHandler(s *store.Store, aw *award.Service, n *notify.Service) *BidHandler {
	return &BidHandler{Store: s, Award: aw, Notify: n}
}

type CreateBidReq struct {
	Amount     int64  `json:"amount"`
	LabourerID string `json:"labourer_id"` // set when an agent bids for a labourer
}

// Create places a bid on a job. The store enforces the full
// precondition chain; anything it rejects surfaces as one generic
// precondition message.
func (h *BidHandler) Create(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}

	var req CreateBidReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid body"})
	}
	if req.Amount <= 0 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Amount must be positive"})
	}

	bid := models.Bid{
		JobID:    jobID,
		BidderID: uid,
		Amount:   req.Amount,
	}
	if req.LabourerID != "" {
		labourerID, err := uuid.Parse(req.LabourerID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid labourer ID"})
		}
		bid.LabourerID = &labourerID
	}

	if err := h.Store.CreateBid(c.Context(), uid, &bid); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
		case errors.Is(err, store.ErrJobClosed),
			errors.Is(err, store.ErrNotBidder),
			errors.Is(err, store.ErrBadAmount),
			errors.Is(err, store.ErrRoleNotAllowed):
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Bid could not be placed"})
		}
		log.Println("bid: create failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to place bid"})
	}

	// tell the contractor; best effort
	if job, err := h.Store.GetJob(c.Context(), jobID); err == nil {
		if err := h.Notify.NewBid(c.Context(), job, &bid); err != nil {
			log.Println("bid: contractor notification failed:", err)
		}
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": bid})
}

// ByJob lists a job's bids, newest first. Only the job owner sees
// other people's bids; a bidder sees just their own.
func (h *BidHandler) ByJob(c *fiber.Ctx) error {
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
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
	}

	bids, err := h.Store.GetBidsByJob(c.Context(), jobID)
	if err != nil {
		log.Println("bid: list failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch bids"})
	}

	if job.ContractorID != uid {
		own := bids[:0]
		for _, b := range bids {
			if b.BidderID == uid {
				own = append(own, b)
			}
		}
		bids = own
	}

	return c.JSON(fiber.Map{"success": true, "data": bids})
}

// Mine lists the caller's bids across jobs.
func (h *BidHandler) Mine(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	bids, err := h.Store.GetBidsByBidder(c.Context(), uid)
	if err != nil {
		log.Println("bid: list mine failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch bids"})
	}
	return c.JSON(fiber.Map{"success": true, "data": bids})
}

// SelectWinner runs the award workflow for one bid.
func (h *BidHandler) SelectWinner(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid job ID"})
	}
	bidID, err := uuid.Parse(c.Params("bidId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid bid ID"})
	}

	res, err := h.Award.SelectWinner(c.Context(), jobID, bidID, uid)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"success": false, "message": "Job not found"})
		case errors.Is(err, award.ErrNotOwner):
			return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only the job owner can select a winner"})
		case errors.Is(err, award.ErrJobClosed), errors.Is(err, store.ErrConflict):
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Job is already closed"})
		case errors.Is(err, award.ErrWrongJob), errors.Is(err, award.ErrBidNotOpen):
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Bid cannot be selected"})
		}
		log.Println("award: select winner failed:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to select winner"})
	}

	msg := "Winner selected"
	if res.NotifyFailed {
		// the award stands even when the notification does not go out
		msg = "Winner selected, but the winner could not be notified"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data": fiber.Map{
			"job":      res.Job,
			"bid":      res.WinningBid,
			"rejected": res.Rejected,
		},
	})
}
