// Package notify persists notifications and fans them out over redis
// pub/sub and the websocket hub. Delivery is best effort: a failed
// publish is logged, never retried.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/realtime"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

type Service struct {
	Store *store.Store
	RDB   *redis.Client
	Hub   *realtime.Hub
}

func New(s *store.Store, rdb *redis.Client, hub *realtime.Hub) *Service {
	return &Service{Store: s, RDB: rdb, Hub: hub}
}

// JobWon records and pushes the award notification to the resolved
// winner. The notification row is the durable part; pub/sub and hub
// pushes are fire-and-forget.
func (s *Service) JobWon(ctx context.Context, winnerID uuid.UUID, job *models.Job, bid *models.Bid) error {
	n := models.Notification{
		UserID:      winnerID,
		Kind:        models.NotificationJobWon,
		Title:       "You won a job",
		Body:        fmt.Sprintf("Your bid of %d on %q was accepted.", bid.Amount, job.Title),
		ReferenceID: job.ID.String(),
	}
	if err := s.Store.SaveNotification(ctx, &n); err != nil {
		return err
	}

	s.publish(ctx, winnerID, map[string]interface{}{
		"type":   "job_won",
		"job_id": job.ID.String(),
		"bid_id": bid.ID.String(),
		"title":  n.Title,
		"body":   n.Body,
	})
	return nil
}

// NewBid tells a contractor that a bid landed on their job.
func (s *Service) NewBid(ctx context.Context, job *models.Job, bid *models.Bid) error {
	n := models.Notification{
		UserID:      job.ContractorID,
		Kind:        models.NotificationNewBid,
		Title:       "New bid received",
		Body:        fmt.Sprintf("A bid of %d was placed on %q.", bid.Amount, job.Title),
		ReferenceID: bid.ID.String(),
	}
	if err := s.Store.SaveNotification(ctx, &n); err != nil {
		return err
	}

	s.publish(ctx, job.ContractorID, map[string]interface{}{
		"type":   "new_bid",
		"job_id": job.ID.String(),
		"bid_id": bid.ID.String(),
		"title":  n.Title,
	})
	return nil
}

func (s *Service) publish(ctx context.Context, userID uuid.UUID, payload map[string]interface{}) {
	s.Hub.SendToUser(userID, payload)

	b, err := json.Marshal(payload)
	if err != nil {
		log.Println("notify: marshal error:", err)
		return
	}
	if err := s.RDB.Publish(ctx, "notifications:"+userID.String(), b).Err(); err != nil {
		log.Println("notify: redis publish failed:", err)
	}
}
