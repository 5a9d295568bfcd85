package award

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kaamsetu/kaamsetu-api/internal/models"
	"github.com/kaamsetu/kaamsetu-api/internal/store"
)

type fakeNotifier struct {
	calls []uuid.UUID
	err   error
}

func (f *fakeNotifier) JobWon(ctx context.Context, winnerID uuid.UUID, job *models.Job, bid *models.Bid) error {
	f.calls = append(f.calls, winnerID)
	return f.err
}

type fixture struct {
	store      *store.Store
	notifier   *fakeNotifier
	svc        *Service
	contractor *models.User
	job        *models.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection keeps every session on the same in-memory database.
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := gdb.AutoMigrate(
		&models.User{}, &models.Job{}, &models.Bid{},
		&models.Chat{}, &models.Message{}, &models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	st := store.New(gdb)

	contractor := addUser(t, st, "contractor", models.RoleContractor)
	job := &models.Job{
		ContractorID: contractor.ID,
		Title:        "Borewell pump install",
		Category:     "Plumber",
		StartDate:    time.Now().AddDate(0, 0, 2),
	}
	if err := st.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	n := &fakeNotifier{}
	return &fixture{store: st, notifier: n, svc: New(st, n), contractor: contractor, job: job}
}

var userSeq int

func addUser(t *testing.T, st *store.Store, name string, role models.Role) *models.User {
	t.Helper()
	userSeq++
	email := fmt.Sprintf("%s%d@example.com", name, userSeq)
	phone := fmt.Sprintf("8%09d", userSeq)
	u := &models.User{
		Name:     name,
		Email:    &email,
		Phone:    &phone,
		Role:     role,
		IsActive: true,
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (fx *fixture) addBid(t *testing.T, bidder *models.User, amount int64) *models.Bid {
	t.Helper()
	b := &models.Bid{JobID: fx.job.ID, BidderID: bidder.ID, Amount: amount}
	if err := fx.store.CreateBid(context.Background(), bidder.ID, b); err != nil {
		t.Fatalf("create bid: %v", err)
	}
	return b
}

func TestSelectWinnerTwoBids(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	winner := addUser(t, fx.store, "winner", models.RoleLabour)
	loser := addUser(t, fx.store, "loser", models.RoleLabour)
	winBid := fx.addBid(t, winner, 700)
	loseBid := fx.addBid(t, loser, 900)

	res, err := fx.svc.SelectWinner(ctx, fx.job.ID, winBid.ID, fx.contractor.ID)
	if err != nil {
		t.Fatalf("SelectWinner: %v", err)
	}
	if res.Rejected != 1 || res.NotifyFailed {
		t.Fatalf("result = %+v", res)
	}

	gotWin, _ := fx.store.GetBid(ctx, winBid.ID)
	if gotWin.Status != models.BidStatusAccepted {
		t.Fatalf("winning bid status = %s", gotWin.Status)
	}
	gotLose, _ := fx.store.GetBid(ctx, loseBid.ID)
	if gotLose.Status != models.BidStatusRejected {
		t.Fatalf("losing bid status = %s", gotLose.Status)
	}

	job, _ := fx.store.GetJob(ctx, fx.job.ID)
	if job.Status != models.JobStatusClosed {
		t.Fatalf("job status = %s", job.Status)
	}
	if job.WinnerUserID == nil || *job.WinnerUserID != winner.ID {
		t.Fatalf("job winner = %v, want %s", job.WinnerUserID, winner.ID)
	}
	if job.WinningBidID == nil || *job.WinningBidID != winBid.ID {
		t.Fatalf("job winning bid = %v, want %s", job.WinningBidID, winBid.ID)
	}
	if len(fx.notifier.calls) != 1 || fx.notifier.calls[0] != winner.ID {
		t.Fatalf("notifier calls = %v", fx.notifier.calls)
	}
}

func TestSelectWinnerManyLosers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	winner := addUser(t, fx.store, "winner", models.RoleLabour)
	winBid := fx.addBid(t, winner, 400)
	for i := 0; i < 7; i++ {
		fx.addBid(t, addUser(t, fx.store, "bidder", models.RoleLabour), 500+int64(i))
	}

	res, err := fx.svc.SelectWinner(ctx, fx.job.ID, winBid.ID, fx.contractor.ID)
	if err != nil {
		t.Fatalf("SelectWinner: %v", err)
	}
	if res.Rejected != 7 {
		t.Fatalf("rejected = %d, want 7", res.Rejected)
	}

	bids, _ := fx.store.GetBidsByJob(ctx, fx.job.ID)
	for _, b := range bids {
		want := models.BidStatusRejected
		if b.ID == winBid.ID {
			want = models.BidStatusAccepted
		}
		if b.Status != want {
			t.Fatalf("bid %s status = %s, want %s", b.ID, b.Status, want)
		}
	}
}

func TestSelectWinnerNotOwner(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	bidder := addUser(t, fx.store, "bidder", models.RoleLabour)
	bid := fx.addBid(t, bidder, 250)
	intruder := addUser(t, fx.store, "intruder", models.RoleContractor)

	if _, err := fx.svc.SelectWinner(ctx, fx.job.ID, bid.ID, intruder.ID); err != ErrNotOwner {
		t.Fatalf("SelectWinner error = %v, want ErrNotOwner", err)
	}

	// nothing moved
	job, _ := fx.store.GetJob(ctx, fx.job.ID)
	if job.Status != models.JobStatusActive {
		t.Fatalf("job status = %s, want active", job.Status)
	}
	got, _ := fx.store.GetBid(ctx, bid.ID)
	if got.Status != models.BidStatusPending {
		t.Fatalf("bid status = %s, want pending", got.Status)
	}
	if len(fx.notifier.calls) != 0 {
		t.Fatalf("notifier called on aborted award")
	}
}

func TestSelectWinnerClosedJob(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	bidder := addUser(t, fx.store, "bidder", models.RoleLabour)
	bid := fx.addBid(t, bidder, 250)

	if _, err := fx.svc.SelectWinner(ctx, fx.job.ID, bid.ID, fx.contractor.ID); err != nil {
		t.Fatalf("first award: %v", err)
	}
	if _, err := fx.svc.SelectWinner(ctx, fx.job.ID, bid.ID, fx.contractor.ID); err != ErrJobClosed {
		t.Fatalf("second award error = %v, want ErrJobClosed", err)
	}
}

func TestSelectWinnerBidFromOtherJob(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	other := &models.Job{
		ContractorID: fx.contractor.ID,
		Title:        "Roof sheeting",
		Category:     "Welder",
		StartDate:    time.Now().AddDate(0, 0, 5),
	}
	if err := fx.store.CreateJob(ctx, other); err != nil {
		t.Fatalf("create other job: %v", err)
	}
	bidder := addUser(t, fx.store, "bidder", models.RoleLabour)
	stray := &models.Bid{JobID: other.ID, BidderID: bidder.ID, Amount: 120}
	if err := fx.store.CreateBid(ctx, bidder.ID, stray); err != nil {
		t.Fatalf("create stray bid: %v", err)
	}

	if _, err := fx.svc.SelectWinner(ctx, fx.job.ID, stray.ID, fx.contractor.ID); err != ErrWrongJob {
		t.Fatalf("SelectWinner error = %v, want ErrWrongJob", err)
	}
	job, _ := fx.store.GetJob(ctx, fx.job.ID)
	if job.Status != models.JobStatusActive {
		t.Fatalf("job status = %s, want active", job.Status)
	}
}

func TestSelectWinnerAgentBidResolvesLabourer(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	agent := addUser(t, fx.store, "agent", models.RoleAgent)
	labourer := addUser(t, fx.store, "crewman", models.RoleLabour)
	bid := &models.Bid{JobID: fx.job.ID, BidderID: agent.ID, LabourerID: &labourer.ID, Amount: 600}
	if err := fx.store.CreateBid(ctx, agent.ID, bid); err != nil {
		t.Fatalf("create agent bid: %v", err)
	}

	res, err := fx.svc.SelectWinner(ctx, fx.job.ID, bid.ID, fx.contractor.ID)
	if err != nil {
		t.Fatalf("SelectWinner: %v", err)
	}

	// the job and the notification go to the named labourer, not the agent
	if res.Job.WinnerUserID == nil || *res.Job.WinnerUserID != labourer.ID {
		t.Fatalf("winner = %v, want labourer %s", res.Job.WinnerUserID, labourer.ID)
	}
	if len(fx.notifier.calls) != 1 || fx.notifier.calls[0] != labourer.ID {
		t.Fatalf("notifier calls = %v", fx.notifier.calls)
	}
}

func TestSelectWinnerNotifyFailureKeepsAward(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.notifier.err = errors.New("push gateway down")
	bidder := addUser(t, fx.store, "bidder", models.RoleLabour)
	bid := fx.addBid(t, bidder, 350)

	res, err := fx.svc.SelectWinner(ctx, fx.job.ID, bid.ID, fx.contractor.ID)
	if err != nil {
		t.Fatalf("SelectWinner: %v", err)
	}
	if !res.NotifyFailed {
		t.Fatal("NotifyFailed not set")
	}

	job, _ := fx.store.GetJob(ctx, fx.job.ID)
	if job.Status != models.JobStatusClosed {
		t.Fatalf("job status = %s, award must survive notify failure", job.Status)
	}
}
