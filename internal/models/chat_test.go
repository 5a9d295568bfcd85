package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestChatIDForSymmetric(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	if got, want := ChatIDFor(a, b), ChatIDFor(b, a); got != want {
		t.Fatalf("ChatIDFor order-dependent: %q vs %q", got, want)
	}

	id := ChatIDFor(a, b)
	parts := strings.Split(id, ":")
	if len(parts) != 2 {
		t.Fatalf("id %q does not split into two participants", id)
	}
	if parts[0] > parts[1] {
		t.Fatalf("id %q participants not sorted", id)
	}
}

func TestChatIDForDistinctPairs(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	if ChatIDFor(a, b) == ChatIDFor(a, c) {
		t.Fatal("different pairs produced the same chat id")
	}
}

func TestChatOtherAndHas(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	pa, pb := a, b
	if pb.String() < pa.String() {
		pa, pb = pb, pa
	}
	chat := Chat{ID: ChatIDFor(a, b), ParticipantA: pa, ParticipantB: pb}

	if !chat.Has(a) || !chat.Has(b) {
		t.Fatal("participant not recognised")
	}
	if chat.Has(uuid.New()) {
		t.Fatal("stranger recognised as participant")
	}
	if chat.Other(a) != b {
		t.Fatalf("Other(%s) = %s, want %s", a, chat.Other(a), b)
	}
	if chat.Other(b) != a {
		t.Fatalf("Other(%s) = %s, want %s", b, chat.Other(b), a)
	}
}

func TestBidWinnerID(t *testing.T) {
	bidder := uuid.New()
	labourer := uuid.New()

	direct := Bid{BidderID: bidder}
	if direct.WinnerID() != bidder {
		t.Fatalf("direct bid winner = %s, want bidder", direct.WinnerID())
	}

	viaAgent := Bid{BidderID: bidder, LabourerID: &labourer}
	if viaAgent.WinnerID() != labourer {
		t.Fatalf("agent bid winner = %s, want labourer", viaAgent.WinnerID())
	}
}

func TestRoleCanBid(t *testing.T) {
	if !RoleLabour.CanBid() || !RoleAgent.CanBid() {
		t.Fatal("labour and agent must be able to bid")
	}
	if RoleContractor.CanBid() {
		t.Fatal("contractor must not be able to bid")
	}
}
