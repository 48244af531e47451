package repository_test

import (
	"context"
	"testing"
	"time"

	"contactgame/internal/domain"
	"contactgame/internal/record"
	"contactgame/internal/repository"
	"contactgame/internal/store"
)

func newRepo() (*repository.Repository, store.Store) {
	st := store.NewMemStore()
	return repository.New(st, 50*time.Millisecond, 20*time.Millisecond), st
}

func TestCreateRoomMarksFreeRoom(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo()

	room, err := repo.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	free, ok, err := repo.GetFreeRoom(ctx)
	if err != nil {
		t.Fatalf("GetFreeRoom: %v", err)
	}
	if !ok {
		t.Fatal("GetFreeRoom: no free room found after create")
	}
	if free.ID() != room.ID() {
		t.Errorf("free room id = %s, want %s", free.ID(), room.ID())
	}
}

func TestUnfreeClearsPointer(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo()

	room, _ := repo.CreateRoom(ctx)
	if err := repo.Unfree(ctx, room); err != nil {
		t.Fatalf("Unfree: %v", err)
	}

	_, ok, err := repo.GetFreeRoom(ctx)
	if err != nil {
		t.Fatalf("GetFreeRoom: %v", err)
	}
	if ok {
		t.Error("GetFreeRoom still reports a free room after Unfree")
	}
}

func TestAppendPlayerToRoomTracksMembershipAndCount(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo()

	room, _ := repo.CreateRoom(ctx)
	p1, _ := record.Create(ctx, st, domain.NewPlayer, "alice")
	p2, _ := record.Create(ctx, st, domain.NewPlayer, "bob")

	if err := repo.AppendPlayerToRoom(ctx, p1, room); err != nil {
		t.Fatalf("AppendPlayerToRoom p1: %v", err)
	}
	if err := repo.AppendPlayerToRoom(ctx, p2, room); err != nil {
		t.Fatalf("AppendPlayerToRoom p2: %v", err)
	}

	ids, err := repo.PlayerIDs(ctx, room.ID())
	if err != nil {
		t.Fatalf("PlayerIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "alice" || ids[1] != "bob" {
		t.Errorf("PlayerIDs = %v, want [alice bob]", ids)
	}

	if err := record.Refresh(ctx, st, room); err != nil {
		t.Fatalf("Refresh room: %v", err)
	}
	if room.PlayerCount() != 2 {
		t.Errorf("PlayerCount = %d, want 2", room.PlayerCount())
	}

	if err := record.Refresh(ctx, st, p1); err != nil {
		t.Fatalf("Refresh p1: %v", err)
	}
	if p1.RoomID() != room.ID() {
		t.Errorf("p1 RoomID = %s, want %s", p1.RoomID(), room.ID())
	}
}

func TestCheckAnswerRelevance(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo()

	room, _ := repo.CreateRoom(ctx)
	offer, _ := record.Create(ctx, st, domain.NewOffer, "")
	offer.SetAnswerInternal("giraffe")
	if err := record.Save(ctx, st, offer); err != nil {
		t.Fatalf("Save offer: %v", err)
	}

	relevant, err := repo.CheckAnswerRelevance(ctx, "giraffe", room)
	if err != nil {
		t.Fatalf("CheckAnswerRelevance: %v", err)
	}
	if !relevant {
		t.Error("CheckAnswerRelevance = false before any offer processed")
	}

	if err := repo.MarkOfferProcessed(ctx, offer, room); err != nil {
		t.Fatalf("MarkOfferProcessed: %v", err)
	}

	relevant, err = repo.CheckAnswerRelevance(ctx, "giraffe", room)
	if err != nil {
		t.Fatalf("CheckAnswerRelevance after mark: %v", err)
	}
	if relevant {
		t.Error("CheckAnswerRelevance = true for an already-processed answer")
	}
}

func TestDisconnectionGraceWindowAndReconnect(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo()

	player, _ := record.Create(ctx, st, domain.NewPlayer, "carol")

	if err := repo.SetPlayerDisconnected(ctx, player); err != nil {
		t.Fatalf("SetPlayerDisconnected: %v", err)
	}

	disconnected, err := repo.CheckForDisconnectedPlayer(ctx, player)
	if err != nil {
		t.Fatalf("CheckForDisconnectedPlayer: %v", err)
	}
	if !disconnected {
		t.Fatal("CheckForDisconnectedPlayer = false immediately after disconnect")
	}

	if err := repo.DeletePlayerFromDisconnected(ctx, player); err != nil {
		t.Fatalf("DeletePlayerFromDisconnected: %v", err)
	}

	disconnected, err = repo.CheckForDisconnectedPlayer(ctx, player)
	if err != nil {
		t.Fatalf("CheckForDisconnectedPlayer after reconnect: %v", err)
	}
	if disconnected {
		t.Error("CheckForDisconnectedPlayer = true after reconnect cleared the marker")
	}
}

func TestOrderRoomCleaningTearsDownRoom(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo()

	room, _ := repo.CreateRoom(ctx)
	player, _ := record.Create(ctx, st, domain.NewPlayer, "dave")
	if err := repo.AppendPlayerToRoom(ctx, player, room); err != nil {
		t.Fatalf("AppendPlayerToRoom: %v", err)
	}

	cleaning, err := repo.RoomIsCleaning(ctx, room)
	if err != nil {
		t.Fatalf("RoomIsCleaning before order: %v", err)
	}
	if cleaning {
		t.Fatal("RoomIsCleaning = true before OrderRoomCleaning was called")
	}

	repo.OrderRoomCleaning(room)

	deadline := time.Now().Add(2 * time.Second)
	for {
		exists, err := repo.RoomExists(ctx, room)
		if err != nil {
			t.Fatalf("RoomExists: %v", err)
		}
		if !exists {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("room was not torn down within the deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, ok, err := repo.GetFreeRoom(ctx)
	if err != nil {
		t.Fatalf("GetFreeRoom after cleanup: %v", err)
	}
	if ok {
		t.Error("free room pointer still set after the cleaned room was the free room")
	}
}
