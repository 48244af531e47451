// Package repository wires the Player/Room/Offer records to the
// room-scoped collections and process-wide markers that live outside
// any single hash: the free-room pointer, player/offer membership
// lists, the processed-answers set, and the disconnection/cleaning
// flags.
package repository

import (
	"context"
	"fmt"
	"time"

	"contactgame/internal/domain"
	"contactgame/internal/logger"
	"contactgame/internal/record"
	"contactgame/internal/store"
)

const (
	freeRoomKey              = "free_room"
	playersRoomPrefix        = "players:room"
	offersRoomPrefix         = "offers:room"
	processedOffersPrefix    = "offers:processed:room"
	disconnectionKeyPrefix   = "disconnection"
	cleaningRoomKeyPrefix    = "cleaning:room"
	disconnectionMarkerValue = "1"
	cleaningMarkerValue      = "1"
)

// Repository is the room-scoped collection layer sitting on top of
// store.Store and the record package's per-object hashes.
type Repository struct {
	st           store.Store
	cleanupDelay time.Duration
	graceWindow  time.Duration
}

func New(st store.Store, cleanupDelay, graceWindow time.Duration) *Repository {
	return &Repository{st: st, cleanupDelay: cleanupDelay, graceWindow: graceWindow}
}

func playersListKey(roomID string) string { return fmt.Sprintf("%s:%s", playersRoomPrefix, roomID) }
func offersListKey(roomID string) string  { return fmt.Sprintf("%s:%s", offersRoomPrefix, roomID) }
func processedOffersKey(roomID string) string {
	return fmt.Sprintf("%s:%s", processedOffersPrefix, roomID)
}
func disconnectionKey(playerID string) string {
	return fmt.Sprintf("%s:%s", disconnectionKeyPrefix, playerID)
}
func cleaningRoomKey(roomID string) string {
	return fmt.Sprintf("%s:%s", cleaningRoomKeyPrefix, roomID)
}

// GetFreeRoom returns the single room currently accepting players, if
// any such room has been recorded.
func (r *Repository) GetFreeRoom(ctx context.Context) (*domain.Room, bool, error) {
	id, err := r.st.Get(ctx, freeRoomKey)
	if err != nil {
		return nil, false, err
	}
	if id == "" {
		return nil, false, nil
	}
	return record.GetByID(ctx, r.st, id, domain.NewRoom)
}

// CreateRoom creates a brand new room and marks it as the free room.
func (r *Repository) CreateRoom(ctx context.Context) (*domain.Room, error) {
	room, err := record.Create(ctx, r.st, domain.NewRoom, "")
	if err != nil {
		return nil, err
	}
	if err := r.st.Set(ctx, freeRoomKey, room.ID(), 0); err != nil {
		return nil, err
	}
	return room, nil
}

// Unfree clears the free-room pointer once room is no longer
// accepting players.
func (r *Repository) Unfree(ctx context.Context, room *domain.Room) error {
	return r.st.Del(ctx, freeRoomKey)
}

// AppendPlayerToRoom assigns player to room, persists the player, and
// bumps room's player count.
func (r *Repository) AppendPlayerToRoom(ctx context.Context, player *domain.Player, room *domain.Room) error {
	player.SetRoomID(room.ID())
	if err := record.Save(ctx, r.st, player); err != nil {
		return err
	}
	if err := record.IncrementField(ctx, r.st, room, "player_count", 1); err != nil {
		return err
	}
	return r.st.RPush(ctx, playersListKey(room.ID()), player.ID())
}

// PlayerIDs returns every player id ever appended to room.
func (r *Repository) PlayerIDs(ctx context.Context, roomID string) ([]string, error) {
	return r.st.LRange(ctx, playersListKey(roomID))
}

// AppendOfferToRoom records offer's id in room's offer log.
func (r *Repository) AppendOfferToRoom(ctx context.Context, offer *domain.Offer, room *domain.Room) error {
	return r.st.RPush(ctx, offersListKey(room.ID()), offer.ID())
}

// OfferIDs returns every offer id currently logged against room.
func (r *Repository) OfferIDs(ctx context.Context, roomID string) ([]string, error) {
	return r.st.LRange(ctx, offersListKey(roomID))
}

// MarkOfferProcessed records an offer's internal answer as already
// guessed, so a later offer can't reuse the same answer.
func (r *Repository) MarkOfferProcessed(ctx context.Context, offer *domain.Offer, room *domain.Room) error {
	return r.st.SAdd(ctx, processedOffersKey(room.ID()), offer.AnswerInternal())
}

// CheckAnswerRelevance reports whether answer has not already been
// guessed correctly in room.
func (r *Repository) CheckAnswerRelevance(ctx context.Context, answer string, room *domain.Room) (bool, error) {
	seen, err := r.st.SIsMember(ctx, processedOffersKey(room.ID()), answer)
	if err != nil {
		return false, err
	}
	return !seen, nil
}

// disconnectionMarkerSlack keeps the disconnection marker alive a
// little past the delayed FINISH(disconnection) action's own delay,
// so that action's re-check of the marker isn't racing its expiry.
const disconnectionMarkerSlack = 5 * time.Second

// SetPlayerDisconnected marks player as disconnected for the
// reconnection grace window.
func (r *Repository) SetPlayerDisconnected(ctx context.Context, player *domain.Player) error {
	return r.st.Set(ctx, disconnectionKey(player.ID()), disconnectionMarkerValue, r.graceWindow+disconnectionMarkerSlack)
}

// CheckForDisconnectedPlayer reports whether player is still within
// its reconnection grace window.
func (r *Repository) CheckForDisconnectedPlayer(ctx context.Context, player *domain.Player) (bool, error) {
	return r.st.Exists(ctx, disconnectionKey(player.ID()))
}

// DeletePlayerFromDisconnected clears player's disconnection marker,
// the reconnect path.
func (r *Repository) DeletePlayerFromDisconnected(ctx context.Context, player *domain.Player) error {
	return r.st.Del(ctx, disconnectionKey(player.ID()))
}

// RoomIsCleaning reports whether room is mid-teardown.
func (r *Repository) RoomIsCleaning(ctx context.Context, room *domain.Room) (bool, error) {
	return r.st.Exists(ctx, cleaningRoomKey(room.ID()))
}

// RoomExists reports whether room's hash is currently stored; it turns
// false once room cleanup has deleted it.
func (r *Repository) RoomExists(ctx context.Context, room *domain.Room) (bool, error) {
	return record.Exists(ctx, r.st, room.Schema(), room.ID())
}

// ClearOffers deletes every offer hash and the offer log of room,
// leaving the room itself intact. Run at a successful contact so the
// next round starts with an empty offer board.
func (r *Repository) ClearOffers(ctx context.Context, room *domain.Room) error {
	offerIDs, err := r.OfferIDs(ctx, room.ID())
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(offerIDs)+1)
	for _, id := range offerIDs {
		keys = append(keys, "offer:"+id)
	}
	keys = append(keys, offersListKey(room.ID()))
	return r.st.Del(ctx, keys...)
}

// OrderRoomCleaning schedules room's full teardown after the
// configured cleanup delay, run as a detached goroutine so the caller
// (an Engine action) never blocks on it.
func (r *Repository) OrderRoomCleaning(room *domain.Room) {
	go func() {
		cleanCtx := context.Background()
		if err := r.st.Set(cleanCtx, cleaningRoomKey(room.ID()), cleaningMarkerValue, 0); err != nil {
			logger.Error("repository: mark room cleaning failed", "room", room.ID(), "err", err)
			return
		}

		time.Sleep(r.cleanupDelay)

		if err := r.cleanRoom(cleanCtx, room); err != nil {
			logger.Error("repository: room cleanup failed", "room", room.ID(), "err", err)
		}
	}()
}

func (r *Repository) cleanRoom(ctx context.Context, room *domain.Room) error {
	offerIDs, err := r.OfferIDs(ctx, room.ID())
	if err != nil {
		return err
	}
	playerIDs, err := r.PlayerIDs(ctx, room.ID())
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(offerIDs)+len(playerIDs)+4)
	for _, id := range offerIDs {
		keys = append(keys, "offer:"+id)
	}
	for _, id := range playerIDs {
		keys = append(keys, "player:"+id)
	}
	keys = append(keys,
		fmt.Sprintf("room:%s", room.ID()),
		offersListKey(room.ID()),
		playersListKey(room.ID()),
		processedOffersKey(room.ID()),
	)
	if err := r.st.Del(ctx, keys...); err != nil {
		return err
	}

	current, err := r.st.Get(ctx, freeRoomKey)
	if err != nil {
		return err
	}
	if current == room.ID() {
		if err := r.st.Del(ctx, freeRoomKey); err != nil {
			return err
		}
	}

	return r.st.Del(ctx, cleaningRoomKey(room.ID()))
}
