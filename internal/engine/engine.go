package engine

import (
	"context"
	"strings"

	"contactgame/internal/domain"
	"contactgame/internal/record"
	"contactgame/internal/repository"
	"contactgame/internal/store"
)

// Engine is one player's game brain: constructed fresh per connection,
// it owns that player's Player record and the Room it currently sits
// in. All its methods run straight-line synchronous; delayed actions
// go through Delegate, and the only other asynchrony is the room
// cleanup goroutine started by Repository.OrderRoomCleaning.
type Engine struct {
	st       store.Store
	repo     *repository.Repository
	delegate Delegate
	cfg      Config

	Player   *domain.Player
	Room     *domain.Room
	Restored bool
}

// New constructs an Engine for username, loading or creating its
// Player record. Restored reports whether the player already existed
// (a reconnect) as opposed to a brand-new player.
func New(ctx context.Context, st store.Store, repo *repository.Repository, delegate Delegate, cfg Config, username string) (*Engine, error) {
	player, created, err := record.GetOrCreate(ctx, st, username, domain.NewPlayer)
	if err != nil {
		return nil, err
	}
	return &Engine{
		st:       st,
		repo:     repo,
		delegate: delegate,
		cfg:      cfg,
		Player:   player,
		Restored: !created,
	}, nil
}

// InitialEvent is the lifecycle event a freshly connected SessionHub
// should announce: CONTINUE for a reconnecting player, START for one
// just filling a room.
func (e *Engine) InitialEvent() Event {
	if e.Restored {
		return EventContinue
	}
	return EventStart
}

// InitialInformation refreshes room/player state and returns the
// room's full public snapshot (including offers), for the initial
// message sent on connect.
func (e *Engine) InitialInformation(ctx context.Context) (map[string]any, error) {
	if err := e.Refresh(ctx); err != nil {
		return nil, err
	}
	return e.roomSnapshot(ctx)
}

// Refresh re-reads both the room and player records from the store.
func (e *Engine) Refresh(ctx context.Context) error {
	if err := record.Refresh(ctx, e.st, e.Room); err != nil {
		return err
	}
	return record.Refresh(ctx, e.st, e.Player)
}

// selectHost elects the first player in the room's insertion-ordered
// player list as host, deterministic per spec's normalization of the
// source's random-vs-first-in-list inconsistency.
func (e *Engine) selectHost(ctx context.Context, room *domain.Room) (string, error) {
	ids, err := e.repo.PlayerIDs(ctx, room.ID())
	if err != nil {
		return "", err
	}
	hostID := ids[0]
	host, found, err := record.GetByID(ctx, e.st, hostID, domain.NewPlayer)
	if err != nil {
		return "", err
	}
	if !found {
		host = domain.NewPlayer(hostID)
	}
	host.SetIsHost(true)
	if err := record.Save(ctx, e.st, host); err != nil {
		return "", err
	}
	return hostID, nil
}

// AppendUserToGame is the matchmaker: a restored player rejoins their
// existing room; a new player takes the free room (or creates one),
// and the engine promotes the room to full and elects a host the
// moment it reaches PlayersPerRoom.
func (e *Engine) AppendUserToGame(ctx context.Context) (*domain.Room, error) {
	var room *domain.Room

	if e.Restored {
		if err := e.repo.DeletePlayerFromDisconnected(ctx, e.Player); err != nil {
			return nil, err
		}
		r, found, err := record.GetByID(ctx, e.st, e.Player.RoomID(), domain.NewRoom)
		if err != nil {
			return nil, err
		}
		if !found {
			r = domain.NewRoom(e.Player.RoomID())
		}
		room = r
	} else {
		free, found, err := e.repo.GetFreeRoom(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			free, err = e.repo.CreateRoom(ctx)
			if err != nil {
				return nil, err
			}
		}
		room = free

		if err := e.repo.AppendPlayerToRoom(ctx, e.Player, room); err != nil {
			return nil, err
		}
		if err := record.Refresh(ctx, e.st, room); err != nil {
			return nil, err
		}

		if room.PlayerCount() == e.cfg.PlayersPerRoom {
			hostID, err := e.selectHost(ctx, room)
			if err != nil {
				return nil, err
			}
			room.SetHostID(hostID)
			if err := e.repo.Unfree(ctx, room); err != nil {
				return nil, err
			}
			room.SetIsFull(true)
			if err := record.Save(ctx, e.st, room); err != nil {
				return nil, err
			}
			e.delegate.OrderDelayedAction(e.cfg.GameTimeLimit, EventFinish, map[string]any{
				"reason": domain.FinishTimeExpired,
			})
		}
	}

	e.Room = room
	return room, nil
}

// DisconnectPlayer runs on socket close: if the room is already full
// (the game is live) and not already mid-cleanup, it schedules the
// disconnection FINISH and marks the player disconnected so a timely
// reconnect can cancel it.
func (e *Engine) DisconnectPlayer(ctx context.Context) error {
	if err := record.Refresh(ctx, e.st, e.Room); err != nil {
		return err
	}
	if !e.Room.IsFull() {
		return nil
	}
	cleaning, err := e.repo.RoomIsCleaning(ctx, e.Room)
	if err != nil {
		return err
	}
	exists, err := e.repo.RoomExists(ctx, e.Room)
	if err != nil {
		return err
	}
	if !cleaning && exists {
		e.delegate.OrderDelayedAction(e.cfg.PlayerDisconnectionAwaitingTime, EventFinish, map[string]any{
			"reason": domain.FinishDisconnection,
		})
	}
	return e.repo.SetPlayerDisconnected(ctx, e.Player)
}

// roomSnapshot returns the room's public projection with its offers
// expanded to their own public projections, matching common_data's
// shape.
func (e *Engine) roomSnapshot(ctx context.Context) (map[string]any, error) {
	offerIDs, err := e.repo.OfferIDs(ctx, e.Room.ID())
	if err != nil {
		return nil, err
	}
	offers := make([]map[string]any, 0, len(offerIDs))
	for _, id := range offerIDs {
		offer, found, err := record.GetByID(ctx, e.st, id, domain.NewOffer)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		offers = append(offers, offer.PublicData())
	}

	snapshot := e.Room.PublicData()
	snapshot["offers"] = offers
	return snapshot, nil
}

// PerformAction refreshes room state, dispatches event against data,
// and (for events other than FINISH-silenced cases) returns the
// resulting room snapshot, or the player's own public data for
// PLAYER_STATE. A returned *Error is a player-facing rule
// or action violation; ErrSilentNoBroadcast means the action
// completed but must emit nothing.
func (e *Engine) PerformAction(ctx context.Context, event Event, data map[string]any) (map[string]any, error) {
	if err := record.Refresh(ctx, e.st, e.Room); err != nil {
		return nil, err
	}

	if event == EventPlayerState {
		if err := record.Refresh(ctx, e.st, e.Player); err != nil {
			return nil, err
		}
		return e.Player.PublicData(), nil
	}

	var err error
	switch event {
	case EventSetWord:
		err = e.actionSetWord(ctx, stringArg(data, "word"))
	case EventOffer:
		err = e.actionOffer(ctx, stringArg(data, "answer"), stringArg(data, "definition"))
	case EventOfferComment:
		err = e.actionCommentOffer(ctx, stringArg(data, "offerId"), stringArg(data, "commentText"))
	case EventCancelContact:
		err = e.actionCancel(ctx, stringArg(data, "offerId"), stringArg(data, "estimatedWord"))
	case EventContact:
		err = e.actionAcceptOffer(ctx, stringArg(data, "offerId"), stringArg(data, "estimatedWord"))
	case EventContactResult:
		err = e.actionContactResult(ctx)
	case EventFinish:
		err = e.actionFinishGame(ctx, stringArg(data, "reason"))
	default:
		return nil, ruleError("unknown action: " + string(event))
	}
	if err != nil {
		return nil, err
	}

	return e.roomSnapshot(ctx)
}

func stringArg(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func lower(s string) string { return strings.ToLower(s) }
