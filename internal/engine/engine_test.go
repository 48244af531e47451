package engine_test

import (
	"context"
	"testing"
	"time"

	"contactgame/internal/domain"
	"contactgame/internal/engine"
	"contactgame/internal/record"
	"contactgame/internal/repository"
	"contactgame/internal/store"
)

// fakeDelegate records every scheduled delayed action instead of
// actually waiting, so boundary scenarios can trigger the delayed step
// by hand.
type fakeDelegate struct {
	scheduled []scheduledAction
}

type scheduledAction struct {
	after time.Duration
	event engine.Event
	args  map[string]any
}

func (f *fakeDelegate) OrderDelayedAction(after time.Duration, event engine.Event, args map[string]any) {
	f.scheduled = append(f.scheduled, scheduledAction{after: after, event: event, args: args})
}

func (f *fakeDelegate) last() (scheduledAction, bool) {
	if len(f.scheduled) == 0 {
		return scheduledAction{}, false
	}
	return f.scheduled[len(f.scheduled)-1], true
}

func testConfig() engine.Config {
	return engine.Config{
		GameTimeLimit:                   time.Minute,
		ContactAwaitingTime:             time.Second,
		PlayerDisconnectionAwaitingTime: time.Second,
		PlayersPerRoom:                  3,
	}
}

func newEngine(t *testing.T, ctx context.Context, st store.Store, repo *repository.Repository, delegate engine.Delegate, username string) *engine.Engine {
	t.Helper()
	e, err := engine.New(ctx, st, repo, delegate, testConfig(), username)
	if err != nil {
		t.Fatalf("engine.New(%s): %v", username, err)
	}
	if _, err := e.AppendUserToGame(ctx); err != nil {
		t.Fatalf("AppendUserToGame(%s): %v", username, err)
	}
	return e
}

// TestMatchmakingFillsRoomAndElectsHost covers S1: three players join
// in sequence, the room becomes full on the third, the first player to
// join is elected host, and a game-time-limit FINISH is scheduled.
func TestMatchmakingFillsRoomAndElectsHost(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	repo := repository.New(st, 10*time.Millisecond, 10*time.Millisecond)
	delegate := &fakeDelegate{}

	e1 := newEngine(t, ctx, st, repo, delegate, "alice")
	if e1.Room.IsFull() {
		t.Fatal("room reported full after only one player joined")
	}

	e2 := newEngine(t, ctx, st, repo, delegate, "bob")
	if e2.Room.IsFull() {
		t.Fatal("room reported full after only two players joined")
	}

	e3 := newEngine(t, ctx, st, repo, delegate, "carol")
	if !e3.Room.IsFull() {
		t.Fatal("room not full after three players joined")
	}
	if e3.Room.ID() != e1.Room.ID() {
		t.Fatal("third player landed in a different room than the first two")
	}
	if e3.Room.HostID() != "alice" {
		t.Errorf("host = %s, want alice (first to join)", e3.Room.HostID())
	}

	action, ok := delegate.last()
	if !ok {
		t.Fatal("no delayed action scheduled on room fill")
	}
	if action.event != engine.EventFinish || action.args["reason"] != domain.FinishTimeExpired {
		t.Errorf("scheduled action = %+v, want FINISH/timeExpired", action)
	}
}

// roomOf3 builds a full three-player room and returns each player's
// Engine plus the shared delegate.
func roomOf3(t *testing.T, ctx context.Context) (host, p2, p3 *engine.Engine, st store.Store, repo *repository.Repository, delegate *fakeDelegate) {
	t.Helper()
	st = store.NewMemStore()
	repo = repository.New(st, 10*time.Millisecond, 10*time.Millisecond)
	delegate = &fakeDelegate{}

	host = newEngine(t, ctx, st, repo, delegate, "host")
	p2 = newEngine(t, ctx, st, repo, delegate, "p2")
	p3 = newEngine(t, ctx, st, repo, delegate, "p3")
	return
}

// TestHappyWordReveal covers S2: the host sets the word, a guesser
// offers a fitting answer, another player accepts it, and the delayed
// CONTACT_RESULT confirms the guess, crediting points and opening the
// next letter.
func TestHappyWordReveal(t *testing.T) {
	ctx := context.Background()
	host, p2, p3, st, repo, delegate := roomOf3(t, ctx)

	if _, err := host.PerformAction(ctx, engine.EventSetWord, map[string]any{"word": "giraffe"}); err != nil {
		t.Fatalf("host SET_WORD: %v", err)
	}

	if _, err := p2.PerformAction(ctx, engine.EventOffer, map[string]any{"answer": "g", "definition": "tall animal"}); err != nil {
		t.Fatalf("p2 OFFER: %v", err)
	}

	if err := record.Refresh(ctx, st, p2.Room); err != nil {
		t.Fatalf("refresh room: %v", err)
	}

	ids, err := listOfferIDs(ctx, st, p2.Room.ID())
	if err != nil {
		t.Fatalf("listOfferIDs: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("offer count = %d, want 1", len(ids))
	}
	offerID := ids[0]

	if _, err := p3.PerformAction(ctx, engine.EventContact, map[string]any{"offerId": offerID, "estimatedWord": "g"}); err != nil {
		t.Fatalf("p3 CONTACT: %v", err)
	}

	action, ok := delegate.last()
	if !ok || action.event != engine.EventContactResult {
		t.Fatalf("no CONTACT_RESULT scheduled, got %+v ok=%v", action, ok)
	}

	if _, err := p3.PerformAction(ctx, engine.EventContactResult, nil); err != nil {
		t.Fatalf("CONTACT_RESULT: %v", err)
	}

	_, found, err := record.GetByID(ctx, st, offerID, domain.NewOffer)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	if found {
		t.Error("contacted offer record still stored after a successful contact")
	}
	relevant, err := repo.CheckAnswerRelevance(ctx, "g", p3.Room)
	if err != nil {
		t.Fatalf("CheckAnswerRelevance: %v", err)
	}
	if relevant {
		t.Error("contacted answer not marked processed after a matching guess")
	}

	if err := record.Refresh(ctx, st, p3.Player); err != nil {
		t.Fatalf("refresh p3: %v", err)
	}
	if p3.Player.Points() != engine.Points.ContactParticipantSuccess {
		t.Errorf("p3 points = %d, want %d", p3.Player.Points(), engine.Points.ContactParticipantSuccess)
	}

	if err := record.Refresh(ctx, st, p2.Player); err != nil {
		t.Fatalf("refresh p2: %v", err)
	}
	if p2.Player.Points() != engine.Points.ContactInitiatorSuccess {
		t.Errorf("p2 points = %d, want %d", p2.Player.Points(), engine.Points.ContactInitiatorSuccess)
	}

	if err := record.Refresh(ctx, st, p3.Room); err != nil {
		t.Fatalf("refresh room: %v", err)
	}
	if p3.Room.OpenLettersCount() != 2 {
		t.Errorf("open letters = %d, want 2", p3.Room.OpenLettersCount())
	}
	remaining, err := listOfferIDs(ctx, st, p3.Room.ID())
	if err != nil {
		t.Fatalf("listOfferIDs after clear: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("offer log = %v, want empty after a successful contact", remaining)
	}
}

// TestHostCancelsOffer covers S3: the host reveals they already know
// the hidden answer before anyone accepts, canceling the offer and
// earning the consolation point.
func TestHostCancelsOffer(t *testing.T) {
	ctx := context.Background()
	host, p2, _, st, _, _ := roomOf3(t, ctx)

	if _, err := host.PerformAction(ctx, engine.EventSetWord, map[string]any{"word": "giraffe"}); err != nil {
		t.Fatalf("SET_WORD: %v", err)
	}
	if _, err := p2.PerformAction(ctx, engine.EventOffer, map[string]any{"answer": "g", "definition": "d"}); err != nil {
		t.Fatalf("OFFER: %v", err)
	}

	ids, err := listOfferIDs(ctx, st, host.Room.ID())
	if err != nil || len(ids) != 1 {
		t.Fatalf("listOfferIDs: %v ids=%v", err, ids)
	}

	if _, err := host.PerformAction(ctx, engine.EventCancelContact, map[string]any{"offerId": ids[0], "estimatedWord": "g"}); err != nil {
		t.Fatalf("CANCEL_CONTACT: %v", err)
	}

	offer, found, err := record.GetByID(ctx, st, ids[0], domain.NewOffer)
	if err != nil || !found {
		t.Fatalf("reload offer: found=%v err=%v", found, err)
	}
	if !offer.IsCanceled() {
		t.Error("offer not marked canceled")
	}

	if err := record.Refresh(ctx, st, host.Player); err != nil {
		t.Fatalf("refresh host: %v", err)
	}
	if host.Player.Points() != engine.Points.ContactCancel {
		t.Errorf("host points = %d, want %d", host.Player.Points(), engine.Points.ContactCancel)
	}
}

// TestContactRevealsFullWordSchedulesFinish covers S4: a player guesses
// the entire hosted word, and the resolved contact schedules a
// players-won FINISH.
func TestContactRevealsFullWordSchedulesFinish(t *testing.T) {
	ctx := context.Background()
	host, p2, p3, st, _, delegate := roomOf3(t, ctx)

	if _, err := host.PerformAction(ctx, engine.EventSetWord, map[string]any{"word": "go"}); err != nil {
		t.Fatalf("SET_WORD: %v", err)
	}
	if _, err := p2.PerformAction(ctx, engine.EventOffer, map[string]any{"answer": "go", "definition": "d"}); err != nil {
		t.Fatalf("OFFER: %v", err)
	}
	ids, err := listOfferIDs(ctx, st, host.Room.ID())
	if err != nil || len(ids) != 1 {
		t.Fatalf("listOfferIDs: %v ids=%v", err, ids)
	}
	if _, err := p3.PerformAction(ctx, engine.EventContact, map[string]any{"offerId": ids[0], "estimatedWord": "go"}); err != nil {
		t.Fatalf("CONTACT: %v", err)
	}
	if _, err := p3.PerformAction(ctx, engine.EventContactResult, nil); err != nil {
		t.Fatalf("CONTACT_RESULT: %v", err)
	}

	found := false
	for _, a := range delegate.scheduled {
		if a.event == engine.EventFinish && a.args["reason"] == domain.FinishPlayersWon {
			found = true
		}
	}
	if !found {
		t.Errorf("no FINISH/playersWon scheduled after revealing the full word, scheduled=%+v", delegate.scheduled)
	}
}

// TestDisconnectGraceWindowWithReconnect covers S5: a disconnect in a
// full room schedules a disconnection FINISH, but a reconnect within
// the grace window clears the marker and the delayed FINISH silently
// no-ops instead of ending the game.
func TestDisconnectGraceWindowWithReconnect(t *testing.T) {
	ctx := context.Background()
	_, p2, _, st, repo, delegate := roomOf3(t, ctx)

	if err := p2.DisconnectPlayer(ctx); err != nil {
		t.Fatalf("DisconnectPlayer: %v", err)
	}
	action, ok := delegate.last()
	if !ok || action.event != engine.EventFinish || action.args["reason"] != domain.FinishDisconnection {
		t.Fatalf("no disconnection FINISH scheduled, got %+v ok=%v", action, ok)
	}

	reconnected, err := engine.New(ctx, st, repo, delegate, testConfig(), "p2")
	if err != nil {
		t.Fatalf("reconnect engine.New: %v", err)
	}
	if !reconnected.Restored {
		t.Fatal("reconnecting player reported as brand new")
	}
	if _, err := reconnected.AppendUserToGame(ctx); err != nil {
		t.Fatalf("reconnect AppendUserToGame: %v", err)
	}

	_, err = reconnected.PerformAction(ctx, engine.EventFinish, map[string]any{"reason": domain.FinishDisconnection})
	if err != engine.ErrSilentNoBroadcast {
		t.Errorf("delayed FINISH after reconnect = %v, want ErrSilentNoBroadcast", err)
	}

	if err := record.Refresh(ctx, st, reconnected.Room); err != nil {
		t.Fatalf("refresh room: %v", err)
	}
	if reconnected.Room.FinishReason() == domain.FinishDisconnection {
		t.Error("room finish reason set to disconnection despite the timely reconnect")
	}
}

// TestIllegalOfferRejected covers S6: the host can't offer a guess,
// and a non-host's guess that doesn't fit the open letters is an
// action error rather than silently accepted.
func TestIllegalOfferRejected(t *testing.T) {
	ctx := context.Background()
	host, p2, _, _, _, _ := roomOf3(t, ctx)

	if _, err := host.PerformAction(ctx, engine.EventSetWord, map[string]any{"word": "giraffe"}); err != nil {
		t.Fatalf("SET_WORD: %v", err)
	}

	_, err := host.PerformAction(ctx, engine.EventOffer, map[string]any{"answer": "g", "definition": "d"})
	gameErr, ok := err.(*engine.Error)
	if !ok || gameErr.Kind != engine.KindRule {
		t.Fatalf("host OFFER error = %v (%T), want a rule *engine.Error", err, err)
	}

	_, err = p2.PerformAction(ctx, engine.EventOffer, map[string]any{"answer": "xyz", "definition": "d"})
	gameErr, ok = err.(*engine.Error)
	if !ok || gameErr.Kind != engine.KindAction {
		t.Fatalf("mismatched-prefix OFFER error = %v (%T), want an action *engine.Error", err, err)
	}
}

func listOfferIDs(ctx context.Context, st store.Store, roomID string) ([]string, error) {
	return st.LRange(ctx, "offers:room:"+roomID)
}
