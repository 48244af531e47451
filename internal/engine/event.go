// Package engine is the per-connection game brain: a synchronous
// action dispatcher over Player/Room/Offer records. It never touches
// the network; it mutates the store and tells its Delegate when
// something needs to happen later or be broadcast.
package engine

import "time"

// Event is a wire-exact action/lifecycle identifier.
type Event string

const (
	EventStart         Event = "start"
	EventContinue      Event = "continue"
	EventFinish        Event = "finish"
	EventRoomState     Event = "room_state"
	EventPlayerState   Event = "player_state"
	EventOffer         Event = "offer"
	EventOfferComment  Event = "offer_comment"
	EventSetWord       Event = "word"
	EventContact       Event = "contact"
	EventContactResult Event = "contact_result"
	EventCancelContact Event = "contact_cancel"
)

// Points awarded by the various successful actions.
var Points = struct {
	ContactCancel            int
	ContactInitiatorSuccess  int
	ContactParticipantSuccess int
}{
	ContactCancel:             1,
	ContactInitiatorSuccess:   3,
	ContactParticipantSuccess: 2,
}

const NumberOfPlayersToStart = 3

// contactFinishDelay is the fixed pause before a FINISH triggered by
// a resolved contact, independent of the configurable engine timers.
const contactFinishDelay = 500 * time.Millisecond
