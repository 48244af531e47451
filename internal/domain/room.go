package domain

import "contactgame/internal/record"

// Finish reasons a Room can end with.
const (
	FinishDisconnection = "disconnection"
	FinishTimeExpired   = "timeExpired"
	FinishHostWon       = "hostWon"
	FinishPlayersWon    = "playersWon"
)

// Room is a three-seat match container: a shared hosted word, an
// offer log, and the open-letters reveal state.
type Room struct {
	schema *record.Schema
	values map[string]any
}

var roomSchema = &record.Schema{
	KeyPrefix: "room",
	Fields: []record.Field{
		{Name: "id", Kind: record.KindID},
		{Name: "player_count", Kind: record.KindInt},
		{Name: "host_id", Kind: record.KindRelation},
		{Name: "is_full", Kind: record.KindBool},
		{Name: "game_started", Kind: record.KindBool},
		{Name: "game_finished", Kind: record.KindBool},
		{Name: "winner", Kind: record.KindString},
		{Name: "finish_reason", Kind: record.KindString},
		{Name: "hosted_word", Kind: record.KindString, Internal: true},
		{Name: "open_letters_count", Kind: record.KindInt, Internal: true},
		{Name: "contact_in_progress", Kind: record.KindBool},
		{Name: "active_contact_offer_id", Kind: record.KindString, Internal: true},
		{
			Name: "open_word",
			Kind: record.KindCalculated,
			Calc: func(data map[string]string) string {
				word := data["hosted_word"]
				if len(word) == 0 {
					return ""
				}
				n := atoiOrDefault(data["open_letters_count"], 1)
				if n > len(word) {
					n = len(word)
				}
				return word[:n]
			},
		},
	},
}

func atoiOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// NewRoom constructs a Room with default field values.
func NewRoom(id string) *Room {
	return &Room{
		schema: roomSchema,
		values: map[string]any{
			"id":                       id,
			"player_count":             0,
			"host_id":                  "",
			"is_full":                  false,
			"game_started":             false,
			"game_finished":            false,
			"winner":                   "",
			"finish_reason":            "",
			"hosted_word":              "",
			"open_letters_count":       1,
			"contact_in_progress":      false,
			"active_contact_offer_id":  "",
			"open_word":                "",
		},
	}
}

func (r *Room) Schema() *record.Schema { return r.schema }
func (r *Room) ID() string             { return r.values["id"].(string) }
func (r *Room) Values() map[string]any { return r.values }

func (r *Room) PlayerCount() int          { return r.values["player_count"].(int) }
func (r *Room) HostID() string            { return r.values["host_id"].(string) }
func (r *Room) SetHostID(id string)       { r.values["host_id"] = id }
func (r *Room) IsFull() bool              { return r.values["is_full"].(bool) }
func (r *Room) SetIsFull(v bool)          { r.values["is_full"] = v }
func (r *Room) GameStarted() bool         { return r.values["game_started"].(bool) }
func (r *Room) SetGameStarted(v bool)     { r.values["game_started"] = v }
func (r *Room) GameFinished() bool        { return r.values["game_finished"].(bool) }
func (r *Room) SetGameFinished(v bool)    { r.values["game_finished"] = v }
func (r *Room) Winner() string            { return r.values["winner"].(string) }
func (r *Room) SetWinner(w string)        { r.values["winner"] = w }
func (r *Room) FinishReason() string      { return r.values["finish_reason"].(string) }
func (r *Room) SetFinishReason(s string)  { r.values["finish_reason"] = s }
func (r *Room) HostedWord() string        { return r.values["hosted_word"].(string) }
func (r *Room) SetHostedWord(w string)    { r.values["hosted_word"] = w }
func (r *Room) OpenLettersCount() int     { return r.values["open_letters_count"].(int) }
func (r *Room) OpenWord() string          { return r.values["open_word"].(string) }
func (r *Room) ContactInProgress() bool   { return r.values["contact_in_progress"].(bool) }
func (r *Room) SetContactInProgress(v bool) {
	r.values["contact_in_progress"] = v
}
func (r *Room) ActiveContactOfferID() string { return r.values["active_contact_offer_id"].(string) }
func (r *Room) SetActiveContactOfferID(id string) {
	r.values["active_contact_offer_id"] = id
}

func (r *Room) PublicData() map[string]any {
	return record.PublicDataOf(r)
}
