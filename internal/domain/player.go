package domain

import "contactgame/internal/record"

// Player is a stable, username-keyed record: created on first
// connect, persisted across disconnects within the grace window,
// deleted only by room cleanup.
type Player struct {
	schema *record.Schema
	values map[string]any
}

var playerSchema = &record.Schema{
	KeyPrefix: "player",
	Fields: []record.Field{
		{Name: "id", Kind: record.KindID},
		{Name: "is_host", Kind: record.KindBool},
		{Name: "room_id", Kind: record.KindRelation},
		{Name: "points", Kind: record.KindInt},
	},
}

// NewPlayer constructs a Player with default field values. id is the
// username; it never changes once assigned.
func NewPlayer(id string) *Player {
	return &Player{
		schema: playerSchema,
		values: map[string]any{
			"id":      id,
			"is_host": false,
			"room_id": "",
			"points":  0,
		},
	}
}

func (p *Player) Schema() *record.Schema   { return p.schema }
func (p *Player) ID() string               { return p.values["id"].(string) }
func (p *Player) Values() map[string]any   { return p.values }
func (p *Player) IsHost() bool             { return p.values["is_host"].(bool) }
func (p *Player) SetIsHost(v bool)         { p.values["is_host"] = v }
func (p *Player) RoomID() string           { return p.values["room_id"].(string) }
func (p *Player) SetRoomID(roomID string)  { p.values["room_id"] = roomID }
func (p *Player) Points() int              { return p.values["points"].(int) }
func (p *Player) PublicData() map[string]any {
	return record.PublicDataOf(p)
}
