package domain

import "contactgame/internal/record"

// Offer is a non-host player's public definition plus a hidden
// candidate answer, posted to a room's offer log.
type Offer struct {
	schema *record.Schema
	values map[string]any
}

var offerSchema = &record.Schema{
	KeyPrefix: "offer",
	Fields: []record.Field{
		{Name: "id", Kind: record.KindID},
		{Name: "sender_id", Kind: record.KindRelation},
		{Name: "definition", Kind: record.KindString},
		{Name: "answer_internal", Kind: record.KindString, Internal: true},
		{Name: "hints", Kind: record.KindList},
		{Name: "is_canceled", Kind: record.KindBool},
		{Name: "is_contacted", Kind: record.KindBool},
		{Name: "in_progress", Kind: record.KindBool},
		{Name: "participants", Kind: record.KindList},
		{Name: "estimated_word", Kind: record.KindString},
		{
			// Exposed only once the offer is resolved one way or the
			// other; PublicData's empty-string skip keeps it off the
			// wire until then, matching open_answer_callback.
			Name: "answer",
			Kind: record.KindCalculated,
			Calc: func(data map[string]string) string {
				if data["is_contacted"] != "1" && data["is_canceled"] != "1" {
					return ""
				}
				return data["answer_internal"]
			},
		},
	},
}

// NewOffer constructs an Offer with default field values.
func NewOffer(id string) *Offer {
	o := &Offer{
		schema: offerSchema,
		values: map[string]any{
			"id":              id,
			"sender_id":       "",
			"definition":      "",
			"answer_internal": "",
			"hints":           []string{},
			"is_canceled":     false,
			"is_contacted":    false,
			"in_progress":     false,
			"participants":    []string{},
			"estimated_word":  "",
			"answer":          "",
		},
	}
	return o
}

func (o *Offer) Schema() *record.Schema { return o.schema }
func (o *Offer) ID() string             { return o.values["id"].(string) }
func (o *Offer) Values() map[string]any { return o.values }

func (o *Offer) SenderID() string         { return o.values["sender_id"].(string) }
func (o *Offer) SetSenderID(id string)    { o.values["sender_id"] = id }
func (o *Offer) Definition() string       { return o.values["definition"].(string) }
func (o *Offer) SetDefinition(d string)   { o.values["definition"] = d }
func (o *Offer) AnswerInternal() string   { return o.values["answer_internal"].(string) }
func (o *Offer) SetAnswerInternal(a string) {
	o.values["answer_internal"] = a
}
func (o *Offer) Hints() []string { return o.values["hints"].([]string) }
func (o *Offer) AppendHint(h string) {
	o.values["hints"] = append(o.Hints(), h)
}
func (o *Offer) IsCanceled() bool      { return o.values["is_canceled"].(bool) }
func (o *Offer) SetIsCanceled(v bool)  { o.values["is_canceled"] = v }
func (o *Offer) IsContacted() bool     { return o.values["is_contacted"].(bool) }
func (o *Offer) SetIsContacted(v bool) { o.values["is_contacted"] = v }
func (o *Offer) InProgress() bool      { return o.values["in_progress"].(bool) }
func (o *Offer) SetInProgress(v bool)  { o.values["in_progress"] = v }
func (o *Offer) Participants() []string {
	return o.values["participants"].([]string)
}
func (o *Offer) AppendParticipant(id string) {
	o.values["participants"] = append(o.Participants(), id)
}
func (o *Offer) EstimatedWord() string { return o.values["estimated_word"].(string) }
func (o *Offer) SetEstimatedWord(w string) {
	o.values["estimated_word"] = w
}

func (o *Offer) PublicData() map[string]any {
	return record.PublicDataOf(o)
}
