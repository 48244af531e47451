package engine

import (
	"context"

	"contactgame/internal/domain"
	"contactgame/internal/record"
)

// actionSetWord is SET_WORD: only the host may set the room's hidden
// word, which starts the game.
func (e *Engine) actionSetWord(ctx context.Context, word string) error {
	if err := record.Refresh(ctx, e.st, e.Player); err != nil {
		return err
	}
	if !e.Player.IsHost() {
		return ruleError("Only game host is able to set a room word")
	}

	e.Room.SetHostedWord(lower(word))
	e.Room.SetGameStarted(true)
	return record.Save(ctx, e.st, e.Room)
}

// actionOffer is OFFER: a non-host posts a public definition plus a
// hidden candidate answer that must fit the currently revealed
// prefix and not already have been guessed.
func (e *Engine) actionOffer(ctx context.Context, answer, definition string) error {
	if e.Player.ID() == e.Room.HostID() {
		return ruleError("Game host is not able to offer guesses")
	}

	relevant, err := e.repo.CheckAnswerRelevance(ctx, lower(answer), e.Room)
	if err != nil {
		return err
	}
	if !relevant {
		return actionError("This word was already guessed")
	}

	n := e.Room.OpenLettersCount()
	answerCut := answer
	if n < len(answerCut) {
		answerCut = answerCut[:n]
	}
	if lower(answerCut) != e.Room.OpenWord() {
		return actionError("Answer does not fit open letters")
	}

	offer, err := record.Create(ctx, e.st, domain.NewOffer, "")
	if err != nil {
		return err
	}
	offer.SetSenderID(e.Player.ID())
	offer.SetDefinition(lower(definition))
	offer.SetAnswerInternal(lower(answer))
	if err := record.Save(ctx, e.st, offer); err != nil {
		return err
	}
	return e.repo.AppendOfferToRoom(ctx, offer, e.Room)
}

// actionCommentOffer is OFFER_COMMENT: only the offer's own sender may
// append a hint, and only while the offer is still live.
func (e *Engine) actionCommentOffer(ctx context.Context, offerID, commentText string) error {
	offer, found, err := record.GetByID(ctx, e.st, offerID, domain.NewOffer)
	if err != nil {
		return err
	}
	if !found {
		return actionError("Offer does not exist")
	}

	if offer.IsCanceled() {
		return ruleError("Canceled offers can not be commented")
	}
	if offer.SenderID() != e.Player.ID() {
		return ruleError("Only offer sender is able to comment it")
	}

	offer.AppendHint(commentText)
	return record.Save(ctx, e.st, offer)
}

// actionCancel is CANCEL_CONTACT: the host has a window to reveal
// they already know the offer's hidden answer, canceling it and
// earning a small consolation point.
func (e *Engine) actionCancel(ctx context.Context, offerID, estimatedWord string) error {
	if e.Player.ID() != e.Room.HostID() {
		return ruleError("Only game host is able to cancel guesses")
	}

	offer, found, err := record.GetByID(ctx, e.st, offerID, domain.NewOffer)
	if err != nil {
		return err
	}
	if !found {
		return actionError("Offer does not exist")
	}
	if offer.IsCanceled() {
		return ruleError("Offers can't be canceled multiple times")
	}

	if offer.AnswerInternal() == lower(estimatedWord) {
		offer.SetIsCanceled(true)
		if err := record.Save(ctx, e.st, offer); err != nil {
			return err
		}
		return record.IncrementField(ctx, e.st, e.Player, "points", Points.ContactCancel)
	}
	return nil
}

// actionAcceptOffer is CONTACT: a non-sender player stakes a claim on
// an offer's hidden answer; the room enters a short cancel window
// before the claim is resolved.
func (e *Engine) actionAcceptOffer(ctx context.Context, offerID, estimatedWord string) error {
	if e.Room.ContactInProgress() {
		return ruleError("It is forbidden to accept multiple offers simultaneously")
	}

	offer, found, err := record.GetByID(ctx, e.st, offerID, domain.NewOffer)
	if err != nil {
		return err
	}
	if !found {
		return actionError("Offer does not exist")
	}

	estimated := lower(estimatedWord)
	if offer.SenderID() == e.Player.ID() {
		return ruleError("Players can't accept their own offers")
	}
	if offer.IsCanceled() {
		return ruleError("It is forbidden to guess canceled offers")
	}

	n := e.Room.OpenLettersCount()
	cut := estimated
	if n < len(cut) {
		cut = cut[:n]
	}
	if cut != e.Room.OpenWord() {
		return actionError("Estimated word does not fit open letters")
	}

	offer.SetInProgress(true)
	offer.AppendParticipant(e.Player.ID())
	offer.SetEstimatedWord(estimated)
	if err := record.Save(ctx, e.st, offer); err != nil {
		return err
	}

	e.Room.SetContactInProgress(true)
	e.Room.SetActiveContactOfferID(offer.ID())
	if err := record.Save(ctx, e.st, e.Room); err != nil {
		return err
	}

	e.delegate.OrderDelayedAction(e.cfg.ContactAwaitingTime, EventContactResult, nil)
	return nil
}

// actionContactResult is CONTACT_RESULT: invoked only by the
// scheduler after the cancel window elapses. It resolves the active
// contact, reveals another letter on success, and may trigger FINISH.
func (e *Engine) actionContactResult(ctx context.Context) error {
	offer, found, err := record.GetByID(ctx, e.st, e.Room.ActiveContactOfferID(), domain.NewOffer)
	if err != nil {
		return err
	}
	if !found {
		e.Room.SetContactInProgress(false)
		return record.Save(ctx, e.st, e.Room)
	}

	success := !offer.IsCanceled() && offer.EstimatedWord() == offer.AnswerInternal()
	offer.SetIsContacted(success)
	if err := record.Save(ctx, e.st, offer); err != nil {
		return err
	}

	word := e.Room.HostedWord()
	if len(word)-e.Room.OpenLettersCount() == 1 || (success && word == offer.EstimatedWord()) {
		e.delegate.OrderDelayedAction(contactFinishDelay, EventFinish, map[string]any{
			"reason": domain.FinishPlayersWon,
		})
	}
	if offer.AnswerInternal() == word {
		e.delegate.OrderDelayedAction(contactFinishDelay, EventFinish, map[string]any{
			"reason": domain.FinishPlayersWon,
		})
	}

	if success {
		if err := record.IncrementField(ctx, e.st, e.Room, "open_letters_count", 1); err != nil {
			return err
		}
		if err := e.repo.ClearOffers(ctx, e.Room); err != nil {
			return err
		}
		if err := e.repo.MarkOfferProcessed(ctx, offer, e.Room); err != nil {
			return err
		}

		initiator, found, err := record.GetByID(ctx, e.st, offer.SenderID(), domain.NewPlayer)
		if err == nil && found {
			_ = record.IncrementField(ctx, e.st, initiator, "points", Points.ContactInitiatorSuccess)
		}
		for _, participantID := range offer.Participants() {
			participant, found, err := record.GetByID(ctx, e.st, participantID, domain.NewPlayer)
			if err != nil || !found {
				continue
			}
			_ = record.IncrementField(ctx, e.st, participant, "points", Points.ContactParticipantSuccess)
		}
	}

	e.Room.SetContactInProgress(false)
	return record.Save(ctx, e.st, e.Room)
}

// actionFinishGame is FINISH: for a disconnection reason it re-checks
// the disconnection marker so a timely reconnect silently cancels the
// finish; otherwise it marks the game over with the given reason.
func (e *Engine) actionFinishGame(ctx context.Context, reason string) error {
	if err := e.Refresh(ctx); err != nil {
		return err
	}
	e.Room.SetGameFinished(true)

	if reason == domain.FinishDisconnection {
		stillDisconnected, err := e.repo.CheckForDisconnectedPlayer(ctx, e.Player)
		if err != nil {
			return err
		}
		if !stillDisconnected {
			return ErrSilentNoBroadcast
		}
		e.Room.SetWinner("none")
		e.Room.SetFinishReason(domain.FinishDisconnection)
		e.repo.OrderRoomCleaning(e.Room)
		return record.Save(ctx, e.st, e.Room)
	}

	e.Room.SetFinishReason(reason)
	return record.Save(ctx, e.st, e.Room)
}
