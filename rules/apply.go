package rules

// Apply advances s by exactly one action performed by the seat at
// s.Turn, returning a new State. s is never mutated; two calls with
// equal s and a always produce equal results.
func Apply(s State, a Action) (State, error) {
	if s.Phase != PhaseInProgress {
		return State{}, ErrHandOver
	}

	switch a.Type {
	case DrawStock:
		return applyDrawStock(s)
	case DrawDiscard:
		return applyDrawDiscard(s)
	case Discard:
		return applyDiscard(s, a)
	case SpreadAction:
		return applySpread(s, a)
	case Hit:
		return applyHit(s, a)
	case Drop:
		return applyDrop(s)
	case DeclareSpecialWin:
		return applyDeclareSpecialWin(s)
	default:
		return State{}, ErrInvalidSeat
	}
}

func applyDrawStock(s State) (State, error) {
	if s.HasDrawn {
		return State{}, ErrAlreadyDrawn
	}
	if len(s.Stock) == 0 {
		return State{}, ErrStockEmpty
	}
	next := s.Clone()
	acting := next.Turn
	top := next.Stock[len(next.Stock)-1]
	next.Stock = next.Stock[:len(next.Stock)-1]
	next.Hands[acting] = append(next.Hands[acting], top)
	next.HasDrawn = true
	return next, nil
}

func applyDrawDiscard(s State) (State, error) {
	if s.HasDrawn {
		return State{}, ErrAlreadyDrawn
	}
	if len(s.Discard) == 0 {
		return State{}, ErrDiscardEmpty
	}
	next := s.Clone()
	acting := next.Turn
	top := next.Discard[len(next.Discard)-1]
	next.Discard = next.Discard[:len(next.Discard)-1]
	next.Hands[acting] = append(next.Hands[acting], top)
	next.HasDrawn = true
	return next, nil
}

func applyDiscard(s State, a Action) (State, error) {
	if !s.HasDrawn {
		return State{}, ErrMustDrawFirst
	}
	acting := s.Turn
	hand := s.Hands[acting]
	if a.DiscardIndex < 0 || a.DiscardIndex >= len(hand) {
		return State{}, ErrInvalidCardIndex
	}

	next := s.Clone()
	discarded := next.Hands[acting][a.DiscardIndex]
	next.Hands[acting] = append(next.Hands[acting][:a.DiscardIndex], next.Hands[acting][a.DiscardIndex+1:]...)
	next.Discard = append(next.Discard, discarded)
	next.HasDrawn = false

	if len(next.Hands[acting]) == 0 {
		next.Phase = PhaseOver
		next.Outcome = &Outcome{
			WinType:     WinRegular,
			Winners:     []int{acting},
			RoundScores: scoreAll(next.Hands),
		}
		return next, nil
	}

	if len(next.Stock) == 0 {
		next.Phase = PhaseOver
		scores := scoreAll(next.Hands)
		next.Outcome = &Outcome{
			WinType:     WinStockEmpty,
			Winners:     minScoreSeats(scores),
			RoundScores: scores,
		}
		return next, nil
	}

	advanceTurn(&next)
	return next, nil
}

func applySpread(s State, a Action) (State, error) {
	if !s.HasDrawn {
		return State{}, ErrMustDrawFirst
	}
	if !validSpread(a.SpreadCards) {
		return State{}, ErrInvalidSpread
	}
	acting := s.Turn
	remaining, ok := removeCards(s.Hands[acting], a.SpreadCards)
	if !ok {
		return State{}, ErrCardsNotInHand
	}

	next := s.Clone()
	next.Hands[acting] = remaining
	next.Spreads[acting] = append(next.Spreads[acting], append(Spread(nil), a.SpreadCards...))

	if len(next.Spreads[acting]) >= 2 {
		next.Phase = PhaseOver
		next.Outcome = &Outcome{
			WinType:     WinReem,
			Winners:     []int{acting},
			RoundScores: scoreAll(next.Hands),
		}
	}
	return next, nil
}

func applyHit(s State, a Action) (State, error) {
	if !s.HasDrawn {
		return State{}, ErrMustDrawFirst
	}
	acting := s.Turn
	if a.HitTargetSeat < 0 || a.HitTargetSeat >= len(s.Seats) {
		return State{}, ErrInvalidSeat
	}
	if a.HitSpreadIndex < 0 || a.HitSpreadIndex >= len(s.Spreads[a.HitTargetSeat]) {
		return State{}, ErrInvalidSpread
	}

	cardIdx := -1
	for i, c := range s.Hands[acting] {
		if c == a.HitCard {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		return State{}, ErrCardsNotInHand
	}

	target := s.Spreads[a.HitTargetSeat][a.HitSpreadIndex]
	if !extendsSpread(target, a.HitCard) {
		return State{}, ErrInvalidHit
	}

	next := s.Clone()
	next.Hands[acting] = append(next.Hands[acting][:cardIdx], next.Hands[acting][cardIdx+1:]...)
	next.Spreads[a.HitTargetSeat][a.HitSpreadIndex] = append(next.Spreads[a.HitTargetSeat][a.HitSpreadIndex], a.HitCard)

	targetSeat := &next.Seats[a.HitTargetSeat]
	targetSeat.HitCount++
	if targetSeat.HitCount <= 1 {
		targetSeat.HitPenaltyRounds = 2
	} else {
		targetSeat.HitPenaltyRounds = 1
	}

	advanceTurn(&next)
	return next, nil
}

func applyDrop(s State) (State, error) {
	acting := s.Turn
	if s.Seats[acting].HitPenaltyRounds > 0 {
		return State{}, ErrDropBlocked
	}

	next := s.Clone()
	scores := scoreAll(next.Hands)
	winners := minScoreSeats(scores)
	dropped := acting

	var outcome Outcome
	outcome.RoundScores = scores
	outcome.DroppedSeat = &dropped
	if containsSeat(winners, acting) {
		outcome.WinType = WinDropWin
		outcome.Winners = winners
	} else {
		outcome.WinType = WinDropCaught
		outcome.Winners = winners
	}

	next.Phase = PhaseOver
	next.Outcome = &outcome
	return next, nil
}

func applyDeclareSpecialWin(s State) (State, error) {
	acting := s.Turn
	score := Score(s.Hands[acting])
	if score != 41 && score > 10 {
		return State{}, ErrDeclareIneligible
	}

	next := s.Clone()
	next.Phase = PhaseOver
	next.Outcome = &Outcome{
		WinType:     WinSpecial,
		Winners:     []int{acting},
		RoundScores: scoreAll(next.Hands),
	}
	return next, nil
}

// advanceTurn moves the turn to the next seat and applies the start-of-turn
// hit-penalty decrement for that seat.
func advanceTurn(s *State) {
	s.Turn = (s.Turn + 1) % len(s.Seats)
	s.HasDrawn = false
	if s.Seats[s.Turn].HitPenaltyRounds > 0 {
		s.Seats[s.Turn].HitPenaltyRounds--
	}
}

func minScoreSeats(scores []int) []int {
	min := scores[0]
	for _, v := range scores[1:] {
		if v < min {
			min = v
		}
	}
	winners := make([]int, 0, len(scores))
	for i, v := range scores {
		if v == min {
			winners = append(winners, i)
		}
	}
	return winners
}

func containsSeat(seats []int, seat int) bool {
	for _, s := range seats {
		if s == seat {
			return true
		}
	}
	return false
}
