package match

type CommandType string

const (
	CmdOpenBanPick   CommandType = "OpenBanPick"
	CmdBanEntry      CommandType = "BanEntry"
	CmdSubmitRound   CommandType = "SubmitRound"
	CmdFinalizeRound CommandType = "FinalizeRound"
)

type Command struct {
	Type       CommandType
	PlayerID   string
	EntryID    int
	Pool       []PoolEntry // OpenBanPick only
	Submission Submission  // SubmitRound only
}

type EventType string

const (
	EvtBanPickOpened  EventType = "BanPickOpened"
	EvtEntryBanned    EventType = "EntryBanned"
	EvtRoundStarted   EventType = "RoundStarted"
	EvtRoundSubmitted EventType = "RoundSubmitted"
	EvtRoundFinalized EventType = "RoundFinalized"
	EvtMatchCompleted EventType = "MatchCompleted"
)

type Event struct {
	Type     EventType
	PlayerID string
	EntryID  int
	Round    int
	Result   *RoundResult
}

// Apply runs one command against the match, returning the events it caused
// and the successor state. The input state is never mutated.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Status == StatusCompleted && cmd.Type != CmdFinalizeRound {
		return nil, s, ErrMatchCompleted
	}

	switch cmd.Type {
	case CmdOpenBanPick:
		return applyOpenBanPick(s, cmd)
	case CmdBanEntry:
		return applyBan(s, cmd)
	case CmdSubmitRound:
		return applySubmit(s, cmd)
	case CmdFinalizeRound:
		return applyFinalize(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// applyOpenBanPick installs a fresh pool: QUEUED -> BAN_PICK on the first
// round, ROUND_COMPLETE -> BAN_PICK on later ones. Ban budgets and round
// submissions reset with the new pool.
func applyOpenBanPick(s State, cmd Command) ([]Event, State, error) {
	if s.Status != StatusQueued && !(s.Status == StatusRoundComplete && s.Result != nil) {
		return nil, s, ErrNotBanPhase
	}
	if len(cmd.Pool) < 2 {
		return nil, s, ErrPoolExhausted
	}

	next := s
	next.Status = StatusBanPick
	next.Pool = append([]PoolEntry(nil), cmd.Pool...)
	next.Bans = map[string]int{}
	next.Submissions = map[string]Submission{}
	next.Result = nil
	next.SelectedID = 0
	if s.Status == StatusRoundComplete {
		next.Round = s.Round + 1
	}
	return []Event{{Type: EvtBanPickOpened, Round: next.Round}}, next, nil
}

func applyBan(s State, cmd Command) ([]Event, State, error) {
	if s.Status != StatusBanPick {
		return nil, s, ErrNotBanPhase
	}
	if !s.hasPlayer(cmd.PlayerID) {
		return nil, s, ErrUnknownPlayer
	}
	e, ok := s.entry(cmd.EntryID)
	if !ok {
		return nil, s, ErrUnknownEntry
	}
	if e.Banned {
		return nil, s, ErrEntryAlreadyBanned
	}
	if s.Bans[cmd.PlayerID] >= s.Rules.BanBudget {
		return nil, s, ErrBanBudgetSpent
	}

	next := s
	next.Pool = append([]PoolEntry(nil), s.Pool...)
	for i := range next.Pool {
		if next.Pool[i].ID == cmd.EntryID {
			next.Pool[i].Banned = true
			next.Pool[i].BannedBy = cmd.PlayerID
		}
	}
	next.Bans = map[string]int{s.Player1ID: s.Bans[s.Player1ID], s.Player2ID: s.Bans[s.Player2ID]}
	next.Bans[cmd.PlayerID]++

	events := []Event{{Type: EvtEntryBanned, PlayerID: cmd.PlayerID, EntryID: cmd.EntryID, Round: s.Round}}

	// Play starts once a single entry survives, or once both budgets are
	// spent. With more than one survivor the earliest entry is deterministic.
	remaining := next.unbanned()
	budgetSpent := next.Bans[s.Player1ID] >= s.Rules.BanBudget && next.Bans[s.Player2ID] >= s.Rules.BanBudget
	if len(remaining) == 1 || (budgetSpent && len(remaining) > 0) {
		next.Status = StatusPlaying
		next.SelectedID = remaining[0].ID
		events = append(events, Event{Type: EvtRoundStarted, EntryID: next.SelectedID, Round: s.Round})
	}
	return events, next, nil
}

func applySubmit(s State, cmd Command) ([]Event, State, error) {
	if s.Status != StatusPlaying {
		return nil, s, ErrNotPlaying
	}
	if !s.hasPlayer(cmd.PlayerID) {
		return nil, s, ErrUnknownPlayer
	}
	if _, dup := s.Submissions[cmd.PlayerID]; dup {
		return nil, s, ErrDuplicateSubmission
	}

	next := s
	next.Submissions = map[string]Submission{}
	for k, v := range s.Submissions {
		next.Submissions[k] = v
	}
	sub := cmd.Submission
	sub.PlayerID = cmd.PlayerID
	next.Submissions[cmd.PlayerID] = sub

	events := []Event{{Type: EvtRoundSubmitted, PlayerID: cmd.PlayerID, Round: s.Round}}
	if _, both := next.Submissions[s.opponent(cmd.PlayerID)]; both {
		next.Status = StatusRoundComplete
	}
	return events, next, nil
}

// applyFinalize settles the current round from both submissions. Calling it
// again for an already-finalized round returns the same result and changes
// nothing, so client retries are harmless.
func applyFinalize(s State) ([]Event, State, error) {
	if s.Status == StatusCompleted {
		return []Event{{Type: EvtMatchCompleted, PlayerID: s.WinnerID, Round: s.Round, Result: s.Result}}, s, nil
	}
	if s.Status != StatusRoundComplete {
		return nil, s, ErrRoundNotComplete
	}
	if s.Result != nil {
		return []Event{{Type: EvtRoundFinalized, Round: s.Round, Result: s.Result}}, s, nil
	}

	next := s
	result := decideRound(s)
	next.Result = &result
	next.Wins = map[string]int{s.Player1ID: s.Wins[s.Player1ID], s.Player2ID: s.Wins[s.Player2ID]}
	if !result.Draw {
		next.Wins[result.WinnerID]++
	}
	if sel, ok := s.entry(s.SelectedID); ok {
		next.Played = append(append([]int(nil), s.Played...), sel.BeatmapID)
	}

	events := []Event{{Type: EvtRoundFinalized, Round: s.Round, Result: next.Result}}
	for player, wins := range next.Wins {
		if wins >= s.winsNeeded() {
			next.Status = StatusCompleted
			next.WinnerID = player
			events = append(events, Event{Type: EvtMatchCompleted, PlayerID: player, Round: s.Round, Result: next.Result})
		}
	}
	return events, next, nil
}

// decideRound picks the higher score; ties fall back to max combo, and a
// full tie is a draw with no tally movement.
func decideRound(s State) RoundResult {
	a := s.Submissions[s.Player1ID]
	b := s.Submissions[s.Player2ID]
	res := RoundResult{Round: s.Round}
	switch {
	case a.Score > b.Score:
		res.WinnerID = s.Player1ID
	case b.Score > a.Score:
		res.WinnerID = s.Player2ID
	case a.MaxCombo > b.MaxCombo:
		res.WinnerID = s.Player1ID
	case b.MaxCombo > a.MaxCombo:
		res.WinnerID = s.Player2ID
	default:
		res.Draw = true
	}
	return res
}
