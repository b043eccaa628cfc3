package types

import (
	"github.com/seojinp/beatduel-backend/internal/judge"
	"github.com/seojinp/beatduel-backend/internal/match"
)

// FromMatch projects authoritative match state into its wire view.
func FromMatch(st match.State) MatchView {
	v := MatchView{
		ID:           st.ID,
		Player1ID:    st.Player1ID,
		Player2ID:    st.Player2ID,
		Status:       string(st.Status),
		CurrentRound: st.Round,
		Player1Score: st.Wins[st.Player1ID],
		Player2Score: st.Wins[st.Player2ID],
		SelectedID:   st.SelectedID,
		WinnerID:     st.WinnerID,
	}
	for _, e := range st.Pool {
		v.Pool = append(v.Pool, PoolEntryView{
			ID:        e.ID,
			SongID:    e.SongID,
			BeatmapID: e.BeatmapID,
			IsBanned:  e.Banned,
			BannedBy:  e.BannedBy,
		})
	}
	return v
}

// FromCounts converts engine judgment counts to the wire shape.
func FromCounts(c judge.Counts) Judgments {
	return Judgments{Perfect: c.Perfect, Great: c.Great, Good: c.Good, Bad: c.Bad, Miss: c.Miss}
}

// ToCounts converts wire judgments back into engine counts.
func ToCounts(j Judgments) judge.Counts {
	return judge.Counts{Perfect: j.Perfect, Great: j.Great, Good: j.Good, Bad: j.Bad, Miss: j.Miss}
}
