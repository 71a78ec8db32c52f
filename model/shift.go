package model

// ShiftRef identifies one circular shift of a line without copying its words.
// The shift starting at Offset reads word[Offset..n-1] followed by word[0..Offset-1].
type ShiftRef struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// Ranking is the ordered sequence of all shift references of a corpus,
// alphabetical by the word sequence each reference denotes.
type Ranking []ShiftRef

// Clone returns an independent copy of the ranking.
func (r Ranking) Clone() Ranking {
	if r == nil {
		return nil
	}
	out := make(Ranking, len(r))
	copy(out, r)
	return out
}

// RankedEntry is a shift resolved against the line store at query time.
type RankedEntry struct {
	Rank   int      `json:"rank"`
	Line   int      `json:"line"`
	Offset int      `json:"offset"`
	Words  []string `json:"words"`
	Text   string   `json:"text"`
}
