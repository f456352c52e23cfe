package mystery

// CaseSummary is the player-visible redaction of a case. It exposes the scene
// and the victim but nothing that identifies the killer, the liar, or the trick.
type CaseSummary struct {
	Title      string `json:"title"`
	Location   string `json:"location"`
	TimeWindow string `json:"time_window"`
	Summary    string `json:"summary"`
	VictimName string `json:"victim_name"`
	FoundState string `json:"found_state"`
}

// PublicCharacter is the player-visible view of a suspect. Alibi, secrets, and
// the liar/killer flags stay hidden.
type PublicCharacter struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Traits []string `json:"traits"`
}

// Redact returns the player-visible summary of the case.
func (c Case) Redact() CaseSummary {
	return CaseSummary{
		Title:      c.Title,
		Location:   c.Setting.Location,
		TimeWindow: c.Setting.TimeWindow,
		Summary:    c.Setting.Summary,
		VictimName: c.Victim.Name,
		FoundState: c.Victim.FoundState,
	}
}

// PublicEvidence is the player-visible view of an unlocked evidence item. The
// reveal trigger stays hidden so players cannot reverse the unlock conditions.
type PublicEvidence struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Detail    string `json:"detail"`
	Relevance string `json:"relevance"`
}

// PublicEvidenceByIDs maps unlocked evidence ids to their redacted views,
// preserving case order for ids that exist.
func (c Case) PublicEvidenceByIDs(ids []string) []PublicEvidence {
	unlocked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		unlocked[id] = struct{}{}
	}
	public := make([]PublicEvidence, 0, len(ids))
	for _, item := range c.Evidence {
		if _, ok := unlocked[item.ID]; !ok {
			continue
		}
		public = append(public, PublicEvidence{
			ID:        item.ID,
			Name:      item.Name,
			Detail:    item.Detail,
			Relevance: item.Relevance,
		})
	}
	return public
}

// PublicCharacters returns the redacted character roster in case order.
func (c Case) PublicCharacters() []PublicCharacter {
	public := make([]PublicCharacter, len(c.Characters))
	for i, character := range c.Characters {
		public[i] = PublicCharacter{
			ID:     character.ID,
			Name:   character.Name,
			Role:   character.Role,
			Traits: character.Traits,
		}
	}
	return public
}
