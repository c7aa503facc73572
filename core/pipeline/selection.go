package pipeline

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cbrandt/rescore/model"
)

type selectionResult struct {
	snapshot  model.Snapshot
	dropped   map[string]string
	injection model.Injection
	warnings  []string
}

// applySelection orders the survivors, resolves group and link constraints,
// caps to top-K and composes the injected text block. Soft boosts fold into
// the keyword boost so the score composition stays replayable; force pulls
// are exempt from the top-K cap.
func (p *Pipeline) applySelection(candidates []model.Candidate, qc *model.QueryContext, settings *model.Settings) selectionResult {
	result := selectionResult{dropped: make(map[string]string)}

	work := make([]model.Candidate, len(candidates))
	copy(work, candidates)

	p.applySoftBoosts(work, qc.Groups)

	sort.SliceStable(work, func(i, j int) bool {
		if work[i].Score != work[j].Score {
			return work[i].Score > work[j].Score
		}
		return work[i].Index < work[j].Index
	})

	work, missingMandatory := p.resolveExclusiveGroups(work, qc.Groups, result.dropped)
	for _, name := range missingMandatory {
		result.warnings = append(result.warnings,
			fmt.Sprintf("mandatory exclusive group %q has no surviving member", name))
	}

	// Cap to top-K
	selected := work
	var overflow []model.Candidate
	if len(work) > settings.TopK {
		selected = work[:settings.TopK]
		overflow = work[settings.TopK:]
		for _, c := range overflow {
			result.dropped[c.Hash] = fmt.Sprintf("beyond top-K limit of %d", settings.TopK)
		}
	}

	selected = p.pullForcedInclusions(selected, overflow, qc.Groups, result.dropped)

	ordered := orderForInjection(selected, settings)

	texts := make([]string, 0, len(ordered))
	for _, c := range ordered {
		texts = append(texts, c.Text)
	}
	text := strings.Join(texts, "\n")
	if len(ordered) == 0 {
		text = ""
	}

	result.injection = model.Injection{
		Text:      text,
		Position:  settings.InjectionPosition,
		Depth:     settings.InjectionDepth,
		CharCount: len(text),
		Verified:  text != "" && len(missingMandatory) == 0,
	}
	result.snapshot = model.Snapshot{Stage: model.StageInjected, Candidates: ordered}

	if !result.injection.Verified {
		p.log.Warn("Injection verification failed",
			slog.Int("selected", len(ordered)),
			slog.Int("char_count", result.injection.CharCount),
			slog.Any("warnings", result.warnings))
	}

	return result
}

// applySoftBoosts folds inclusive soft group boosts and soft chunk link
// boosts into the keyword boost of the affected candidates
func (p *Pipeline) applySoftBoosts(work []model.Candidate, groups []model.Group) {
	byHash := make(map[string]*model.Candidate, len(work))
	for i := range work {
		byHash[work[i].Hash] = &work[i]
	}

	for _, group := range groups {
		if group.Mode != model.GroupInclusive || group.LinkType != model.GroupLinkSoft || group.Boost <= 0 {
			continue
		}
		for _, member := range group.Members {
			if c, ok := byHash[member]; ok {
				c.KeywordBoost *= group.Boost
				c.Score = c.ComposeScore()
			}
		}
	}

	for i := range work {
		if work[i].Meta == nil {
			continue
		}
		for _, link := range work[i].Meta.Links {
			if link.Mode != model.LinkSoft {
				continue
			}
			if target, ok := byHash[link.TargetHash]; ok {
				target.KeywordBoost *= model.SoftLinkBoost
				target.Score = target.ComposeScore()
			}
		}
	}
}

// resolveExclusiveGroups keeps at most one member per exclusive group (the
// best-scoring one, since work is sorted) and reports the names of mandatory
// groups left without any member
func (p *Pipeline) resolveExclusiveGroups(work []model.Candidate, groups []model.Group, dropped map[string]string) ([]model.Candidate, []string) {
	var missingMandatory []string

	kept := work
	for _, group := range groups {
		if group.Mode != model.GroupExclusive {
			continue
		}

		winner := ""
		filtered := kept[:0:0]
		for _, c := range kept {
			if !group.Contains(c.Hash) {
				filtered = append(filtered, c)
				continue
			}
			if winner == "" {
				winner = c.Hash
				filtered = append(filtered, c)
				continue
			}
			dropped[c.Hash] = fmt.Sprintf("exclusive group %q already represented by %s", group.Name, winner)
		}
		kept = filtered

		if group.Mandatory && winner == "" {
			missingMandatory = append(missingMandatory, group.Name)
		}
	}

	return kept, missingMandatory
}

// pullForcedInclusions adds force-link targets and hard-group co-members of
// every selected candidate, drawing from the candidates the cap rejected.
// Pulls are transitive and exempt from the cap.
func (p *Pipeline) pullForcedInclusions(selected, overflow []model.Candidate, groups []model.Group, dropped map[string]string) []model.Candidate {
	pool := make(map[string]model.Candidate, len(overflow))
	for _, c := range overflow {
		pool[c.Hash] = c
	}

	inSelection := make(map[string]bool, len(selected))
	for _, c := range selected {
		inSelection[c.Hash] = true
	}

	pull := func(hash, reason string) (model.Candidate, bool) {
		c, ok := pool[hash]
		if !ok || inSelection[hash] {
			return model.Candidate{}, false
		}
		delete(pool, hash)
		delete(dropped, hash)
		inSelection[hash] = true
		p.log.Debug("Force-included candidate", slog.String("hash", hash), slog.String("reason", reason))
		return c, true
	}

	queue := make([]model.Candidate, len(selected))
	copy(queue, selected)
	out := make([]model.Candidate, 0, len(selected))

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		out = append(out, c)

		if c.Meta != nil {
			for _, link := range c.Meta.Links {
				if link.Mode != model.LinkForce {
					continue
				}
				if pulled, ok := pull(link.TargetHash, "force link from "+c.Hash); ok {
					queue = append(queue, pulled)
				}
			}
		}

		for _, group := range groups {
			if group.Mode != model.GroupInclusive || group.LinkType != model.GroupLinkHard || !group.Contains(c.Hash) {
				continue
			}
			for _, member := range group.Members {
				if pulled, ok := pull(member, "hard group "+group.Name); ok {
					queue = append(queue, pulled)
				}
			}
		}
	}

	return out
}

// orderForInjection sorts the final selection by effective injection
// position (before prompt, in chat deepest first, after prompt), then by
// score within each slot
func orderForInjection(selected []model.Candidate, settings *model.Settings) []model.Candidate {
	ordered := make([]model.Candidate, len(selected))
	copy(ordered, selected)

	sort.SliceStable(ordered, func(i, j int) bool {
		pi, di := effectivePlacement(&ordered[i], settings)
		pj, dj := effectivePlacement(&ordered[j], settings)
		if pi != pj {
			return pi < pj
		}
		if di != dj {
			return di > dj
		}
		return ordered[i].Score > ordered[j].Score
	})

	return ordered
}

func effectivePlacement(c *model.Candidate, settings *model.Settings) (rank int, depth int) {
	position := settings.InjectionPosition
	depth = settings.InjectionDepth
	if c.Meta != nil {
		if c.Meta.Position != nil {
			position = *c.Meta.Position
		}
		if c.Meta.Depth != nil {
			depth = *c.Meta.Depth
		}
	}

	switch position {
	case model.PositionBeforePrompt:
		rank = 0
	case model.PositionAfterPrompt:
		rank = 2
	default:
		rank = 1
	}
	return rank, depth
}
