package pipeline

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cbrandt/rescore/model"
)

// applyConditions evaluates every candidate's activation rules against the
// query context. Disabled or empty condition sets always pass; an
// unrecognized rule type defaults to pass and is logged, never aborting the
// pipeline.
func (p *Pipeline) applyConditions(snap model.Snapshot, qc *model.QueryContext) (model.Snapshot, map[string]string) {
	survivors := make([]model.Candidate, 0, len(snap.Candidates))
	dropped := make(map[string]string)

	for _, c := range snap.Candidates {
		if c.Meta == nil || c.Meta.Conditions.IsEmpty() {
			survivors = append(survivors, c)
			continue
		}

		pass, reason := p.evaluateConditionSet(&c.Meta.Conditions, qc, c.Text)
		if pass {
			survivors = append(survivors, c)
			continue
		}
		dropped[c.Hash] = reason
	}

	return model.Snapshot{Stage: model.StageAfterConditions, Candidates: survivors}, dropped
}

// evaluateConditionSet combines the rule results under the set's logic and
// returns a human-readable reason when the set fails
func (p *Pipeline) evaluateConditionSet(set *model.ConditionSet, qc *model.QueryContext, chunkText string) (bool, string) {
	logic := set.Logic
	if logic != model.LogicOr {
		logic = model.LogicAnd
	}

	var failed []string
	anyTrue := false
	allTrue := true

	for _, rule := range set.Rules {
		result, err := p.evaluateRule(rule, qc, chunkText)
		if err != nil {
			// Recover locally with a safe pass-through
			p.log.Warn("Condition rule failed to evaluate, defaulting to pass",
				slog.String("type", string(rule.Type)),
				slog.String("value", rule.Value),
				slog.String("error", err.Error()))
			result = true
		}

		if rule.Negated {
			result = !result
		}

		if result {
			anyTrue = true
		} else {
			allTrue = false
			failed = append(failed, describeRule(rule))
		}
	}

	if logic == model.LogicOr {
		if anyTrue {
			return true, ""
		}
		return false, fmt.Sprintf("no condition matched (OR): %s", strings.Join(failed, "; "))
	}

	if allTrue {
		return true, ""
	}
	return false, fmt.Sprintf("condition failed (AND): %s", strings.Join(failed, "; "))
}

// evaluateRule resolves one rule to a boolean, before negation
func (p *Pipeline) evaluateRule(rule model.Rule, qc *model.QueryContext, chunkText string) (bool, error) {
	switch rule.Type {
	case model.RulePattern:
		return matchPattern(rule.Value, chunkText, qc.Text), nil

	case model.RuleSpeaker:
		return strings.EqualFold(qc.Speaker, rule.Value), nil

	case model.RuleMessageCount:
		return compareMessageCount(rule.Value, qc.MessageCount)

	case model.RuleEmotion:
		return strings.EqualFold(qc.Emotion, rule.Value), nil

	case model.RuleIsGroupChat:
		return qc.GroupChat, nil

	case model.RuleTimeOfDay:
		return withinTimeWindow(rule.Value, qc.Now)

	case model.RuleRandomChance:
		chance := 50.0
		if rule.Value != "" {
			parsed, err := strconv.ParseFloat(rule.Value, 64)
			if err != nil {
				return false, fmt.Errorf("invalid chance value %q: %w", rule.Value, err)
			}
			chance = parsed
		}
		// The roll is drawn once per query, not per candidate
		return qc.RandomRoll*100 < chance, nil

	default:
		return false, fmt.Errorf("unrecognized rule type %q", rule.Type)
	}
}

// matchPattern compiles value as a case-insensitive regular expression; on
// compile failure it falls back to a case-insensitive substring match. The
// pattern matches against both the chunk text and the query text.
func matchPattern(value, chunkText, queryText string) bool {
	re, err := regexp.Compile("(?i)" + value)
	if err != nil {
		needle := strings.ToLower(value)
		return strings.Contains(strings.ToLower(chunkText), needle) ||
			strings.Contains(strings.ToLower(queryText), needle)
	}
	return re.MatchString(chunkText) || re.MatchString(queryText)
}

// compareMessageCount parses "[operator]digits" (default operator ">=") and
// compares against the current message count
func compareMessageCount(value string, count int) (bool, error) {
	value = strings.TrimSpace(value)

	op := ">="
	for _, candidate := range []string{">=", "<=", "!=", ">", "<", "="} {
		if strings.HasPrefix(value, candidate) {
			op = candidate
			value = strings.TrimSpace(value[len(candidate):])
			break
		}
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return false, fmt.Errorf("invalid message count %q: %w", value, err)
	}

	switch op {
	case ">":
		return count > n, nil
	case ">=":
		return count >= n, nil
	case "<":
		return count < n, nil
	case "<=":
		return count <= n, nil
	case "=":
		return count == n, nil
	case "!=":
		return count != n, nil
	}
	return false, fmt.Errorf("unsupported operator %q", op)
}

// withinTimeWindow parses "HH:MM-HH:MM" and checks whether now falls inside
// the window. Windows may wrap midnight.
func withinTimeWindow(value string, now time.Time) (bool, error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return false, fmt.Errorf("invalid time window %q, expected HH:MM-HH:MM", value)
	}

	start, err := parseMinutes(parts[0])
	if err != nil {
		return false, err
	}
	end, err := parseMinutes(parts[1])
	if err != nil {
		return false, err
	}

	current := now.Hour()*60 + now.Minute()

	if start <= end {
		return current >= start && current < end, nil
	}
	// Wraps midnight
	return current >= start || current < end, nil
}

func parseMinutes(value string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func describeRule(rule model.Rule) string {
	negated := ""
	if rule.Negated {
		negated = "not "
	}
	if rule.Value == "" {
		return fmt.Sprintf("%s%s", negated, rule.Type)
	}
	return fmt.Sprintf("%s%s=%q", negated, rule.Type, rule.Value)
}
