package model

// RuleType enumerates the supported condition rule kinds
type RuleType string

const (
	RulePattern      RuleType = "pattern"
	RuleSpeaker      RuleType = "speaker"
	RuleMessageCount RuleType = "messageCount"
	RuleEmotion      RuleType = "emotion"
	RuleIsGroupChat  RuleType = "isGroupChat"
	RuleTimeOfDay    RuleType = "timeOfDay"
	RuleRandomChance RuleType = "randomChance"
)

// ConditionLogic combines the rule results of a condition set
type ConditionLogic string

const (
	LogicAnd ConditionLogic = "AND"
	LogicOr  ConditionLogic = "OR"
)

// Rule is one boolean activation rule of a chunk
type Rule struct {
	Type    RuleType `json:"type"`
	Negated bool     `json:"negated,omitempty"`
	Value   string   `json:"value,omitempty"`
}

// ConditionSet is the activation rule set of a chunk.
// A disabled or empty set always evaluates to pass.
type ConditionSet struct {
	Enabled bool           `json:"enabled"`
	Logic   ConditionLogic `json:"logic,omitempty"`
	Rules   []Rule         `json:"rules,omitempty"`
}

// IsEmpty reports whether the set carries no rules to evaluate
func (s *ConditionSet) IsEmpty() bool {
	return s == nil || !s.Enabled || len(s.Rules) == 0
}
