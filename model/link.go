package model

// LinkMode is the relationship strength between two chunks
type LinkMode string

const (
	// LinkForce pulls the target in whenever the source is selected
	LinkForce LinkMode = "force"
	// LinkSoft boosts the target's score instead of forcing inclusion
	LinkSoft LinkMode = "soft"
)

// SoftLinkBoost is the score multiplier applied to soft link targets
const SoftLinkBoost = 1.25

// ChunkLink is a directed relationship from one chunk to another
type ChunkLink struct {
	TargetHash string   `json:"target_hash"`
	Mode       LinkMode `json:"mode"`
}

// GroupMode determines whether group members bundle together or exclude each other
type GroupMode string

const (
	GroupInclusive GroupMode = "inclusive"
	GroupExclusive GroupMode = "exclusive"
)

// GroupLinkType is the member coupling of an inclusive group
type GroupLinkType string

const (
	// GroupLinkSoft applies the group boost to co-members of a selected member
	GroupLinkSoft GroupLinkType = "soft"
	// GroupLinkHard force-includes all co-members of a selected member
	GroupLinkHard GroupLinkType = "hard"
)

// Group is a named collection of chunk hashes with selection semantics
type Group struct {
	Name    string    `json:"name"`
	Mode    GroupMode `json:"mode"`
	Members []string  `json:"members"`

	// Inclusive groups
	LinkType GroupLinkType `json:"link_type,omitempty"`
	Boost    float64       `json:"boost,omitempty"`

	// Exclusive groups
	Mandatory bool `json:"mandatory,omitempty"`
}

// Contains reports whether hash is a member of the group
func (g *Group) Contains(hash string) bool {
	for _, member := range g.Members {
		if member == hash {
			return true
		}
	}
	return false
}
