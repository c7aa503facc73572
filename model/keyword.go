package model

import "encoding/json"

// DefaultKeywordWeight is the boost assigned to legacy bare-string keywords
const DefaultKeywordWeight = 1.5

// Keyword is a stored trigger word with a multiplicative boost weight
type Keyword struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// UnmarshalJSON accepts both the object form {"text":..,"weight":..} and the
// legacy bare-string form, which is normalized to the default weight.
func (k *Keyword) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		k.Text = text
		k.Weight = DefaultKeywordWeight
		return nil
	}

	type alias Keyword
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	*k = Keyword(a)
	if k.Weight < 0 {
		k.Weight = 0
	}
	return nil
}
