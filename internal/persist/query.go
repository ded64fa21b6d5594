package persist

import (
	"easyprofile/internal/types"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
)

// Query evaluates a JMESPath expression against the snapshot's categories, for example
// "BOOL.boolOne" or "keys(STR)". It returns nil and no error when nothing matches.
func Query(expression string, snap types.Snapshot) (any, error) {
	doc, err := plain(snap)
	if err != nil {
		return nil, err
	}
	v, err := jmespath.Search(expression, doc)
	if err != nil {
		return nil, fmt.Errorf("jmespath: %w", err)
	}
	return v, nil
}

// plain converts typed snapshot values into the generic JSON shapes jmespath walks.
func plain(snap types.Snapshot) (map[string]any, error) {
	b, err := json.Marshal(snap.Categories)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
