package hyper

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	json "github.com/goccy/go-json"
)

// Params is one hyperparameter set: parameter name to a scalar or small
// sequence value (numbers, strings, booleans, slices of numbers).
type Params map[string]any

// Fingerprint returns a hex digest identifying p for deduplication.
// Serialization sorts keys, so two sets that are equal as mappings produce
// the same digest regardless of construction order. Not meant to resist
// adversarial collisions.
func Fingerprint(p Params) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("serializing hyperparameters: %w", err)
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
