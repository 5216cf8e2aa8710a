package config

import (
	"os"

	"github.com/titanous/json5"
)

// applyOverlay merges a JSON5 overlay file into s. Fields tagged `json:"-"`
// (secrets) can only come from the environment. A missing file is ignored so
// a bare deployment can run on env vars alone.
func (s *Settings) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json5.Unmarshal(data, s)
}
