package repos

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func decodeStringSlice(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	_ = json.Unmarshal(raw, &out)
	return out
}
