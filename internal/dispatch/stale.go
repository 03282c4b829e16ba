package dispatch

import (
	"encoding/json"
	"net/http"
)

// StaleIDs interprets one provider response for a request covering ids and
// returns the ids the provider reported as no longer valid.
//
// A 400, 404 or 410 for a single-id request marks that id stale without
// looking at the body. Otherwise a JSON body with a "results" array marks
// ids[i] stale when results[i].error is truthy.
func StaleIDs(status int, body []byte, ids []string) []string {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusGone:
		if len(ids) == 1 {
			return []string{ids[0]}
		}
	}

	var parsed struct {
		Results []struct {
			Error any `json:"error"`
		} `json:"results"`
	}
	if len(body) == 0 || json.Unmarshal(body, &parsed) != nil {
		return nil
	}
	var stale []string
	for i, r := range parsed.Results {
		if i >= len(ids) {
			break
		}
		if truthy(r.Error) {
			stale = append(stale, ids[i])
		}
	}
	return stale
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}
