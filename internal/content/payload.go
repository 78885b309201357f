package content

import (
	"encoding/json"
	"errors"
)

// Two payload shapes exist in the wild. The current shape aggregates a whole
// day: {"date": ..., "entries": [...]}. Rows written before the aggregation
// change hold a single entry: {"date": ..., "id": ..., "text": ...}. The
// presence of the "entries" array is the discriminator; the legacy shape is
// decoded as its own explicit variant, never by duck typing fields off a map.

type dayPayload struct {
	Date    string         `json:"date"`
	Entries []JournalEntry `json:"entries"`
}

type legacyEntryPayload struct {
	Date      string   `json:"date"`
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	MediaURLs []string `json:"mediaUrls"`
}

var errUnknownPayloadShape = errors.New("content: unrecognized entry payload shape")

// decodeDayPayload turns decrypted plaintext of either shape into the
// current DailyEntry form.
func decodeDayPayload(plaintext []byte) (DailyEntry, error) {
	var probe struct {
		Date    string          `json:"date"`
		Entries json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(plaintext, &probe); err != nil {
		return DailyEntry{}, err
	}

	if probe.Entries != nil {
		var p dayPayload
		if err := json.Unmarshal(plaintext, &p); err != nil {
			return DailyEntry{}, err
		}
		return DailyEntry{Date: p.Date, Entries: p.Entries}, nil
	}

	var legacy legacyEntryPayload
	if err := json.Unmarshal(plaintext, &legacy); err != nil {
		return DailyEntry{}, err
	}
	if legacy.ID == "" && legacy.Text == "" {
		return DailyEntry{}, errUnknownPayloadShape
	}
	return DailyEntry{
		Date: legacy.Date,
		Entries: []JournalEntry{{
			ID:        legacy.ID,
			Text:      legacy.Text,
			CreatedAt: legacy.CreatedAt,
			MediaURLs: legacy.MediaURLs,
		}},
	}, nil
}
