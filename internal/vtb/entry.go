package vtb

import "encoding/json"

// Entry is one curated virtual-streamer account.
type Entry struct {
	// ID is the platform user id (mid).
	ID int64 `json:"mid"`

	// Name is the display name, used to match fan badges.
	Name string `json:"uname"`

	// RoomID is the live room id when the mirror provides it.
	RoomID int64 `json:"roomid,omitempty"`
}

// List is the curated reference list, replaced wholesale on each refresh.
type List []Entry

// rawEntry accepts null and missing fields from mirror responses.
type rawEntry struct {
	Mid    *int64  `json:"mid"`
	Uname  *string `json:"uname"`
	RoomID int64   `json:"roomid"`
}

// normalize keeps only entries with a non-zero id and a non-empty name.
// Elements that do not decode as an entry are skipped.
func normalize(raw []json.RawMessage) List {
	list := make(List, 0, len(raw))
	for _, elem := range raw {
		var r rawEntry
		if err := json.Unmarshal(elem, &r); err != nil {
			continue
		}
		if r.Mid == nil || *r.Mid == 0 || r.Uname == nil || *r.Uname == "" {
			continue
		}
		list = append(list, Entry{ID: *r.Mid, Name: *r.Uname, RoomID: r.RoomID})
	}
	return list
}
