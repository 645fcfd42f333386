package bilibili

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Profile is the public card of a user.
type Profile struct {
	ID          int64
	Name        string
	AvatarURL   string
	FanCount    int64
	FollowCount int64
	FollowedIDs map[int64]struct{}
}

// Follows reports whether the user follows id.
func (p Profile) Follows(id int64) bool {
	_, ok := p.FollowedIDs[id]
	return ok
}

// Medal is a fan badge worn for one streamer.
type Medal struct {
	OwnerName   string
	Name        string
	Level       int
	ColorBorder int
	ColorStart  int
	ColorEnd    int
}

// flexInt decodes ids the API sometimes sends as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type searchResponse struct {
	Data *struct {
		Result []struct {
			Uname string  `json:"uname"`
			Mid   flexInt `json:"mid"`
		} `json:"result"`
	} `json:"data"`
}

type cardResponse struct {
	Card *struct {
		Name       string    `json:"name"`
		Mid        flexInt   `json:"mid"`
		Face       string    `json:"face"`
		Fans       flexInt   `json:"fans"`
		Attention  flexInt   `json:"attention"`
		Attentions []flexInt `json:"attentions"`
	} `json:"card"`
}

type medalWallResponse struct {
	Data *struct {
		List []struct {
			TargetName string `json:"target_name"`
			MedalInfo  struct {
				MedalName        string `json:"medal_name"`
				Level            int    `json:"level"`
				MedalColorBorder int    `json:"medal_color_border"`
				MedalColorStart  int    `json:"medal_color_start"`
				MedalColorEnd    int    `json:"medal_color_end"`
			} `json:"medal_info"`
		} `json:"list"`
	} `json:"data"`
}

var _ json.Unmarshaler = (*flexInt)(nil)
