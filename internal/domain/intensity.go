package domain

import (
	"encoding/json"
	"fmt"
)

// Category is a Saffir-Simpson intensity bin derived from maximum sustained
// wind in knots.
type Category int

const (
	CategoryUnknown Category = iota - 2
	TropicalDepression
	TropicalStorm
	Category1
	Category2
	Category3
	Category4
	Category5
)

// Lower wind bounds (kt) for each bin above tropical depression.
const (
	tropicalStormKt = 34
	category1Kt     = 64
	category2Kt     = 83
	category3Kt     = 96
	category4Kt     = 113
	category5Kt     = 137
)

var categoryNames = map[Category]string{
	CategoryUnknown:    "unknown",
	TropicalDepression: "TD",
	TropicalStorm:      "TS",
	Category1:          "C1",
	Category2:          "C2",
	Category3:          "C3",
	Category4:          "C4",
	Category5:          "C5",
}

// ClassifyWind maps a maximum sustained wind speed to its category.
// Negative speeds are the upstream "missing" sentinel and map to CategoryUnknown.
func ClassifyWind(windKt float64) Category {
	switch {
	case windKt < 0:
		return CategoryUnknown
	case windKt < tropicalStormKt:
		return TropicalDepression
	case windKt < category1Kt:
		return TropicalStorm
	case windKt < category2Kt:
		return Category1
	case windKt < category3Kt:
		return Category2
	case windKt < category4Kt:
		return Category3
	case windKt < category5Kt:
		return Category4
	default:
		return Category5
	}
}

// CategoryFromLevel returns the category for a Saffir-Simpson level, where 0
// means tropical storm and 1–5 the hurricane categories.
func CategoryFromLevel(level int) (Category, error) {
	if level < 0 || level > 5 {
		return CategoryUnknown, fmt.Errorf("category level %d out of range 0-5", level)
	}
	return TropicalStorm + Category(level), nil
}

// IsHurricane reports whether c is category 1 or above.
func (c Category) IsHurricane() bool {
	return c >= Category1
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return categoryNames[CategoryUnknown]
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for k, v := range categoryNames {
		if v == s {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", s)
}
