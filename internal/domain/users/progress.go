package users

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Progress is the gamified onboarding state shown on the investor dashboard.
type Progress struct {
	Level           int      `json:"level"`
	XP              int      `json:"xp"`
	QuestsCompleted []string `json:"questsCompleted"`
	Badges          []string `json:"badges"`
	CurrentQuest    string   `json:"currentQuest"`
}

// DefaultProgress is seeded on an investor's first successful payment.
func DefaultProgress(tier string) Progress {
	return Progress{
		Level:           1,
		XP:              100,
		QuestsCompleted: []string{"first_investment"},
		Badges:          []string{"founding_investor", tier + "_tier"},
		CurrentQuest:    "complete_profile",
	}
}

func (p Progress) JSON() datatypes.JSON {
	b, _ := json.Marshal(p)
	return datatypes.JSON(b)
}
