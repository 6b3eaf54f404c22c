package model

import "time"

type Badge struct {
	Code        string
	Name        string
	Description string
	ImageURL    string
}

type UserBadge struct {
	Badge
	AwardedAt time.Time
}

const (
	BadgeFirstDrawing = "FIRST_DRAWING"
	BadgeStreak7      = "STREAK_7"
	BadgeStreak30     = "STREAK_30"
	BadgeStreak100    = "STREAK_100"
	BadgeReferrer5    = "REFERRER_5"
)

var BadgeCatalog = []Badge{
	{
		Code:        BadgeFirstDrawing,
		Name:        "First Mark",
		Description: "Recorded a first drawing session",
	},
	{
		Code:        BadgeStreak7,
		Name:        "Week of Existence",
		Description: "Claimed the daily streak 7 days in a row",
	},
	{
		Code:        BadgeStreak30,
		Name:        "Month of Existence",
		Description: "Claimed the daily streak 30 days in a row",
	},
	{
		Code:        BadgeStreak100,
		Name:        "Centurion",
		Description: "Claimed the daily streak 100 days in a row",
	},
	{
		Code:        BadgeReferrer5,
		Name:        "Recruiter",
		Description: "Referred 5 people",
	},
}
