package model

type StatsIncrement struct {
	AddSeconds        int  `json:"addSeconds"`
	IsSessionComplete bool `json:"isSessionComplete"`
}

type DailyStats struct {
	Day            string `json:"day"`
	TotalFocusTime int    `json:"totalFocusTime"`
	FocusSessions  int    `json:"focusSessions"`
}

type StatsSummary struct {
	Today  DailyStats   `json:"today"`
	Weekly []DailyStats `json:"weekly"`
}

const (
	RankPeriodDaily  = "daily"
	RankPeriodWeekly = "weekly"
)

type RankEntry struct {
	Rank           int    `json:"rank"`
	Username       string `json:"username"`
	TotalFocusTime int    `json:"totalFocusTime"`
	FocusSessions  int    `json:"focusSessions"`
}
