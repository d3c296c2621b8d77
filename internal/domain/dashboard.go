package domain

// SwapStat counts requests in one status for the admin dashboard.
type SwapStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// UserGrowthPoint is the cumulative number of sign-ups up to a month.
type UserGrowthPoint struct {
	Month string `json:"month"`
	Users int    `json:"users"`
}

// DashboardData aggregates moderation statistics.
type DashboardData struct {
	SwapStats       []SwapStat        `json:"swapStats"`
	UserGrowth      []UserGrowthPoint `json:"userGrowth"`
	TotalUsers      int               `json:"totalUsers"`
	VerifiedUsers   int               `json:"verifiedUsers"`
	BannedUsers     int               `json:"bannedUsers"`
	UnverifiedUsers int               `json:"unverifiedUsers"`
}
