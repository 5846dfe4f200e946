package entity

// AdminStats aggregates per-agent chat counts for the dashboard.
type AdminStats struct {
	AdminID     string `json:"id"`
	Name        string `json:"name"`
	SolvedCount int    `json:"solved_count"`
	ClosedCount int    `json:"closed_count"`
	ActiveCount int    `json:"active_count"`
}

// OverallStats is the superadmin aggregate view.
type OverallStats struct {
	TotalChats    int          `json:"total_chats"`
	OpenChats     int          `json:"open_chats"`
	ClaimedChats  int          `json:"claimed_chats"`
	SolvedChats   int          `json:"solved_chats"`
	ClosedChats   int          `json:"closed_chats"`
	TotalMessages int          `json:"total_messages"`
	Admins        []AdminStats `json:"admins"`
}
