package user

import "time"

// User is a wallet identity. Users are created on first sign-in and
// never deleted in-band.
type User struct {
	ID                   string    `json:"id" db:"id"`
	WalletAddress        string    `json:"wallet_address" db:"wallet_address"`
	FarcasterFID         string    `json:"farcaster_fid,omitempty" db:"farcaster_fid"`
	Nonce                string    `json:"-" db:"nonce"`
	TotalProjectsTracked int       `json:"total_projects_tracked" db:"total_projects_tracked"`
	StreakDays           int       `json:"streak_days" db:"streak_days"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}
