package usage

import "time"

// Usage is a principal's advisory consumption in the current window.
type Usage struct {
	Plan     string    `json:"plan"`
	Limit    int       `json:"limit"`
	Used     int       `json:"used"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Remaining returns how many advisory runs are left in the window.
func (u Usage) Remaining() int {
	return max(u.Limit-u.Used, 0)
}

func (u Usage) allows(n int) bool {
	return n <= 0 || u.Used+n <= u.Limit
}

// absorb adds other's consumption, capped at the limit.
func (u Usage) absorb(other Usage) Usage {
	u.Used = min(u.Used+other.Used, u.Limit)
	return u
}

func (u Usage) refund(n int) Usage {
	if n > 0 {
		u.Used = max(u.Used-n, 0)
	}
	return u
}
