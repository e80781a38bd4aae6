package config

import "time"

type Timer struct {
	Days    uint32 `json:"days"`
	Hours   uint32 `json:"hours"`
	Minutes uint32 `json:"minutes"`
	Seconds uint32 `json:"seconds"`
}

// Duration converts the timer to a time.Duration. A zero timer is zero.
func (t Timer) Duration() time.Duration {
	return time.Duration(CalculateMillisecondsOfPeriod(t)) * time.Millisecond
}

func (t Timer) IsZero() bool {
	return t == Timer{}
}

func CalculateMillisecondsOfPeriod(timer Timer) uint64 {
	return uint64(timer.Days)*24*60*60*1000 +
		uint64(timer.Hours)*60*60*1000 +
		uint64(timer.Minutes)*60*1000 +
		uint64(timer.Seconds)*1000
}
