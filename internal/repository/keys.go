package repository

import "fmt"

// holdsPendingKey is the ZSET indexing pending holds by expiry, used by
// the reaper sweep.
const holdsPendingKey = "holds:pending"

func capacityKey(eventID, tierID string) string {
	return fmt.Sprintf("capacity:%s:%s", eventID, tierID)
}

func holdKey(token string) string {
	return fmt.Sprintf("hold:%s", token)
}

func resolutionKey(token string) string {
	return fmt.Sprintf("resolution:%s", token)
}
