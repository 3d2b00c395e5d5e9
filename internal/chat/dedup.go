package chat

import "time"

// DedupWindow is the timestamp proximity inside which a pushed message with
// matching text and sender is considered a duplicate of one already held.
const DedupWindow = time.Second

// isDuplicate reports whether incoming is already represented in the list.
// The ID check alone is not enough: the realtime push can race ahead of the
// insert's response, arriving while the local copy still carries its
// provisional ID. The content+sender+proximity heuristic covers that window.
func isDuplicate(existing []Message, incoming Message) bool {
	for i := range existing {
		if existing[i].ID == incoming.ID {
			return true
		}
		if existing[i].Text == incoming.Text &&
			existing[i].SenderID == incoming.SenderID &&
			existing[i].SenderType == incoming.SenderType &&
			within(existing[i].CreatedAt, incoming.CreatedAt, DedupWindow) {
			return true
		}
	}
	return false
}

func within(a, b time.Time, d time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d
}
