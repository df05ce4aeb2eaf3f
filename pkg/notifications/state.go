package notifications

// State is an immutable projection of the store. Records are ordered
// newest first; records with equal CreatedAt keep the later ingestion first.
// Callers must not modify Records.
type State struct {
	Records     []Record `json:"records"`
	UnreadCount int      `json:"unreadCount"`
	Version     uint64   `json:"version"`
}

// SelectUnreadCount returns the badge count.
func (s State) SelectUnreadCount() int {
	return s.UnreadCount
}

// SelectFeed returns at most limit records, newest first. A limit of zero or
// less returns the whole feed.
func (s State) SelectFeed(limit int) []Record {
	if limit <= 0 || limit >= len(s.Records) {
		return s.Records
	}
	return s.Records[:limit]
}

// SelectByPriority returns the records of priority p in feed order.
func (s State) SelectByPriority(p Priority) []Record {
	out := make([]Record, 0)
	for _, r := range s.Records {
		if r.Priority == p {
			out = append(out, r)
		}
	}
	return out
}

// SelectUnread returns the unread records in feed order.
func (s State) SelectUnread() []Record {
	out := make([]Record, 0, s.UnreadCount)
	for _, r := range s.Records {
		if !r.Read {
			out = append(out, r)
		}
	}
	return out
}

// Find looks a record up by id.
func (s State) Find(id string) (Record, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
