package entity

import "time"

const (
	CategoryDistribution = "distribution"
	CategoryDefect       = "defect"
	CategoryReturn       = "return"
)

// Notification is an in-app message addressed to a holder name or to a
// role recipient (see Role.Recipient). Several users may share an address, so
// read state is tracked per user in ReadBy; Read is filled in for the viewer.
type Notification struct {
	ID        string    `json:"id" firestore:"id" bson:"_id"`
	Recipient string    `json:"recipient" firestore:"recipient" bson:"recipient"`
	Title     string    `json:"title" firestore:"title" bson:"title"`
	Message   string    `json:"message" firestore:"message" bson:"message"`
	Category  string    `json:"category" firestore:"category" bson:"category"`
	Link      string    `json:"link,omitempty" firestore:"link" bson:"link"`
	ReadBy    []string  `json:"-" firestore:"readBy" bson:"readBy"`
	Read      bool      `json:"read" firestore:"-" bson:"-"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt" bson:"createdAt"`
}

func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	c.ReadBy = append([]string(nil), n.ReadBy...)
	return &c
}

func (n *Notification) ReadByUser(userID string) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// MarkReadBy records userID as a reader and reports whether anything changed.
func (n *Notification) MarkReadBy(userID string) bool {
	if n.ReadByUser(userID) {
		return false
	}
	n.ReadBy = append(n.ReadBy, userID)
	return true
}
