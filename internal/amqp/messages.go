package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change operations carried by ChangeMessage.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ChangeMessage announces that a ledger row was written. It carries only the
// table and id; consumers read the current row from the database.
type ChangeMessage struct {
	Table     string    `json:"table"`
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(table string, id int64, op string) ChangeMessage {
	return ChangeMessage{
		Table:     table,
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

func (m ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and checks a message body.
func ChangeMessageFromJSON(data []byte) (ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChangeMessage{}, err
	}
	if msg.Table == "" || msg.ID <= 0 {
		return ChangeMessage{}, fmt.Errorf("incomplete change message: table=%q id=%d", msg.Table, msg.ID)
	}
	switch msg.Op {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return ChangeMessage{}, fmt.Errorf("unknown change operation %q", msg.Op)
	}
	return msg, nil
}
