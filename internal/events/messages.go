package events

import (
	"encoding/json"
	"time"

	"github.com/mmynk/ledger/internal/ledger"
)

// BalanceState is the committed amount of one balance.
type BalanceState struct {
	ID       string `json:"id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// BalancesChangedMessage is published after every committed write that
// changed stored balance amounts.
type BalancesChangedMessage struct {
	Event         string         `json:"event"`
	OwnerID       string         `json:"owner_id"`
	TransactionID string         `json:"transaction_id,omitempty"`
	BalanceID     string         `json:"balance_id,omitempty"`
	Balances      []BalanceState `json:"balances"`
	Timestamp     time.Time      `json:"timestamp"`
}

// NewBalancesChangedMessage converts a ledger event to its wire form.
func NewBalancesChangedMessage(e ledger.ChangeEvent) *BalancesChangedMessage {
	msg := &BalancesChangedMessage{
		Event:         string(e.Type),
		OwnerID:       e.OwnerID,
		TransactionID: e.TransactionID,
		BalanceID:     e.BalanceID,
		Balances:      make([]BalanceState, 0, len(e.Balances)),
		Timestamp:     e.At,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	for _, b := range e.Balances {
		msg.Balances = append(msg.Balances, BalanceState{
			ID:       b.BalanceID,
			Amount:   b.Amount.StringFixed(2),
			Currency: string(b.Currency),
		})
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *BalancesChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BalancesChangedMessageFromJSON decodes a message.
func BalancesChangedMessageFromJSON(data []byte) (*BalancesChangedMessage, error) {
	var msg BalancesChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
