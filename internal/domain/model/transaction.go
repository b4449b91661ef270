package model

import (
	"sort"
	"time"
)

// Transaction is a transfer record from the upstream ledger.
type Transaction struct {
	Date           time.Time `json:"date"`
	Amount         float64   `json:"amount"`
	SenderEmail    string    `json:"senderEmail"`
	RecipientEmail string    `json:"recipientEmail"`
}

// TransactionHistory is the response of the per-user transaction listing:
// the account's transactions plus its current identity and balance.
type TransactionHistory struct {
	Email        string        `json:"email"`
	Balance      float64       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

// SortNewestFirst orders transactions by date descending, matching the
// display order of the transaction tables.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}

// NewTransactionRequest is the payload for creating a transfer.
type NewTransactionRequest struct {
	RecipientEmail string  `json:"recipientEmail"`
	Amount         float64 `json:"amount"`
}
