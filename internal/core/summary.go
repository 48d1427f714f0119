package core

// FormattedTransaction is a TransactionRecord ready for display.
type FormattedTransaction struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   string          `json:"amount"`
	Type     TransactionType `json:"type"`
	Category Category        `json:"category"`
	Date     string          `json:"date"`
}

// Highlight is one summary card above the transaction list.
type Highlight struct {
	Amount          string `json:"amount"`
	LastTransaction string `json:"lastTransaction"`
}

// HighlightTotals groups the three summary cards.
type HighlightTotals struct {
	Entries    Highlight `json:"entries"`
	Expensives Highlight `json:"expensives"`
	Total      Highlight `json:"total"`
}
