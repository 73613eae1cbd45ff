// Package api defines the JSON messages of the ledger.v1 RPC services.
//
// Amounts travel as decimal strings with two fraction digits ("12.30")
// and dates as "YYYY-MM-DD".
package api

// Balance is a named account and its derived amount.
type Balance struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"`
}

type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Transaction is either an income_outcome (Type and BalanceID set) or a
// transfer (BalanceFromID and BalanceToID set).
type Transaction struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Type          string `json:"type,omitempty"`
	BalanceID     string `json:"balance_id,omitempty"`
	BalanceFromID string `json:"balance_from_id,omitempty"`
	BalanceToID   string `json:"balance_to_id,omitempty"`
	CategoryID    string `json:"category_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Note          string `json:"note,omitempty"`
	Currency      string `json:"currency"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

// TransactionInput is the client-supplied form of a new transaction.
type TransactionInput struct {
	Kind          string `json:"kind"`
	Type          string `json:"type,omitempty"`
	BalanceID     string `json:"balance_id,omitempty"`
	BalanceFromID string `json:"balance_from_id,omitempty"`
	BalanceToID   string `json:"balance_to_id,omitempty"`
	CategoryID    string `json:"category_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Note          string `json:"note,omitempty"`
	Currency      string `json:"currency"`
}

// TransactionPatch lists the fields to change. Omitted fields keep their
// stored value; an empty string clears an optional field.
type TransactionPatch struct {
	Kind          *string `json:"kind,omitempty"`
	Type          *string `json:"type,omitempty"`
	BalanceID     *string `json:"balance_id,omitempty"`
	BalanceFromID *string `json:"balance_from_id,omitempty"`
	BalanceToID   *string `json:"balance_to_id,omitempty"`
	CategoryID    *string `json:"category_id,omitempty"`
	Name          *string `json:"name,omitempty"`
	Amount        *string `json:"amount,omitempty"`
	Date          *string `json:"date,omitempty"`
	Note          *string `json:"note,omitempty"`
	Currency      *string `json:"currency,omitempty"`
}

type ReconcileResult struct {
	BalanceID string `json:"balance_id"`
	Name      string `json:"name"`
	Before    string `json:"before"`
	After     string `json:"after"`
	Drifted   bool   `json:"drifted"`
}

// BalanceService messages

type CreateBalanceRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type CreateBalanceResponse struct {
	Balance Balance `json:"balance"`
}

type GetBalanceRequest struct {
	BalanceID string `json:"balance_id"`
}

type GetBalanceResponse struct {
	Balance Balance `json:"balance"`
}

type ListBalancesRequest struct{}

type ListBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

type UpdateBalanceRequest struct {
	BalanceID string  `json:"balance_id"`
	Name      *string `json:"name,omitempty"`
	Currency  *string `json:"currency,omitempty"`
}

type UpdateBalanceResponse struct {
	Balance Balance `json:"balance"`
}

type DeleteBalanceRequest struct {
	BalanceID string `json:"balance_id"`
}

type DeleteBalanceResponse struct{}

type RecomputeBalanceRequest struct {
	BalanceID string `json:"balance_id"`
}

type RecomputeBalanceResponse struct {
	Balance Balance `json:"balance"`
}

type ReconcileBalancesRequest struct{}

type ReconcileBalancesResponse struct {
	Results []ReconcileResult `json:"results"`
}

// CategoryService messages

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type CreateCategoryResponse struct {
	Category Category `json:"category"`
}

type GetCategoryRequest struct {
	CategoryID string `json:"category_id"`
}

type GetCategoryResponse struct {
	Category Category `json:"category"`
}

type ListCategoriesRequest struct{}

type ListCategoriesResponse struct {
	Categories []Category `json:"categories"`
}

type RenameCategoryRequest struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type RenameCategoryResponse struct {
	Category Category `json:"category"`
}

type DeleteCategoryRequest struct {
	CategoryID string `json:"category_id"`
}

type DeleteCategoryResponse struct{}

// TransactionService messages

type ValidateTransactionRequest struct {
	Transaction TransactionInput `json:"transaction"`
}

// ValidateTransactionResponse carries the normalized transaction. Nothing
// is persisted and no ID is assigned.
type ValidateTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type CreateTransactionRequest struct {
	Transaction TransactionInput `json:"transaction"`
}

type CreateTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type GetTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type GetTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

// ListTransactionsRequest filters by every non-empty field. From and To
// are inclusive dates.
type ListTransactionsRequest struct {
	Kind       string `json:"kind,omitempty"`
	BalanceID  string `json:"balance_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
}

type UpdateTransactionRequest struct {
	TransactionID string           `json:"transaction_id"`
	Patch         TransactionPatch `json:"patch"`
}

type UpdateTransactionResponse struct {
	Transaction Transaction `json:"transaction"`
}

type DeleteTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type DeleteTransactionResponse struct{}
