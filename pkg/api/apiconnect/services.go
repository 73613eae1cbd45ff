package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/ledger/pkg/api"
)

const (
	BalanceServiceName     = "ledger.v1.BalanceService"
	CategoryServiceName    = "ledger.v1.CategoryService"
	TransactionServiceName = "ledger.v1.TransactionService"
)

// Procedure paths.
const (
	BalanceServiceCreateBalanceProcedure     = "/ledger.v1.BalanceService/CreateBalance"
	BalanceServiceGetBalanceProcedure        = "/ledger.v1.BalanceService/GetBalance"
	BalanceServiceListBalancesProcedure      = "/ledger.v1.BalanceService/ListBalances"
	BalanceServiceUpdateBalanceProcedure     = "/ledger.v1.BalanceService/UpdateBalance"
	BalanceServiceDeleteBalanceProcedure     = "/ledger.v1.BalanceService/DeleteBalance"
	BalanceServiceRecomputeBalanceProcedure  = "/ledger.v1.BalanceService/RecomputeBalance"
	BalanceServiceReconcileBalancesProcedure = "/ledger.v1.BalanceService/ReconcileBalances"

	CategoryServiceCreateCategoryProcedure = "/ledger.v1.CategoryService/CreateCategory"
	CategoryServiceGetCategoryProcedure    = "/ledger.v1.CategoryService/GetCategory"
	CategoryServiceListCategoriesProcedure = "/ledger.v1.CategoryService/ListCategories"
	CategoryServiceRenameCategoryProcedure = "/ledger.v1.CategoryService/RenameCategory"
	CategoryServiceDeleteCategoryProcedure = "/ledger.v1.CategoryService/DeleteCategory"

	TransactionServiceValidateTransactionProcedure = "/ledger.v1.TransactionService/ValidateTransaction"
	TransactionServiceCreateTransactionProcedure   = "/ledger.v1.TransactionService/CreateTransaction"
	TransactionServiceGetTransactionProcedure      = "/ledger.v1.TransactionService/GetTransaction"
	TransactionServiceListTransactionsProcedure    = "/ledger.v1.TransactionService/ListTransactions"
	TransactionServiceUpdateTransactionProcedure   = "/ledger.v1.TransactionService/UpdateTransaction"
	TransactionServiceDeleteTransactionProcedure   = "/ledger.v1.TransactionService/DeleteTransaction"
)

// BalanceServiceHandler is implemented by the server side of ledger.v1.BalanceService.
type BalanceServiceHandler interface {
	CreateBalance(context.Context, *connect.Request[api.CreateBalanceRequest]) (*connect.Response[api.CreateBalanceResponse], error)
	GetBalance(context.Context, *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error)
	ListBalances(context.Context, *connect.Request[api.ListBalancesRequest]) (*connect.Response[api.ListBalancesResponse], error)
	UpdateBalance(context.Context, *connect.Request[api.UpdateBalanceRequest]) (*connect.Response[api.UpdateBalanceResponse], error)
	DeleteBalance(context.Context, *connect.Request[api.DeleteBalanceRequest]) (*connect.Response[api.DeleteBalanceResponse], error)
	RecomputeBalance(context.Context, *connect.Request[api.RecomputeBalanceRequest]) (*connect.Response[api.RecomputeBalanceResponse], error)
	ReconcileBalances(context.Context, *connect.Request[api.ReconcileBalancesRequest]) (*connect.Response[api.ReconcileBalancesResponse], error)
}

// CategoryServiceHandler is implemented by the server side of ledger.v1.CategoryService.
type CategoryServiceHandler interface {
	CreateCategory(context.Context, *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error)
	GetCategory(context.Context, *connect.Request[api.GetCategoryRequest]) (*connect.Response[api.GetCategoryResponse], error)
	ListCategories(context.Context, *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error)
	RenameCategory(context.Context, *connect.Request[api.RenameCategoryRequest]) (*connect.Response[api.RenameCategoryResponse], error)
	DeleteCategory(context.Context, *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.DeleteCategoryResponse], error)
}

// TransactionServiceHandler is implemented by the server side of ledger.v1.TransactionService.
type TransactionServiceHandler interface {
	ValidateTransaction(context.Context, *connect.Request[api.ValidateTransactionRequest]) (*connect.Response[api.ValidateTransactionResponse], error)
	CreateTransaction(context.Context, *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error)
	GetTransaction(context.Context, *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	UpdateTransaction(context.Context, *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.UpdateTransactionResponse], error)
	DeleteTransaction(context.Context, *connect.Request[api.DeleteTransactionRequest]) (*connect.Response[api.DeleteTransactionResponse], error)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
}

func handle[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// NewBalanceServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewBalanceServiceHandler(svc BalanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, BalanceServiceCreateBalanceProcedure, svc.CreateBalance, opts)
	handle(mux, BalanceServiceGetBalanceProcedure, svc.GetBalance, opts)
	handle(mux, BalanceServiceListBalancesProcedure, svc.ListBalances, opts)
	handle(mux, BalanceServiceUpdateBalanceProcedure, svc.UpdateBalance, opts)
	handle(mux, BalanceServiceDeleteBalanceProcedure, svc.DeleteBalance, opts)
	handle(mux, BalanceServiceRecomputeBalanceProcedure, svc.RecomputeBalance, opts)
	handle(mux, BalanceServiceReconcileBalancesProcedure, svc.ReconcileBalances, opts)
	return "/" + BalanceServiceName + "/", mux
}

// NewCategoryServiceHandler builds an HTTP handler for ledger.v1.CategoryService.
func NewCategoryServiceHandler(svc CategoryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, CategoryServiceCreateCategoryProcedure, svc.CreateCategory, opts)
	handle(mux, CategoryServiceGetCategoryProcedure, svc.GetCategory, opts)
	handle(mux, CategoryServiceListCategoriesProcedure, svc.ListCategories, opts)
	handle(mux, CategoryServiceRenameCategoryProcedure, svc.RenameCategory, opts)
	handle(mux, CategoryServiceDeleteCategoryProcedure, svc.DeleteCategory, opts)
	return "/" + CategoryServiceName + "/", mux
}

// NewTransactionServiceHandler builds an HTTP handler for ledger.v1.TransactionService.
func NewTransactionServiceHandler(svc TransactionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	handle(mux, TransactionServiceValidateTransactionProcedure, svc.ValidateTransaction, opts)
	handle(mux, TransactionServiceCreateTransactionProcedure, svc.CreateTransaction, opts)
	handle(mux, TransactionServiceGetTransactionProcedure, svc.GetTransaction, opts)
	handle(mux, TransactionServiceListTransactionsProcedure, svc.ListTransactions, opts)
	handle(mux, TransactionServiceUpdateTransactionProcedure, svc.UpdateTransaction, opts)
	handle(mux, TransactionServiceDeleteTransactionProcedure, svc.DeleteTransaction, opts)
	return "/" + TransactionServiceName + "/", mux
}

// BalanceServiceClient is a client for ledger.v1.BalanceService.
type BalanceServiceClient struct {
	createBalance     *connect.Client[api.CreateBalanceRequest, api.CreateBalanceResponse]
	getBalance        *connect.Client[api.GetBalanceRequest, api.GetBalanceResponse]
	listBalances      *connect.Client[api.ListBalancesRequest, api.ListBalancesResponse]
	updateBalance     *connect.Client[api.UpdateBalanceRequest, api.UpdateBalanceResponse]
	deleteBalance     *connect.Client[api.DeleteBalanceRequest, api.DeleteBalanceResponse]
	recomputeBalance  *connect.Client[api.RecomputeBalanceRequest, api.RecomputeBalanceResponse]
	reconcileBalances *connect.Client[api.ReconcileBalancesRequest, api.ReconcileBalancesResponse]
}

// NewBalanceServiceClient constructs a client for ledger.v1.BalanceService.
// baseURL is the server root, e.g. http://localhost:8080.
func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BalanceServiceClient{
		createBalance:     connect.NewClient[api.CreateBalanceRequest, api.CreateBalanceResponse](httpClient, baseURL+BalanceServiceCreateBalanceProcedure, opts...),
		getBalance:        connect.NewClient[api.GetBalanceRequest, api.GetBalanceResponse](httpClient, baseURL+BalanceServiceGetBalanceProcedure, opts...),
		listBalances:      connect.NewClient[api.ListBalancesRequest, api.ListBalancesResponse](httpClient, baseURL+BalanceServiceListBalancesProcedure, opts...),
		updateBalance:     connect.NewClient[api.UpdateBalanceRequest, api.UpdateBalanceResponse](httpClient, baseURL+BalanceServiceUpdateBalanceProcedure, opts...),
		deleteBalance:     connect.NewClient[api.DeleteBalanceRequest, api.DeleteBalanceResponse](httpClient, baseURL+BalanceServiceDeleteBalanceProcedure, opts...),
		recomputeBalance:  connect.NewClient[api.RecomputeBalanceRequest, api.RecomputeBalanceResponse](httpClient, baseURL+BalanceServiceRecomputeBalanceProcedure, opts...),
		reconcileBalances: connect.NewClient[api.ReconcileBalancesRequest, api.ReconcileBalancesResponse](httpClient, baseURL+BalanceServiceReconcileBalancesProcedure, opts...),
	}
}

func (c *BalanceServiceClient) CreateBalance(ctx context.Context, req *connect.Request[api.CreateBalanceRequest]) (*connect.Response[api.CreateBalanceResponse], error) {
	return c.createBalance.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) ListBalances(ctx context.Context, req *connect.Request[api.ListBalancesRequest]) (*connect.Response[api.ListBalancesResponse], error) {
	return c.listBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) UpdateBalance(ctx context.Context, req *connect.Request[api.UpdateBalanceRequest]) (*connect.Response[api.UpdateBalanceResponse], error) {
	return c.updateBalance.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) DeleteBalance(ctx context.Context, req *connect.Request[api.DeleteBalanceRequest]) (*connect.Response[api.DeleteBalanceResponse], error) {
	return c.deleteBalance.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) RecomputeBalance(ctx context.Context, req *connect.Request[api.RecomputeBalanceRequest]) (*connect.Response[api.RecomputeBalanceResponse], error) {
	return c.recomputeBalance.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) ReconcileBalances(ctx context.Context, req *connect.Request[api.ReconcileBalancesRequest]) (*connect.Response[api.ReconcileBalancesResponse], error) {
	return c.reconcileBalances.CallUnary(ctx, req)
}

// CategoryServiceClient is a client for ledger.v1.CategoryService.
type CategoryServiceClient struct {
	createCategory *connect.Client[api.CreateCategoryRequest, api.CreateCategoryResponse]
	getCategory    *connect.Client[api.GetCategoryRequest, api.GetCategoryResponse]
	listCategories *connect.Client[api.ListCategoriesRequest, api.ListCategoriesResponse]
	renameCategory *connect.Client[api.RenameCategoryRequest, api.RenameCategoryResponse]
	deleteCategory *connect.Client[api.DeleteCategoryRequest, api.DeleteCategoryResponse]
}

// NewCategoryServiceClient constructs a client for ledger.v1.CategoryService.
func NewCategoryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CategoryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &CategoryServiceClient{
		createCategory: connect.NewClient[api.CreateCategoryRequest, api.CreateCategoryResponse](httpClient, baseURL+CategoryServiceCreateCategoryProcedure, opts...),
		getCategory:    connect.NewClient[api.GetCategoryRequest, api.GetCategoryResponse](httpClient, baseURL+CategoryServiceGetCategoryProcedure, opts...),
		listCategories: connect.NewClient[api.ListCategoriesRequest, api.ListCategoriesResponse](httpClient, baseURL+CategoryServiceListCategoriesProcedure, opts...),
		renameCategory: connect.NewClient[api.RenameCategoryRequest, api.RenameCategoryResponse](httpClient, baseURL+CategoryServiceRenameCategoryProcedure, opts...),
		deleteCategory: connect.NewClient[api.DeleteCategoryRequest, api.DeleteCategoryResponse](httpClient, baseURL+CategoryServiceDeleteCategoryProcedure, opts...),
	}
}

func (c *CategoryServiceClient) CreateCategory(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error) {
	return c.createCategory.CallUnary(ctx, req)
}

func (c *CategoryServiceClient) GetCategory(ctx context.Context, req *connect.Request[api.GetCategoryRequest]) (*connect.Response[api.GetCategoryResponse], error) {
	return c.getCategory.CallUnary(ctx, req)
}

func (c *CategoryServiceClient) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	return c.listCategories.CallUnary(ctx, req)
}

func (c *CategoryServiceClient) RenameCategory(ctx context.Context, req *connect.Request[api.RenameCategoryRequest]) (*connect.Response[api.RenameCategoryResponse], error) {
	return c.renameCategory.CallUnary(ctx, req)
}

func (c *CategoryServiceClient) DeleteCategory(ctx context.Context, req *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.DeleteCategoryResponse], error) {
	return c.deleteCategory.CallUnary(ctx, req)
}

// TransactionServiceClient is a client for ledger.v1.TransactionService.
type TransactionServiceClient struct {
	validateTransaction *connect.Client[api.ValidateTransactionRequest, api.ValidateTransactionResponse]
	createTransaction   *connect.Client[api.CreateTransactionRequest, api.CreateTransactionResponse]
	getTransaction      *connect.Client[api.GetTransactionRequest, api.GetTransactionResponse]
	listTransactions    *connect.Client[api.ListTransactionsRequest, api.ListTransactionsResponse]
	updateTransaction   *connect.Client[api.UpdateTransactionRequest, api.UpdateTransactionResponse]
	deleteTransaction   *connect.Client[api.DeleteTransactionRequest, api.DeleteTransactionResponse]
}

// NewTransactionServiceClient constructs a client for ledger.v1.TransactionService.
func NewTransactionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TransactionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &TransactionServiceClient{
		validateTransaction: connect.NewClient[api.ValidateTransactionRequest, api.ValidateTransactionResponse](httpClient, baseURL+TransactionServiceValidateTransactionProcedure, opts...),
		createTransaction:   connect.NewClient[api.CreateTransactionRequest, api.CreateTransactionResponse](httpClient, baseURL+TransactionServiceCreateTransactionProcedure, opts...),
		getTransaction:      connect.NewClient[api.GetTransactionRequest, api.GetTransactionResponse](httpClient, baseURL+TransactionServiceGetTransactionProcedure, opts...),
		listTransactions:    connect.NewClient[api.ListTransactionsRequest, api.ListTransactionsResponse](httpClient, baseURL+TransactionServiceListTransactionsProcedure, opts...),
		updateTransaction:   connect.NewClient[api.UpdateTransactionRequest, api.UpdateTransactionResponse](httpClient, baseURL+TransactionServiceUpdateTransactionProcedure, opts...),
		deleteTransaction:   connect.NewClient[api.DeleteTransactionRequest, api.DeleteTransactionResponse](httpClient, baseURL+TransactionServiceDeleteTransactionProcedure, opts...),
	}
}

func (c *TransactionServiceClient) ValidateTransaction(ctx context.Context, req *connect.Request[api.ValidateTransactionRequest]) (*connect.Response[api.ValidateTransactionResponse], error) {
	return c.validateTransaction.CallUnary(ctx, req)
}

func (c *TransactionServiceClient) CreateTransaction(ctx context.Context, req *connect.Request[api.CreateTransactionRequest]) (*connect.Response[api.CreateTransactionResponse], error) {
	return c.createTransaction.CallUnary(ctx, req)
}

func (c *TransactionServiceClient) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error) {
	return c.getTransaction.CallUnary(ctx, req)
}

func (c *TransactionServiceClient) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *TransactionServiceClient) UpdateTransaction(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.UpdateTransactionResponse], error) {
	return c.updateTransaction.CallUnary(ctx, req)
}

func (c *TransactionServiceClient) DeleteTransaction(ctx context.Context, req *connect.Request[api.DeleteTransactionRequest]) (*connect.Response[api.DeleteTransactionResponse], error) {
	return c.deleteTransaction.CallUnary(ctx, req)
}
