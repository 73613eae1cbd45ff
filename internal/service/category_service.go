package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/ledger/internal/ledger"
	"github.com/mmynk/ledger/internal/middleware"
	"github.com/mmynk/ledger/pkg/api"
	"github.com/mmynk/ledger/pkg/api/apiconnect"
)

// CategoryService implements the Connect CategoryService.
type CategoryService struct {
	ledger *ledger.Ledger
}

var _ apiconnect.CategoryServiceHandler = (*CategoryService)(nil)

func NewCategoryService(l *ledger.Ledger) *CategoryService {
	return &CategoryService{ledger: l}
}

func (s *CategoryService) CreateCategory(ctx context.Context, req *connect.Request[api.CreateCategoryRequest]) (*connect.Response[api.CreateCategoryResponse], error) {
	slog.Info("CreateCategory request received", "name", req.Msg.Name)

	c, err := s.ledger.CreateCategory(ctx, middleware.GetUserID(ctx), req.Msg.Name)
	if err != nil {
		return nil, toConnectError("CreateCategory", err)
	}

	slog.Info("Category created", "category_id", c.ID)
	return connect.NewResponse(&api.CreateCategoryResponse{Category: toAPICategory(c)}), nil
}

func (s *CategoryService) GetCategory(ctx context.Context, req *connect.Request[api.GetCategoryRequest]) (*connect.Response[api.GetCategoryResponse], error) {
	c, err := s.ledger.GetCategory(ctx, middleware.GetUserID(ctx), req.Msg.CategoryID)
	if err != nil {
		return nil, toConnectError("GetCategory", err)
	}
	return connect.NewResponse(&api.GetCategoryResponse{Category: toAPICategory(c)}), nil
}

func (s *CategoryService) ListCategories(ctx context.Context, req *connect.Request[api.ListCategoriesRequest]) (*connect.Response[api.ListCategoriesResponse], error) {
	categories, err := s.ledger.ListCategories(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("ListCategories", err)
	}

	out := make([]api.Category, len(categories))
	for i, c := range categories {
		out[i] = toAPICategory(c)
	}
	return connect.NewResponse(&api.ListCategoriesResponse{Categories: out}), nil
}

func (s *CategoryService) RenameCategory(ctx context.Context, req *connect.Request[api.RenameCategoryRequest]) (*connect.Response[api.RenameCategoryResponse], error) {
	slog.Info("RenameCategory request received", "category_id", req.Msg.CategoryID, "name", req.Msg.Name)

	c, err := s.ledger.RenameCategory(ctx, middleware.GetUserID(ctx), req.Msg.CategoryID, req.Msg.Name)
	if err != nil {
		return nil, toConnectError("RenameCategory", err)
	}
	return connect.NewResponse(&api.RenameCategoryResponse{Category: toAPICategory(c)}), nil
}

// DeleteCategory clears the category from its transactions and removes it.
// It fails with FailedPrecondition while categories are mandatory and the
// category is still referenced.
func (s *CategoryService) DeleteCategory(ctx context.Context, req *connect.Request[api.DeleteCategoryRequest]) (*connect.Response[api.DeleteCategoryResponse], error) {
	slog.Info("DeleteCategory request received", "category_id", req.Msg.CategoryID)

	if err := s.ledger.DeleteCategory(ctx, middleware.GetUserID(ctx), req.Msg.CategoryID); err != nil {
		return nil, toConnectError("DeleteCategory", err)
	}

	slog.Info("Category deleted", "category_id", req.Msg.CategoryID)
	return connect.NewResponse(&api.DeleteCategoryResponse{}), nil
}
