package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
	"github.com/SAP-F-2025/user-service/internal/validator"
)

const (
	defaultPageSize = 20
	exportBatchSize = 500
)

type userAdminService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserAdminService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) UserAdminService {
	return &userAdminService{repo: repo, logger: logger, validator: v}
}

func (s *userAdminService) List(ctx context.Context, req UserListRequest) (*UserListResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	page, size := normalizePage(req.Page, req.Size)
	filters := repositories.UserFilters{
		Role:   models.UserRole(req.Role),
		Limit:  size,
		Offset: (page - 1) * size,
	}

	var (
		users []*models.User
		total int64
		err   error
	)
	if req.Query != "" {
		users, total, err = s.repo.User().Search(ctx, req.Query, filters)
	} else {
		users, total, err = s.repo.User().List(ctx, filters)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &UserListResponse{Users: users, Total: total, Page: page, Size: size}, nil
}

func (s *userAdminService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userAdminService) Events(ctx context.Context, userID string, limit int) ([]*models.AuthEvent, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	events, err := s.repo.AuthEvent().ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list auth events: %w", err)
	}
	return events, nil
}

// ExportRoster streams the matching users into an xlsx workbook. Rows are
// fetched in batches so a large roster does not load into memory at once.
func (s *userAdminService) ExportRoster(ctx context.Context, w io.Writer, req UserListRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close export workbook", "error", err)
		}
	}()

	const sheet = "Users"
	f.SetSheetName("Sheet1", sheet)

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := []interface{}{"ID", "Name", "Email", "Role", "Last Active", "Created At"}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	row := 2
	offset := 0
	for {
		filters := repositories.UserFilters{
			Query:  req.Query,
			Role:   models.UserRole(req.Role),
			Limit:  exportBatchSize,
			Offset: offset,
		}

		users, _, err := s.repo.User().List(ctx, filters)
		if err != nil {
			return fmt.Errorf("failed to fetch export batch: %w", err)
		}
		if len(users) == 0 {
			break
		}

		for _, u := range users {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{
				u.ID,
				u.Name,
				u.Email,
				string(u.Role),
				u.LastActiveAt.Format("2006-01-02 15:04:05"),
				u.CreatedAt.Format("2006-01-02 15:04:05"),
			}
			if err := sw.SetRow(cell, values); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}

		if len(users) < exportBatchSize {
			break
		}
		offset += exportBatchSize
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush stream writer: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = defaultPageSize
	}
	return page, size
}
