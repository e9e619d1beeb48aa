package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tonnahe171051/poolmate-sub000/models"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
)

type TableService interface {
	Create(ctx context.Context, name string) (*models.Table, error)
	List(ctx context.Context) ([]*models.Table, error)
	SetStatus(ctx context.Context, tableID int, status models.TableStatus) error
}

type tableService struct {
	db        *sql.DB
	tableRepo repositories.TableRepository
}

func NewTableService(db *sql.DB, tableRepo repositories.TableRepository) TableService {
	return &tableService{db: db, tableRepo: tableRepo}
}

func (s *tableService) Create(ctx context.Context, name string) (*models.Table, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrValidationFailed)
	}
	table := &models.Table{Name: name, Status: models.TableOpen}
	if err := s.tableRepo.Create(ctx, s.db, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *tableService) List(ctx context.Context) ([]*models.Table, error) {
	return s.tableRepo.List(ctx)
}

func (s *tableService) SetStatus(ctx context.Context, tableID int, status models.TableStatus) error {
	switch status {
	case models.TableOpen, models.TableClosed:
	default:
		return fmt.Errorf("%w: tables can only be set open or closed", ErrValidationFailed)
	}
	table, err := s.tableRepo.GetByID(ctx, tableID)
	if err != nil {
		return err
	}
	if table.Status == models.TableInUse {
		return ErrTableBusy
	}
	return s.tableRepo.UpdateStatus(ctx, s.db, tableID, status)
}
