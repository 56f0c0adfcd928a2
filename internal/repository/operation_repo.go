package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/biswajit-debnath/control-room/internal/model"

	"github.com/jackc/pgx/v5"
)

// OperationRepository defines operations for DG operation records
type OperationRepository interface {
	Create(ctx context.Context, op *model.Operation, audit func(*model.Operation) *model.Activity) error
	FindByID(ctx context.Context, id int64) (*model.Operation, error)
	FindAll(ctx context.Context, filters model.OperationFilters) ([]model.Operation, error)
	Sign(ctx context.Context, id int64, sig model.Signature, audit *model.Activity) (*model.Operation, error)
}

type operationRepository struct {
	db DBTX
}

// NewOperationRepository creates a new OperationRepository
func NewOperationRepository(db DBTX) OperationRepository {
	return &operationRepository{db: db}
}

const operationColumns = `id, operation_date, shift,
            eod_in_shift, testing_hrs_from, testing_hrs_to, testing_progressive_hrs,
            load_hrs_from, load_hrs_to, load_progressive_hrs, hrs_meter_reading,
            oil_level_in_diesel_tank, lube_oil_level_in_engine, oil_stock_in_store, lube_oil_stock_in_store, oil_filled_in_liters,
            battery_condition, oil_pressure, oil_temperature, on_duty_staff, remarks,
            created_by, duty_staff_signature, signer_name, signed_by, signed_at, created_at, updated_at`

func scanOperation(row pgx.Row, op *model.Operation) error {
	var shift string
	err := row.Scan(
		&op.ID, &op.OperationDate, &shift,
		&op.EODInShift, &op.TestingHrsFrom, &op.TestingHrsTo, &op.TestingProgressiveHrs,
		&op.LoadHrsFrom, &op.LoadHrsTo, &op.LoadProgressiveHrs, &op.HrsMeterReading,
		&op.OilLevelInDieselTank, &op.LubeOilLevelInEngine, &op.OilStockInStore, &op.LubeOilStockInStore, &op.OilFilledInLiters,
		&op.BatteryCondition, &op.OilPressure, &op.OilTemperature, &op.OnDutyStaff, &op.Remarks,
		&op.CreatedBy, &op.DutyStaffSignature,
		&op.Signature.SignerName, &op.Signature.SignedByUserID, &op.Signature.SignedAt,
		&op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		return err
	}
	op.Shift = model.Shift(shift)
	return nil
}

// Create inserts a new record and, when audit is non-nil, the activity it
// returns, in one transaction
func (r *operationRepository) Create(ctx context.Context, op *model.Operation, audit func(*model.Operation) *model.Activity) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	sql := `INSERT INTO dg_operations (operation_date, shift,
            eod_in_shift, testing_hrs_from, testing_hrs_to, testing_progressive_hrs,
            load_hrs_from, load_hrs_to, load_progressive_hrs, hrs_meter_reading,
            oil_level_in_diesel_tank, lube_oil_level_in_engine, oil_stock_in_store, lube_oil_stock_in_store, oil_filled_in_liters,
            battery_condition, oil_pressure, oil_temperature, on_duty_staff, remarks,
            created_by, duty_staff_signature, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $23)
            RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, sql,
		op.OperationDate, string(op.Shift),
		op.EODInShift, op.TestingHrsFrom, op.TestingHrsTo, op.TestingProgressiveHrs,
		op.LoadHrsFrom, op.LoadHrsTo, op.LoadProgressiveHrs, op.HrsMeterReading,
		op.OilLevelInDieselTank, op.LubeOilLevelInEngine, op.OilStockInStore, op.LubeOilStockInStore, op.OilFilledInLiters,
		op.BatteryCondition, op.OilPressure, op.OilTemperature, op.OnDutyStaff, op.Remarks,
		op.CreatedBy, op.DutyStaffSignature, op.CreatedAt,
	).Scan(&op.ID, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("failed to create operation: %w", err)
	}

	if audit != nil {
		if a := audit(op); a != nil {
			if err := tx.QueryRow(ctx, insertActivitySQL, a.UserID, a.Action, a.Module, a.Details, a.CreatedAt).Scan(&a.ID); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("failed to record creation activity: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit operation: %w", err)
	}
	return nil
}

// FindByID retrieves a record by its ID
func (r *operationRepository) FindByID(ctx context.Context, id int64) (*model.Operation, error) {
	op := &model.Operation{}
	sql := `SELECT ` + operationColumns + ` FROM dg_operations WHERE id = $1`
	if err := scanOperation(r.db.QueryRow(ctx, sql, id), op); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find operation by ID: %w", err)
	}
	return op, nil
}

// FindAll retrieves records matching filters, newest first
func (r *operationRepository) FindAll(ctx context.Context, filters model.OperationFilters) ([]model.Operation, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + operationColumns + ` FROM dg_operations`)

	args := []interface{}{}
	argCount := 1
	var conditions []string

	if filters.Shift != nil && *filters.Shift != "" {
		conditions = append(conditions, fmt.Sprintf("shift = $%d", argCount))
		args = append(args, string(*filters.Shift))
		argCount++
	}
	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("operation_date >= $%d", argCount))
		args = append(args, *filters.From)
		argCount++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("operation_date < $%d", argCount))
		args = append(args, *filters.To)
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY operation_date DESC, created_at DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	operations := []model.Operation{}
	for rows.Next() {
		var op model.Operation
		if err := scanOperation(rows, &op); err != nil {
			return nil, fmt.Errorf("failed to scan operation row: %w", err)
		}
		operations = append(operations, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", err)
	}
	return operations, nil
}

// Sign sets the EOD/AE signature only if the record is still unsigned and
// appends audit in the same transaction. It returns (nil, nil) when no
// unsigned record with that id exists at write time.
func (r *operationRepository) Sign(ctx context.Context, id int64, sig model.Signature, audit *model.Activity) (*model.Operation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	op := &model.Operation{}
	sql := `UPDATE dg_operations
            SET signer_name = $1, signed_by = $2, signed_at = $3, updated_at = NOW()
            WHERE id = $4 AND signer_name IS NULL
            RETURNING ` + operationColumns
	if err := scanOperation(tx.QueryRow(ctx, sql, sig.SignerName, sig.SignedByUserID, sig.SignedAt, id), op); err != nil {
		_ = tx.Rollback(ctx)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to sign operation: %w", err)
	}

	if audit != nil {
		if err := tx.QueryRow(ctx, insertActivitySQL, audit.UserID, audit.Action, audit.Module, audit.Details, audit.CreatedAt).Scan(&audit.ID); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("failed to record signature activity: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit signature: %w", err)
	}
	return op, nil
}
