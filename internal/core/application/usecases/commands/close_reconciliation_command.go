package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrCloseReconciliationCommandIsNotConstructed = errors.New(
	"CloseReconciliationCommand must be created via NewCloseReconciliationCommand constructor",
)

// CloseReconciliationCommand closes a cash record. Override accepts a discrepancy
// beyond tolerance and is kept on the record for audit.
type CloseReconciliationCommand struct {
	recordID kernel.UUID
	note     string
	override bool

	guard guard.ConstructorGuard
}

func NewCloseReconciliationCommand(recordID kernel.UUID, note string, override bool) (CloseReconciliationCommand, error) {
	if err := recordID.Validate(); err != nil {
		return CloseReconciliationCommand{}, err
	}

	return CloseReconciliationCommand{
		recordID: recordID,
		note:     strings.TrimSpace(note),
		override: override,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c CloseReconciliationCommand) Validate() error {
	return c.guard.Validate(ErrCloseReconciliationCommandIsNotConstructed)
}

func (c CloseReconciliationCommand) RecordID() kernel.UUID {
	return c.recordID
}

func (c CloseReconciliationCommand) Note() string {
	return c.note
}

func (c CloseReconciliationCommand) Override() bool {
	return c.override
}
