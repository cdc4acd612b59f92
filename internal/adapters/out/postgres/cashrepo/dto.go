// Package cashrepo persists cash collection records and their entries with GORM.
// The reconciliation status is never stored; it is derived when a record is read.
package cashrepo

import (
	"time"

	"dispatch/internal/core/domain/model/cash"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

const (
	// DriverDateIndex allows one record per driver and date.
	DriverDateIndex = "uq_cash_records_driver_date"
	// EntryDeliveryIndex allows one entry per delivery within a record.
	EntryDeliveryIndex = "uq_cash_entries_record_delivery"
)

type RecordDTO struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Date        time.Time  `gorm:"type:date;not null;uniqueIndex:uq_cash_records_driver_date,priority:1"`
	DriverID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_cash_records_driver_date,priority:2"`
	RouteID     *uuid.UUID `gorm:"type:uuid"`
	Closed      bool       `gorm:"not null;default:false"`
	Override    bool       `gorm:"not null;default:false"`
	ClosingNote string     `gorm:"type:text;not null;default:''"`
	ClosedAt    *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
	Version     int64      `gorm:"not null;default:0"`
	Entries     []EntryDTO `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

func (RecordDTO) TableName() string {
	return "cash_records"
}

type EntryDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecordID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_cash_entries_record_delivery,priority:1"`
	DeliveryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_cash_entries_record_delivery,priority:2"`
	Amount     int64     `gorm:"type:bigint;not null"`
	RecordedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (EntryDTO) TableName() string {
	return "cash_entries"
}

func fromDomain(r *cash.Record) RecordDTO {
	s := r.Snapshot()

	entries := make([]EntryDTO, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, entryFromDomain(e))
	}

	var routeID *uuid.UUID
	if s.RouteID != nil {
		raw := s.RouteID.Bytes()
		routeID = &raw
	}

	return RecordDTO{
		ID:          s.ID.Bytes(),
		Date:        s.Date,
		DriverID:    s.DriverID.Bytes(),
		RouteID:     routeID,
		Closed:      s.Closed,
		Override:    s.Override,
		ClosingNote: s.ClosingNote,
		ClosedAt:    s.ClosedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
		Entries:     entries,
	}
}

func entryFromDomain(e cash.Entry) EntryDTO {
	return EntryDTO{
		ID:         e.ID.Bytes(),
		RecordID:   e.RecordID.Bytes(),
		DeliveryID: e.DeliveryID.Bytes(),
		Amount:     e.Amount,
		RecordedAt: e.RecordedAt,
	}
}

func toDomain(dto RecordDTO) (*cash.Record, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	driverID, err := kernel.UUIDFromBytes(dto.DriverID[:])
	if err != nil {
		return nil, err
	}

	var routeID *kernel.UUID
	if dto.RouteID != nil {
		rid, ridErr := kernel.UUIDFromBytes((*dto.RouteID)[:])
		if ridErr != nil {
			return nil, ridErr
		}
		routeID = &rid
	}

	entries := make([]cash.Entry, 0, len(dto.Entries))
	for _, ed := range dto.Entries {
		e, entryErr := entryToDomain(ed)
		if entryErr != nil {
			return nil, entryErr
		}
		entries = append(entries, e)
	}

	var closedAt *time.Time
	if dto.ClosedAt != nil {
		t := dto.ClosedAt.UTC()
		closedAt = &t
	}

	return cash.Restore(cash.Snapshot{
		ID:          id,
		Date:        dto.Date,
		DriverID:    driverID,
		RouteID:     routeID,
		Entries:     entries,
		Closed:      dto.Closed,
		Override:    dto.Override,
		ClosingNote: dto.ClosingNote,
		ClosedAt:    closedAt,
		CreatedAt:   dto.CreatedAt.UTC(),
		UpdatedAt:   dto.UpdatedAt.UTC(),
		Version:     dto.Version,
	})
}

func entryToDomain(dto EntryDTO) (cash.Entry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return cash.Entry{}, err
	}
	recordID, err := kernel.UUIDFromBytes(dto.RecordID[:])
	if err != nil {
		return cash.Entry{}, err
	}
	deliveryID, err := kernel.UUIDFromBytes(dto.DeliveryID[:])
	if err != nil {
		return cash.Entry{}, err
	}
	return cash.Entry{
		ID:         id,
		RecordID:   recordID,
		DeliveryID: deliveryID,
		Amount:     dto.Amount,
		RecordedAt: dto.RecordedAt.UTC(),
	}, nil
}
