package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"object-detection-service/internal/domain"
)

// bomCSVHeader is the column layout for import and export.
var bomCSVHeader = []string{"bom_code", "part_reference", "part_name", "part_description", "quantity"}

type BOMUseCase struct {
	boms        domain.BOMRepository
	inspections domain.InspectionRepository
}

func NewBOMUseCase(boms domain.BOMRepository, inspections domain.InspectionRepository) *BOMUseCase {
	return &BOMUseCase{boms: boms, inspections: inspections}
}

func (uc *BOMUseCase) AddEntry(ctx context.Context, entry *domain.BOMEntry) error {
	return uc.AddBatch(ctx, []*domain.BOMEntry{entry})
}

// AddBatch rejects the whole batch when any entry is invalid.
func (uc *BOMUseCase) AddBatch(ctx context.Context, entries []*domain.BOMEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries given", domain.ErrInvalidBOM)
	}
	for i, e := range entries {
		if e == nil {
			return fmt.Errorf("%w: entry %d is empty", domain.ErrInvalidBOM, i)
		}
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return uc.boms.AddEntries(ctx, entries)
}

// List groups entries by BOM code, ordered by code.
func (uc *BOMUseCase) List(ctx context.Context) ([]*domain.BOM, error) {
	entries, err := uc.boms.ListEntries(ctx, "")
	if err != nil {
		return nil, err
	}
	statuses, err := uc.inspections.Statuses(ctx)
	if err != nil {
		return nil, err
	}

	boms := make([]*domain.BOM, 0)
	byCode := make(map[string]*domain.BOM)
	for _, e := range entries {
		b, ok := byCode[e.BOMCode]
		if !ok {
			st := statuses[e.BOMCode]
			b = &domain.BOM{Code: e.BOMCode, HasInspection: st.HasInspection, Finalized: st.Finalized}
			byCode[e.BOMCode] = b
			boms = append(boms, b)
		}
		b.Entries = append(b.Entries, e)
	}
	return boms, nil
}

// Import reads CSV rows in bomCSVHeader order after a header line. Rows that
// are malformed or invalid are skipped; the valid ones are stored together.
func (uc *BOMUseCase) Import(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, 0, fmt.Errorf("%w: csv file is empty", domain.ErrInvalidBOM)
		}
		return 0, 0, fmt.Errorf("%w: read csv header: %v", domain.ErrInvalidBOM, err)
	}

	entries := make([]*domain.BOMEntry, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("%w: read csv row: %v", domain.ErrInvalidBOM, err)
		}

		entry, err := entryFromRecord(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			log.WithError(err).WithField("line", line).Warn("skipping bom csv row")
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return 0, skipped, fmt.Errorf("%w: csv file has no valid rows", domain.ErrInvalidBOM)
	}
	if err := uc.boms.AddEntries(ctx, entries); err != nil {
		return 0, skipped, err
	}
	return len(entries), skipped, nil
}

func entryFromRecord(record []string) (*domain.BOMEntry, error) {
	if len(record) < len(bomCSVHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(bomCSVHeader), len(record))
	}
	qty, err := strconv.Atoi(strings.TrimSpace(record[4]))
	if err != nil {
		return nil, fmt.Errorf("quantity %q: %w", record[4], err)
	}
	entry := &domain.BOMEntry{
		BOMCode:         record[0],
		PartReference:   strings.TrimSpace(record[1]),
		PartName:        record[2],
		PartDescription: strings.TrimSpace(record[3]),
		Quantity:        qty,
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Export writes every entry as CSV with a header line.
func (uc *BOMUseCase) Export(ctx context.Context, w io.Writer) error {
	entries, err := uc.boms.ListEntries(ctx, "")
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(bomCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		record := []string{e.BOMCode, e.PartReference, e.PartName, e.PartDescription, strconv.Itoa(e.Quantity)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
