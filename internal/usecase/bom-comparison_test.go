package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"object-detection-service/internal/domain"
)

func bomEntries(parts ...any) []*domain.BOMEntry {
	entries := make([]*domain.BOMEntry, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		entries = append(entries, &domain.BOMEntry{
			BOMCode:  "KIT-1",
			PartName: parts[i].(string),
			Quantity: parts[i+1].(int),
		})
	}
	return entries
}

func TestCompareBOM(t *testing.T) {
	entries := bomEntries("bolt", 4, "nut", 4, "washer", 2, "spring", 1)
	summary := []domain.ClassSummary{
		{ClassName: "nut", Quantity: 6},
		{ClassName: "bolt", Quantity: 4},
		{ClassName: "screw", Quantity: 2},
		{ClassName: "washer", Quantity: 1},
	}

	shortage, surplus := CompareBOM(entries, summary)

	assert.Equal(t, []domain.ShortageItem{
		{PartName: "washer", Required: 2, Detected: 1, Shortage: 1},
		{PartName: "spring", Required: 1, Detected: 0, Shortage: 1},
	}, shortage)
	assert.Equal(t, []domain.SurplusItem{
		{PartName: "nut", Detected: 6, Required: 4, Surplus: 2},
		{PartName: "screw", Detected: 2, Required: 0, Surplus: 2},
	}, surplus)
}

func TestCompareBOM_ExactMatch(t *testing.T) {
	shortage, surplus := CompareBOM(bomEntries("bolt", 2), []domain.ClassSummary{{ClassName: "bolt", Quantity: 2}})

	assert.NotNil(t, shortage)
	assert.NotNil(t, surplus)
	assert.Empty(t, shortage)
	assert.Empty(t, surplus)
}

func TestCompareBOM_NothingDetected(t *testing.T) {
	shortage, surplus := CompareBOM(bomEntries("bolt", 2, "nut", 1), nil)

	assert.Equal(t, []domain.ShortageItem{
		{PartName: "bolt", Required: 2, Shortage: 2},
		{PartName: "nut", Required: 1, Shortage: 1},
	}, shortage)
	assert.Empty(t, surplus)
}

func TestCompareBOM_ClassNamesAreCaseSensitive(t *testing.T) {
	shortage, surplus := CompareBOM(bomEntries("Bolt", 1), []domain.ClassSummary{{ClassName: "bolt", Quantity: 1}})

	assert.Equal(t, []domain.ShortageItem{{PartName: "Bolt", Required: 1, Shortage: 1}}, shortage)
	assert.Equal(t, []domain.SurplusItem{{PartName: "bolt", Detected: 1, Surplus: 1}}, surplus)
}
