package services

import (
	"slices"
	"strings"
	"time"
)

// Record is the observed or desired state of one service.
type Record struct {
	Name        string      `json:"serviceName" yaml:"serviceName"`
	DisplayName string      `json:"displayName" yaml:"displayName"`
	Category    Category    `json:"category" yaml:"category"`
	Group       string      `json:"group,omitempty" yaml:"group,omitempty"`
	StartupType StartupType `json:"startupType" yaml:"startupType"`
	RunState    RunState    `json:"runState" yaml:"runState"`
}

// Document is a point-in-time state of the catalog's services.
type Document struct {
	CapturedAt time.Time `json:"capturedAt" yaml:"capturedAt"`
	Services   []Record  `json:"services" yaml:"services"`

	// Missing lists catalog services that are not installed or could not be queried.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Sort orders records by category rank, then name, and missing names alphabetically.
func (d *Document) Sort() {
	SortRecords(d.Services)
	slices.Sort(d.Missing)
}

// SortRecords orders records by category rank, then name.
func SortRecords(recs []Record) {
	slices.SortStableFunc(recs, func(a, b Record) int {
		if r := a.Category.Rank() - b.Category.Rank(); r != 0 {
			return r
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

// Lookup finds a record by service name, ignoring case.
func (d *Document) Lookup(name string) (Record, bool) {
	for _, r := range d.Services {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Record{}, false
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{
		CapturedAt: d.CapturedAt,
		Services:   slices.Clone(d.Services),
		Missing:    slices.Clone(d.Missing),
	}
}

// CountByCategory counts records per category.
func (d *Document) CountByCategory() map[Category]int {
	counts := make(map[Category]int)
	for _, r := range d.Services {
		counts[r.Category]++
	}
	return counts
}
