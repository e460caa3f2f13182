package record

import (
	"sort"
	"strings"
	"time"

	"github.com/medlogs/medlogs/pkg/dates"
)

// In-memory filter pipeline. The SQL repository narrows by index-friendly
// criteria; the report/export path loads the window once and refines it here
// so the CSV and the measures agree on what a filter means.

// FilterPeriod keeps records entered within the last n civil days, today
// included. n <= 0 keeps everything.
func FilterPeriod(records []*Record, now time.Time, n int) []*Record {
	if n <= 0 {
		return records
	}
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if dates.WithinLastDays(r.EntryDate, now, n) {
			out = append(out, r)
		}
	}
	return out
}

// FilterReferenceRange keeps records whose reference date falls inside
// [from, to], boundaries included. Zero bounds are open-ended.
func FilterReferenceRange(records []*Record, from, to time.Time) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		d := dates.NormalizeToUTCNoon(r.ReferenceDate)
		if !from.IsZero() && d.Before(dates.NormalizeToUTCNoon(from)) {
			continue
		}
		if !to.IsZero() && d.After(dates.NormalizeToUTCNoon(to)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterStatus keeps records in the given status; an empty status keeps all.
func FilterStatus(records []*Record, status string) []*Record {
	if status == "" {
		return records
	}
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// FilterPatientName keeps records whose patient name contains the term,
// case-insensitively. Requires PatientName to be populated by the caller.
func FilterPatientName(records []*Record, term string) []*Record {
	term = strings.TrimSpace(strings.ToLower(term))
	if term == "" {
		return records
	}
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.PatientName), term) {
			out = append(out, r)
		}
	}
	return out
}

// SortByEntryDateDesc orders newest-first, in place. Ties fall back to the
// record id so the order is deterministic.
func SortByEntryDateDesc(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].EntryDate.Equal(records[j].EntryDate) {
			return records[i].ID.String() > records[j].ID.String()
		}
		return records[i].EntryDate.After(records[j].EntryDate)
	})
}

// Paginate slices a page out of the filtered set. Out-of-range offsets yield
// an empty page rather than an error.
func Paginate(records []*Record, limit, offset int) []*Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []*Record{}
	}
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end]
}

// SumTotals adds up the total value of the given records.
func SumTotals(records []*Record) float64 {
	var sum float64
	for _, r := range records {
		sum += r.TotalValue
	}
	return sum
}
