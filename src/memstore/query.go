package memstore

import (
	"sort"

	"modeldb/src/adapter"
	"modeldb/src/models"
)

// sortRecords orders recs on a single field per its declared type.
// The sort is stable, so ties keep table insertion order. Records
// missing the field sort first ascending.
func sortRecords(def models.ModelDefinition, recs []models.Record, by adapter.SortBy) error {
	ft, ok := fieldType(def, by.Field)
	if !ok {
		return &adapter.ValidationError{Model: def.Name, Field: by.Field, Reason: "cannot sort on undeclared field"}
	}
	desc := by.Direction == adapter.SortDesc

	sort.SliceStable(recs, func(i, j int) bool {
		cmp := compareForSort(ft, recs[i][by.Field], recs[j][by.Field])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return nil
}

func compareForSort(ft models.FieldType, a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	cmp, ok := compareTyped(ft, a, b)
	if !ok {
		return 0
	}
	return cmp
}

// paginate slices recs by offset then limit, clamping at the ends the
// way any backend would.
func paginate(recs []models.Record, offset, limit int) []models.Record {
	if offset > 0 {
		if offset >= len(recs) {
			return nil
		}
		recs = recs[offset:]
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// projectRecords trims each record to the selected fields. Requested
// join attachments survive projection; everything else is dropped.
func projectRecords(recs []models.Record, selects []string, joins map[string]adapter.JoinOption) []models.Record {
	if len(selects) == 0 {
		return recs
	}
	out := make([]models.Record, len(recs))
	for i, rec := range recs {
		p := make(models.Record, len(selects)+len(joins))
		for _, f := range selects {
			if v, ok := rec[f]; ok {
				p[f] = v
			}
		}
		for name := range joins {
			if v, ok := rec[name]; ok {
				p[name] = v
			}
		}
		out[i] = p
	}
	return out
}
