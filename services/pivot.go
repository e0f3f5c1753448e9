package services

import (
	"sort"
	"strconv"
	"strings"
)

// Pivot turns sparse (row, column, value) cells into one row per row key with
// one field per discovered column name. It knows nothing about stages or
// participants, so any join that yields cells can be pivoted with it.
type Pivot[C any, K comparable] struct {
	RowKey func(C) K
	Column func(C) string
	Value  func(C) string
}

// PivotRow is one output row. First is the row's first cell and carries the
// row level fields (names, ids) of the source join.
type PivotRow[C any] struct {
	First  C
	Values map[string]string
}

// Build pivots cells. Columns and rows both keep first-seen order, so the
// order of the input decides the natural order of the output.
func (p Pivot[C, K]) Build(cells []C) ([]string, []PivotRow[C]) {
	columns := make([]string, 0)
	seenColumns := make(map[string]struct{})
	rows := make([]PivotRow[C], 0)
	rowIndex := make(map[K]int)

	for _, cell := range cells {
		column := p.Column(cell)
		if _, ok := seenColumns[column]; !ok {
			seenColumns[column] = struct{}{}
			columns = append(columns, column)
		}

		key := p.RowKey(cell)
		i, ok := rowIndex[key]
		if !ok {
			rows = append(rows, PivotRow[C]{First: cell, Values: make(map[string]string)})
			i = len(rows) - 1
			rowIndex[key] = i
		}
		rows[i].Values[column] = p.Value(cell)
	}
	return columns, rows
}

// findColumn returns the discovered column matching name case-insensitively.
func findColumn(columns []string, name string) (string, bool) {
	for _, c := range columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return c, true
		}
	}
	return "", false
}

// sortRowsDesc orders rows by partition ascending, then by the numeric value
// of the partition's column descending. Rows whose value is not a number
// follow the numeric ones. A partition without a column (empty name) and
// ties keep their input order.
func sortRowsDesc[C any](rows []PivotRow[C], partition func(C) int, column func(partition int) string) {
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := partition(rows[i].First), partition(rows[j].First)
		if pi != pj {
			return pi < pj
		}
		name := column(pi)
		if name == "" {
			return false
		}
		vi, okI := parseNumber(rows[i].Values[name])
		vj, okJ := parseNumber(rows[j].Values[name])
		switch {
		case okI && okJ:
			return vi > vj
		case okI != okJ:
			return okI
		default:
			return false
		}
	})
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// paginate returns the 1-based page of rows and the page count for total.
func paginate[T any](rows []T, page, limit, total int) ([]T, int) {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []T{}, totalPages
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], totalPages
}
