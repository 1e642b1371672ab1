package table

import (
	"sort"

	"pressroom/pkg/geom"
	"pressroom/pkg/layout"
)

// columnInfo collects the width constraints of one column.
type columnInfo struct {
	fixed    bool
	width    geom.Unit
	minWidth geom.Unit
	maxWidth geom.Unit
}

// spanNeed is the width a spanning cell requires across its columns.
type spanNeed struct {
	first, span int
	minWidth    geom.Unit
	maxWidth    geom.Unit
}

// Widths computes column widths for a content width (the table width minus
// its insets and spacing). Fixed columns get exactly their width. Spanning
// cells raise their auto columns in a single pass ordered by span. The
// remaining width is shared by the auto columns in proportion to their
// minimum content width; the last auto column takes the rounding remainder
// so that the widths add up exactly. When the minimum content widths do not
// fit, every auto column gets its minimum and the table grows.
func Widths(cols []columnInfo, spans []spanNeed, collapsed []bool, content geom.Unit) []geom.Unit {
	n := len(cols)
	widths := make([]geom.Unit, n)

	sort.SliceStable(spans, func(a, b int) bool { return spans[a].span < spans[b].span })
	for _, s := range spans {
		var have, autoMin geom.Unit
		var autos []int
		for i := s.first; i < s.first+s.span && i < n; i++ {
			if collapsed[i] {
				continue
			}
			if cols[i].fixed {
				have += cols[i].width
				continue
			}
			have += cols[i].minWidth
			autoMin += cols[i].minWidth
			autos = append(autos, i)
		}
		need := s.minWidth - have
		if need <= 0 || len(autos) == 0 {
			continue
		}
		distribute(cols, autos, autoMin, need, func(c *columnInfo) *geom.Unit { return &c.minWidth })
		if s.maxWidth > s.minWidth {
			var autoMax geom.Unit
			for _, i := range autos {
				autoMax += cols[i].maxWidth
			}
			if extra := s.maxWidth - have - autoMax; extra > 0 {
				distribute(cols, autos, autoMax, extra, func(c *columnInfo) *geom.Unit { return &c.maxWidth })
			}
		}
	}

	var fixedSum, minSum geom.Unit
	var autos []int
	for i := range cols {
		switch {
		case collapsed[i]:
		case cols[i].fixed:
			widths[i] = cols[i].width
			fixedSum += cols[i].width
		default:
			autos = append(autos, i)
			minSum += cols[i].minWidth
		}
	}
	if len(autos) == 0 {
		return widths
	}
	remaining := content - fixedSum
	if remaining < minSum {
		for _, i := range autos {
			widths[i] = cols[i].minWidth
		}
		return widths
	}
	var given geom.Unit
	for k, i := range autos {
		if k == len(autos)-1 {
			widths[i] = remaining - given
			break
		}
		if minSum > 0 {
			widths[i] = geom.MulDiv(remaining, cols[i].minWidth, minSum)
		} else {
			widths[i] = remaining / geom.Unit(len(autos))
		}
		given += widths[i]
	}
	return widths
}

// distribute adds extra to the selected field of the columns in idx, in
// proportion to the field's current values (evenly when they are all zero).
func distribute(cols []columnInfo, idx []int, total, extra geom.Unit, field func(*columnInfo) *geom.Unit) {
	var given geom.Unit
	for k, i := range idx {
		f := field(&cols[i])
		var share geom.Unit
		switch {
		case k == len(idx)-1:
			share = extra - given
		case total > 0:
			share = geom.MulDiv(extra, *f, total)
		default:
			share = extra / geom.Unit(len(idx))
		}
		*f += share
		given += share
	}
}

// spanWidth returns the width of the columns first..first+span-1 including
// the spacing between visible columns.
func spanWidth(widths []geom.Unit, collapsed []bool, spacing geom.Unit, first, span int) geom.Unit {
	var w geom.Unit
	visible := 0
	for i := first; i < first+span && i < len(widths); i++ {
		if collapsed[i] {
			continue
		}
		w += widths[i]
		visible++
	}
	if visible > 1 {
		w += spacing * geom.Unit(visible-1)
	}
	return w
}

func visibleColumns(collapsed []bool) int {
	n := 0
	for _, c := range collapsed {
		if !c {
			n++
		}
	}
	return n
}

// columnConstraints measures the cells and column definitions of g. In the
// fixed table layout only the column definitions and the first row count
// and content is not measured.
func columnConstraints(l *layout.Layouter, g *Grid, fixedLayout bool, spacing geom.Unit) ([]columnInfo, []spanNeed, error) {
	cols := make([]columnInfo, g.NumCols)
	idx := 0
	for _, col := range g.Columns {
		span := col.Colspan()
		if w := col.Def.PreferredWidth; w != layout.Auto {
			// a definition covering several columns splits its width evenly
			each := w / geom.Unit(span)
			for k := 0; k < span && idx+k < len(cols); k++ {
				cols[idx+k].fixed = true
				cols[idx+k].width = each
				if k == span-1 {
					cols[idx+k].width = w - each*geom.Unit(span-1)
				}
			}
		}
		idx += span
	}

	var spans []spanNeed
	for _, cell := range g.Cells {
		info := cell.Cell
		if fixedLayout && info.Row > 0 {
			continue
		}
		var minW, maxW geom.Unit
		if fixedLayout {
			if cell.Def.PreferredWidth != layout.Auto {
				minW, maxW = cell.Def.PreferredWidth, cell.Def.PreferredWidth
			}
		} else {
			var err error
			if minW, maxW, err = l.ContentWidths(cell); err != nil {
				return nil, nil, err
			}
		}
		if info.Colspan == 1 {
			c := &cols[info.Col]
			if cell.Def.PreferredWidth != layout.Auto && !c.fixed {
				c.fixed = true
				c.width = cell.Def.PreferredWidth
			}
			c.minWidth = geom.Max(c.minWidth, minW)
			c.maxWidth = geom.Max(c.maxWidth, maxW)
			continue
		}
		visible := 0
		for i := info.Col; i < info.Col+info.Colspan && i < len(cols); i++ {
			if !g.Collapsed[i] {
				visible++
			}
		}
		inner := geom.Unit(0)
		if visible > 1 {
			inner = spacing * geom.Unit(visible-1)
		}
		spans = append(spans, spanNeed{
			first:    info.Col,
			span:     info.Colspan,
			minWidth: geom.Max(0, minW-inner),
			maxWidth: geom.Max(0, maxW-inner),
		})
	}
	for i := range cols {
		cols[i].maxWidth = geom.Max(cols[i].maxWidth, cols[i].minWidth)
	}
	return cols, spans, nil
}
