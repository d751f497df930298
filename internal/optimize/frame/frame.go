// Package frame provides a small column-oriented container for campaign
// metrics, the input format for model training. Missing values are NaN and
// every pipeline filters them with the same definition.
package frame

import (
	"fmt"
	"math"

	"github.com/adsctl/optimizer/internal/core/domain"
)

// Canonical column names shared by the model pipelines.
const (
	ColCost              = "cost"
	ColClicks            = "clicks"
	ColImpressions       = "impressions"
	ColConversions       = "conversions"
	ColConversionsValue  = "conversions_value"
	ColCTR               = "ctr"
	ColAverageCPC        = "average_cpc"
	ColAverageCPM        = "average_cpm"
	ColBudget            = "budget"
	ColCostPerConversion = "cost_per_conversion"
	ColConversionRate    = "conversion_rate"
	ColROAS              = "roas"
)

// Frame is a column-named matrix of float64 samples. Operations return new
// frames and always preserve row order; rows disappear only through
// DropMissing.
type Frame struct {
	columns []string
	data    map[string][]float64
	rows    int
}

// New creates an empty frame with the given columns.
func New(columns []string, rows int) *Frame {
	data := make(map[string][]float64, len(columns))
	for _, c := range columns {
		data[c] = make([]float64, rows)
	}
	return &Frame{columns: append([]string(nil), columns...), data: data, rows: rows}
}

// FromMetrics ingests metrics rows in order, computing the derived ratio
// columns as it goes. Ratios with a zero denominator are NaN so they fall
// out during missing-value filtering instead of training as fake zeros.
func FromMetrics(rows []*domain.CampaignMetrics) *Frame {
	f := New([]string{
		ColCost, ColClicks, ColImpressions, ColConversions, ColConversionsValue,
		ColCTR, ColAverageCPC, ColAverageCPM, ColBudget,
		ColCostPerConversion, ColConversionRate, ColROAS,
	}, len(rows))

	for i, m := range rows {
		f.data[ColCost][i] = m.Cost
		f.data[ColClicks][i] = m.Clicks
		f.data[ColImpressions][i] = m.Impressions
		f.data[ColConversions][i] = m.Conversions
		f.data[ColConversionsValue][i] = m.ConversionsValue
		f.data[ColCTR][i] = m.CTR
		f.data[ColAverageCPC][i] = m.AverageCPC
		f.data[ColAverageCPM][i] = m.AverageCPM
		f.data[ColBudget][i] = m.Budget
		f.data[ColCostPerConversion][i] = ratio(m.Cost, m.Conversions)
		f.data[ColConversionRate][i] = ratio(m.Conversions, m.Clicks)
		f.data[ColROAS][i] = ratio(m.ConversionsValue, m.Cost)
	}
	return f
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.rows
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Column returns the named column's values.
func (f *Frame) Column(name string) ([]float64, error) {
	vals, ok := f.data[name]
	if !ok {
		return nil, fmt.Errorf("frame has no column %q", name)
	}
	return vals, nil
}

// Select returns a frame holding only the named columns.
func (f *Frame) Select(columns ...string) (*Frame, error) {
	out := &Frame{
		columns: append([]string(nil), columns...),
		data:    make(map[string][]float64, len(columns)),
		rows:    f.rows,
	}
	for _, c := range columns {
		vals, ok := f.data[c]
		if !ok {
			return nil, fmt.Errorf("frame has no column %q", c)
		}
		out.data[c] = vals
	}
	return out, nil
}

// DropMissing returns a frame without the rows that have NaN in any of the
// named columns. With no columns given, all columns are checked. Surviving
// rows keep their relative order.
func (f *Frame) DropMissing(columns ...string) (*Frame, error) {
	if len(columns) == 0 {
		columns = f.columns
	}
	checked := make([][]float64, 0, len(columns))
	for _, c := range columns {
		vals, ok := f.data[c]
		if !ok {
			return nil, fmt.Errorf("frame has no column %q", c)
		}
		checked = append(checked, vals)
	}

	keep := make([]int, 0, f.rows)
	for i := 0; i < f.rows; i++ {
		ok := true
		for _, vals := range checked {
			if math.IsNaN(vals[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}

	out := New(f.columns, len(keep))
	for _, c := range f.columns {
		src := f.data[c]
		dst := out.data[c]
		for j, i := range keep {
			dst[j] = src[i]
		}
	}
	return out, nil
}

// Row is a read-only view of one frame row.
type Row struct {
	f   *Frame
	idx int
}

// Get returns the named value in this row, NaN when the column does not
// exist.
func (r Row) Get(col string) float64 {
	vals, ok := r.f.data[col]
	if !ok {
		return math.NaN()
	}
	return vals[r.idx]
}

// Derive returns a frame with an additional column computed per row.
func (f *Frame) Derive(name string, fn func(Row) float64) *Frame {
	vals := make([]float64, f.rows)
	for i := 0; i < f.rows; i++ {
		vals[i] = fn(Row{f: f, idx: i})
	}

	out := &Frame{
		columns: append(append([]string(nil), f.columns...), name),
		data:    make(map[string][]float64, len(f.columns)+1),
		rows:    f.rows,
	}
	for _, c := range f.columns {
		out.data[c] = f.data[c]
	}
	out.data[name] = vals
	return out
}
