package records

// Row is a raw CSV row keyed by column header.
type Row map[string]string

// Column names shared by both exports.
const (
	FieldDate        = "date"
	FieldPage        = "page"
	FieldVisits      = "visits"
	FieldOrders      = "orders"
	FieldRevenue     = "revenue"
	FieldDevice      = "device"
	FieldChannel     = "channel"
	FieldQuery       = "query"
	FieldClicks      = "clicks"
	FieldImpressions = "impressions"
	FieldCTR         = "ctr"
	FieldPosition    = "position"
)

// MaxReportedIssues caps the per-cell issues kept in a Report.
const MaxReportedIssues = 100

// FieldResult is the outcome of parsing one numeric cell.
type FieldResult struct {
	Field  string      `json:"field"`
	Raw    string      `json:"raw"`
	Status ParseStatus `json:"status"`
}

// Issue locates a cell that was not parsed exactly.
type Issue struct {
	Row int `json:"row"`
	FieldResult
}

// Report summarizes how a batch of rows was normalized.
type Report struct {
	Rows      int            `json:"rows"`
	Partial   map[string]int `json:"partial"`
	Defaulted map[string]int `json:"defaulted"`
	Issues    []Issue        `json:"issues,omitempty"`
}

func newReport() Report {
	return Report{
		Partial:   map[string]int{},
		Defaulted: map[string]int{},
	}
}

// DefaultedTotal returns how many cells fell back to zero.
func (r Report) DefaultedTotal() int {
	total := 0
	for _, n := range r.Defaulted {
		total += n
	}
	return total
}

// Clean reports whether every numeric cell parsed exactly.
func (r Report) Clean() bool {
	return len(r.Partial) == 0 && len(r.Defaulted) == 0
}

func (r *Report) add(row int, results []FieldResult) {
	r.Rows++
	for _, res := range results {
		switch res.Status {
		case Partial:
			r.Partial[res.Field]++
		case DefaultedToZero:
			r.Defaulted[res.Field]++
		default:
			continue
		}
		if len(r.Issues) < MaxReportedIssues {
			r.Issues = append(r.Issues, Issue{Row: row, FieldResult: res})
		}
	}
}

type cellParser struct {
	row     Row
	results []FieldResult
}

func (p *cellParser) integer(field string) int64 {
	raw := p.row[field]
	n, status := ParseInt(raw)
	p.results = append(p.results, FieldResult{Field: field, Raw: raw, Status: status})
	return n
}

func (p *cellParser) decimal(field string) float64 {
	raw := p.row[field]
	f, status := ParseFloat(raw)
	p.results = append(p.results, FieldResult{Field: field, Raw: raw, Status: status})
	return f
}

// NormalizeAnalytics converts a raw row into an AnalyticsRecord. It never
// fails: unparseable numbers become 0.
func NormalizeAnalytics(row Row) AnalyticsRecord {
	rec, _ := NormalizeAnalyticsDetailed(row)
	return rec
}

// NormalizeAnalyticsDetailed is NormalizeAnalytics plus the parse outcome of
// each numeric cell.
func NormalizeAnalyticsDetailed(row Row) (AnalyticsRecord, []FieldResult) {
	p := &cellParser{row: row}
	rec := AnalyticsRecord{
		Date:    row[FieldDate],
		Page:    row[FieldPage],
		Visits:  p.integer(FieldVisits),
		Orders:  p.integer(FieldOrders),
		Revenue: p.decimal(FieldRevenue),
		Device:  Device(row[FieldDevice]),
		Channel: Channel(row[FieldChannel]),
	}
	return rec, p.results
}

// NormalizeSearch converts a raw row into a SearchRecord. It never fails:
// unparseable numbers become 0.
func NormalizeSearch(row Row) SearchRecord {
	rec, _ := NormalizeSearchDetailed(row)
	return rec
}

// NormalizeSearchDetailed is NormalizeSearch plus the parse outcome of each
// numeric cell.
func NormalizeSearchDetailed(row Row) (SearchRecord, []FieldResult) {
	p := &cellParser{row: row}
	rec := SearchRecord{
		Date:        row[FieldDate],
		Page:        row[FieldPage],
		Query:       row[FieldQuery],
		Clicks:      p.integer(FieldClicks),
		Impressions: p.integer(FieldImpressions),
		CTR:         p.decimal(FieldCTR),
		Position:    p.decimal(FieldPosition),
	}
	return rec, p.results
}

// NormalizeAnalyticsRows normalizes a batch and reports cells that were not
// parsed exactly. Row numbers in the report are 1-based data rows.
func NormalizeAnalyticsRows(rows []Row) ([]AnalyticsRecord, Report) {
	out := make([]AnalyticsRecord, 0, len(rows))
	report := newReport()
	for i, row := range rows {
		rec, results := NormalizeAnalyticsDetailed(row)
		out = append(out, rec)
		report.add(i+1, results)
	}
	return out, report
}

// NormalizeSearchRows normalizes a batch and reports cells that were not
// parsed exactly.
func NormalizeSearchRows(rows []Row) ([]SearchRecord, Report) {
	out := make([]SearchRecord, 0, len(rows))
	report := newReport()
	for i, row := range rows {
		rec, results := NormalizeSearchDetailed(row)
		out = append(out, rec)
		report.add(i+1, results)
	}
	return out, report
}
