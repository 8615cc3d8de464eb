package calendar

import "yomtov/internal/model"

// Buckets holds classified events. Each bucket keeps the input order.
type Buckets struct {
	Holidays       []model.RawEvent
	CandleLighting []model.RawEvent
	Parsha         []model.RawEvent
	Havdalah       []model.RawEvent
}

// routes is checked in order; the first matching tag wins. Events carrying
// none of these tags (omer, molad, tags added to the engine later) are
// dropped.
var routes = []struct {
	tag    model.Category
	bucket func(*Buckets) *[]model.RawEvent
}{
	{model.CategoryCandleLighting, func(b *Buckets) *[]model.RawEvent { return &b.CandleLighting }},
	{model.CategoryHavdalah, func(b *Buckets) *[]model.RawEvent { return &b.Havdalah }},
	{model.CategoryParsha, func(b *Buckets) *[]model.RawEvent { return &b.Parsha }},
	{model.CategoryHoliday, func(b *Buckets) *[]model.RawEvent { return &b.Holidays }},
}

// Classify partitions raw events by category tag.
func Classify(events []model.RawEvent) Buckets {
	var b Buckets
	for _, ev := range events {
		for _, r := range routes {
			if ev.Categories.Has(r.tag) {
				dst := r.bucket(&b)
				*dst = append(*dst, ev)
				break
			}
		}
	}
	return b
}
