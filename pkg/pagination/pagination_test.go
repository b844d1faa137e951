package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        Params
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", in: Params{}, wantPage: 1, wantLimit: DefaultLimit},
		{name: "negative page", in: Params{Page: -3, Limit: 10}, wantPage: 1, wantLimit: 10},
		{name: "capped limit", in: Params{Page: 2, Limit: 5000}, wantPage: 2, wantLimit: MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got.Page != tt.wantPage || got.Limit != tt.wantLimit {
				t.Fatalf("got page=%d limit=%d, want page=%d limit=%d", got.Page, got.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if off := (Params{Page: 3, Limit: 20}).Offset(); off != 40 {
		t.Fatalf("expected offset 40, got %d", off)
	}
	if off := (Params{}).Offset(); off != 0 {
		t.Fatalf("expected offset 0 for defaults, got %d", off)
	}
}

func TestBuildRoundsPagesUp(t *testing.T) {
	page := Build(Params{Page: 1, Limit: 20}, 41)
	if page.Pages != 3 {
		t.Fatalf("expected 3 pages for 41 rows at limit 20, got %d", page.Pages)
	}
	if page.Total != 41 {
		t.Fatalf("expected total 41, got %d", page.Total)
	}
}
