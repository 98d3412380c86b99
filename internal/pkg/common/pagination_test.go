package common

import "testing"

func TestValidatePagination(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{1, 10, 1, 10},
		{0, 0, 1, 10},
		{-5, -1, 1, 10},
		{3, 250, 3, 100},
		{2, 100, 2, 100},
	}

	for _, tc := range cases {
		page, limit := ValidatePagination(tc.page, tc.limit)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Errorf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
				tc.page, tc.limit, page, limit, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)

	if p.TotalPages != 4 {
		t.Errorf("TotalPages = %d, want 4", p.TotalPages)
	}
	if !p.HasNextPage || !p.HasPrevPage {
		t.Errorf("page 2 of 4 should have both neighbours: %+v", p)
	}
	if p.Skip != 10 || p.Limit != 10 {
		t.Errorf("Skip/Limit = %d/%d, want 10/10", p.Skip, p.Limit)
	}
}

func TestNewPaginationBounds(t *testing.T) {
	first := NewPagination(1, 10, 35)
	if first.HasPrevPage {
		t.Error("first page reports a previous page")
	}

	last := NewPagination(4, 10, 35)
	if last.HasNextPage {
		t.Error("last page reports a next page")
	}

	empty := NewPagination(1, 10, 0)
	if empty.TotalPages != 0 || empty.HasNextPage {
		t.Errorf("empty listing pagination: %+v", empty)
	}

	negative := NewPagination(1, 10, -7)
	if negative.TotalItems != 0 {
		t.Errorf("negative total not clamped: %+v", negative)
	}
}
