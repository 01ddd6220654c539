package analysis

import (
	"errors"
	"reflect"
	"testing"
)

func TestRequestNormalize(t *testing.T) {
	req := Request{
		FoundationIDs: []string{"F2", " F1 ", "F2", ""},
		TaxYears:      []int{2023, 2022, 2023, 0},
	}
	got := req.Normalize(2)

	if !reflect.DeepEqual(got.FoundationIDs, []string{"F1", "F2"}) {
		t.Fatalf("foundation ids = %v", got.FoundationIDs)
	}
	if !reflect.DeepEqual(got.TaxYears, []int{2022, 2023}) {
		t.Fatalf("tax years = %v", got.TaxYears)
	}
	if got.MinFoundations != 2 {
		t.Fatalf("min foundations = %d, want default 2", got.MinFoundations)
	}
}

func TestRequestValidate(t *testing.T) {
	valid := Request{FoundationIDs: []string{"F1"}, MinFoundations: 2}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	for _, req := range []Request{
		{FoundationIDs: []string{"F1"}, MinFoundations: 0},
		{FoundationIDs: nil, MinFoundations: 2},
	} {
		if err := req.Validate(); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("req %+v: err = %v, want ErrInvalidRequest", req, err)
		}
	}
}

func TestRequestCacheKeyOrderIndependent(t *testing.T) {
	a := Request{FoundationIDs: []string{"F1", "F2"}, TaxYears: []int{2022, 2023}, MinFoundations: 2}.Normalize(2)
	b := Request{FoundationIDs: []string{"F2", "F1"}, TaxYears: []int{2023, 2022}, MinFoundations: 2}.Normalize(2)
	if a.CacheKey() != b.CacheKey() {
		t.Fatalf("cache key depends on input order")
	}

	c := Request{FoundationIDs: []string{"F1", "F2"}, TaxYears: []int{2022, 2023}, MinFoundations: 3}.Normalize(2)
	if a.CacheKey() == c.CacheKey() {
		t.Fatalf("cache key ignores min foundations")
	}
}
