package adminui

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"shopguide/internal/apiclient"
)

func TestComputeOrder(t *testing.T) {
	got := ComputeOrder([]string{"c", "a", "b"})
	want := []apiclient.OrderEntry{
		{ProductID: "c", Rank: 1},
		{ProductID: "a", Rank: 2},
		{ProductID: "b", Rank: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ComputeOrder mismatch (-want +got):\n%s", diff)
	}

	if got := ComputeOrder(nil); len(got) != 0 {
		t.Fatalf("expected empty order, got %v", got)
	}
}

func TestMove(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5", "6"}
	cases := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"last to first", 5, 0, []string{"6", "1", "2", "3", "4", "5"}},
		{"first to last", 0, 5, []string{"2", "3", "4", "5", "6", "1"}},
		{"middle down", 1, 3, []string{"1", "3", "4", "2", "5", "6"}},
		{"middle up", 4, 2, []string{"1", "2", "5", "3", "4", "6"}},
		{"in place", 2, 2, ids},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Move(ids, tc.from, tc.to)
			if err != nil {
				t.Fatalf("Move returned error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Move mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if diff := cmp.Diff([]string{"1", "2", "3", "4", "5", "6"}, ids); diff != "" {
		t.Fatalf("input was modified:\n%s", diff)
	}

	if _, err := Move(ids, 6, 0); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := Move(ids, 0, -1); err == nil {
		t.Fatal("expected out of range error")
	}
}
