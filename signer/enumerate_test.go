package signer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnumerateListMarketplaceId(t *testing.T) {
	got := EnumerateList("MarketplaceId", []any{"x", "y", "z"})
	require.Equal(t, map[string]string{
		"MarketplaceId.Id.1": "x",
		"MarketplaceId.Id.2": "y",
		"MarketplaceId.Id.3": "z",
	}, got)
}

func TestEnumerateListASINList(t *testing.T) {
	got := EnumerateList("ASINList", []any{"a", "b"})
	require.Equal(t, map[string]string{
		"ASINList.ASIN.1": "a",
		"ASINList.ASIN.2": "b",
	}, got)
}

func TestEnumerateListDictValues(t *testing.T) {
	got := EnumerateList("FeedSubmissionList", []any{
		map[string]any{"Id": "1", "Quantity": "5"},
	})
	require.Equal(t, map[string]string{
		"FeedSubmissionList.FeedSubmission.1.Id":       "1",
		"FeedSubmissionList.FeedSubmission.1.Quantity": "5",
	}, got)
}

func TestItemTagSuffixRemoval(t *testing.T) {
	require.Equal(t, "ASIN", itemTag("ASINList"))
	require.Equal(t, "Id", itemTag("MarketplaceId"))
}
