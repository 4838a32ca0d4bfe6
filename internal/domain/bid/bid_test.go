package bid

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSameBid(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tolerance := 2 * time.Second

	tests := []struct {
		name string
		a    *Bid
		b    *Bid
		want bool
	}{
		{
			name: "identical",
			a:    New("7", "carol", decimal.NewFromFloat(60), base, OriginPushed),
			b:    New("7", "carol", decimal.NewFromFloat(60), base, OriginHistorical),
			want: true,
		},
		{
			name: "within_tolerance",
			a:    New("7", "carol", decimal.NewFromFloat(60), base, OriginOptimistic),
			b:    New("7", "carol", decimal.NewFromFloat(60), base.Add(1500*time.Millisecond), OriginPushed),
			want: true,
		},
		{
			name: "outside_tolerance",
			a:    New("7", "carol", decimal.NewFromFloat(60), base, OriginPushed),
			b:    New("7", "carol", decimal.NewFromFloat(60), base.Add(3*time.Second), OriginPushed),
			want: false,
		},
		{
			name: "different_bidder",
			a:    New("7", "carol", decimal.NewFromFloat(60), base, OriginPushed),
			b:    New("7", "dave", decimal.NewFromFloat(60), base, OriginPushed),
			want: false,
		},
		{
			name: "different_amount",
			a:    New("7", "carol", decimal.NewFromFloat(60), base, OriginPushed),
			b:    New("7", "carol", decimal.NewFromFloat(60.1), base, OriginPushed),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.a.SameBid(tt.b, tolerance))
			require.Equal(t, tt.want, tt.b.SameBid(tt.a, tolerance), "match must be symmetric")
		})
	}
}

func TestSameBid_ServerIDWins(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	a := New("7", "carol", decimal.NewFromFloat(60), base, OriginHistorical)
	a.ServerID = "srv-1"
	b := New("7", "carol", decimal.NewFromFloat(60), base.Add(time.Hour), OriginPushed)
	b.ServerID = "srv-1"
	require.True(t, a.SameBid(b, 0), "matching server ids override the time rule")

	c := New("7", "carol", decimal.NewFromFloat(60), base, OriginPushed)
	c.ServerID = "srv-2"
	require.False(t, a.SameBid(c, time.Minute))
}

func TestConfirmUpgradesOptimisticEntry(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	local := New("7", "me", decimal.NewFromFloat(50.1), base, OriginOptimistic)
	require.Equal(t, StatusPending, local.Status)

	server := New("7", "me", decimal.NewFromFloat(50.1), base.Add(time.Second), OriginHistorical)
	server.ServerID = "srv-9"

	local.Confirm(server)
	require.True(t, local.IsConfirmed())
	require.Equal(t, "srv-9", local.ServerID)
	require.Equal(t, server.PlacedAt, local.PlacedAt)
}

func TestNewSetsStatusByOrigin(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	require.Equal(t, StatusPending, New("7", "me", decimal.NewFromFloat(1), base, OriginOptimistic).Status)
	require.Equal(t, StatusConfirmed, New("7", "me", decimal.NewFromFloat(1), base, OriginHistorical).Status)
	require.Equal(t, StatusConfirmed, New("7", "me", decimal.NewFromFloat(1), base, OriginPushed).Status)
}
