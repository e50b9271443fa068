package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/timeshop/internal/models"
)

func TestRegistryUpsertReplacesWholesale(t *testing.T) {
	r := NewRegistry()

	r.Upsert("c1", models.Presence{Username: "alice", Coins: 2})
	r.Upsert("c1", models.Presence{Username: "alice", Coins: 5, HideCoins: true})

	require.Equal(t, 1, r.Len())
	all := r.SnapshotAll()
	require.Len(t, all, 1)
	require.Equal(t, 5, all[0].Coins)
	require.True(t, all[0].HideCoins)
}

func TestRegistryMultipleConnectionsSameAccount(t *testing.T) {
	// Two tabs of the same account are independent entries.
	r := NewRegistry()
	r.Upsert("c1", models.Presence{Username: "alice"})
	r.Upsert("c2", models.Presence{Username: "alice"})

	require.Equal(t, 2, r.Len())
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Upsert("c1", models.Presence{Username: "alice"})
	r.Upsert("c2", models.Presence{Username: "bob"})

	require.True(t, r.Remove("c1"))
	require.Equal(t, 1, r.Len())
	require.Equal(t, "bob", r.SnapshotAll()[0].Username)

	// A connection that never reported presence removes nothing.
	require.False(t, r.Remove("c1"))
	require.False(t, r.Remove("ghost"))
}

func TestRegistrySnapshotOrderIsReportOrder(t *testing.T) {
	r := NewRegistry()
	r.Upsert("c1", models.Presence{Username: "alice"})
	r.Upsert("c2", models.Presence{Username: "bob"})
	r.Upsert("c1", models.Presence{Username: "alice", TotalSeconds: 9})

	all := r.SnapshotAll()
	require.Equal(t, "alice", all[0].Username)
	require.Equal(t, "bob", all[1].Username)
	require.Equal(t, 9, all[0].TotalSeconds)
}
