package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nigel-dev/missionctl/internal/model"
)

func TestStore_AllocatePort_LowestFreeFirst(t *testing.T) {
	st := newTestStore(t)
	rng := PortRange{Start: 9000, End: 9002}

	p1, err := st.AllocatePort(rng, nil)
	require.NoError(t, err)
	require.Equal(t, 9000, p1)

	p2, err := st.AllocatePort(rng, nil)
	require.NoError(t, err)
	require.Equal(t, 9001, p2)
}

func TestStore_AllocatePort_SkipsActiveJobPorts(t *testing.T) {
	st := newTestStore(t)
	rng := PortRange{Start: 9000, End: 9002}
	active := []*model.LaunchedJob{{Port: 9000}}

	p, err := st.AllocatePort(rng, active)
	require.NoError(t, err)
	require.Equal(t, 9001, p)
}

func TestStore_AllocatePort_ExhaustedRange(t *testing.T) {
	st := newTestStore(t)
	rng := PortRange{Start: 9000, End: 9000}

	_, err := st.AllocatePort(rng, nil)
	require.NoError(t, err)

	_, err = st.AllocatePort(rng, nil)
	require.Error(t, err)
}

func TestStore_ReleasePort_AllowsReuse(t *testing.T) {
	st := newTestStore(t)
	rng := PortRange{Start: 9000, End: 9000}

	p, err := st.AllocatePort(rng, nil)
	require.NoError(t, err)
	require.NoError(t, st.ReleasePort(p))

	p2, err := st.AllocatePort(rng, nil)
	require.NoError(t, err)
	require.Equal(t, p, p2)
}

func TestStore_ReleasePort_Idempotent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.ReleasePort(9999))
	require.NoError(t, st.ReleasePort(9999))
}
