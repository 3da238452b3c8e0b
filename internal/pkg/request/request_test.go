//
// Copyright (c) 2022, NVIDIA CORPORATION. All rights reserved.
//
// See LICENSE.txt for license information
//

package request

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gvallee/mpi2otf2/internal/pkg/mpi"
	"github.com/gvallee/mpi2otf2/pkg/errors"
)

func TestWildcardReceive(t *testing.T) {
	tests := []struct {
		name           string
		status         *Status
		expectedSource int
		expectedTag    int
		expectedErr    error
	}{
		{
			name:           "with status",
			status:         &Status{Source: 3, Tag: 7},
			expectedSource: 3,
			expectedTag:    7,
		},
		{
			name:        "without status",
			expectedErr: errors.ErrRequest,
		},
		{
			name:        "status with wildcard",
			status:      &Status{Source: mpi.AnySource, Tag: 7},
			expectedErr: errors.ErrRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker()
			require.NoError(t, tracker.Issue(11, Pending{Kind: Irecv, Bytes: 8, Peer: mpi.AnySource, Tag: mpi.AnyTag}))
			c, ok, err := tracker.Complete(11, tt.status)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				require.False(t, ok)
				return
			}
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, tt.expectedSource, c.Peer)
			require.Equal(t, tt.expectedTag, c.Tag)
			require.Equal(t, int64(8), c.Bytes)
			require.Equal(t, 0, tracker.Len())
		})
	}
}

func TestReceiveWithoutWildcardNeedsNoStatus(t *testing.T) {
	tracker := NewTracker()
	require.NoError(t, tracker.Issue(4, Pending{Kind: Irecv, Peer: 1, Tag: 2}))
	c, ok, err := tracker.Complete(4, nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, c.Peer)
	require.Equal(t, 2, c.Tag)
}

func TestRequestLifecycle(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Issue(mpi.RequestNull, Pending{Kind: Isend}))
	require.Equal(t, 0, tracker.Len())
	_, ok, err := tracker.Complete(mpi.RequestNull, nil)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, tracker.Issue(5, Pending{Kind: Isend, Bytes: 16}))
	require.ErrorIs(t, tracker.Issue(5, Pending{Kind: Irecv}), errors.ErrRequest)
	require.NoError(t, tracker.Issue(3, Pending{Kind: Isend}))
	require.Equal(t, []int64{3, 5}, tracker.Outstanding())

	c, ok, err := tracker.Complete(5, &Status{Source: 9, Tag: 9})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Isend, c.Kind)
	require.Equal(t, int64(16), c.Bytes)

	// completed requests are erased and can be reused
	_, _, err = tracker.Complete(5, nil)
	require.ErrorIs(t, err, errors.ErrRequest)
	require.NoError(t, tracker.Issue(5, Pending{Kind: Isend}))
	require.Equal(t, 2, tracker.Len())
}
