package services

import (
	"context"
	"testing"
	"time"

	"github.com/mnbarber/bookden/internal/models"
	"github.com/mnbarber/bookden/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeFriendStore struct {
	requests []models.FriendRequest
}

func (f *fakeFriendStore) CreateRequest(_ context.Context, req *models.FriendRequest) (*models.FriendRequest, error) {
	req.ID = primitive.NewObjectID()
	req.Status = models.FriendStatusPending
	req.CreatedAt = time.Now()
	f.requests = append(f.requests, *req)
	return req, nil
}

func (f *fakeFriendStore) GetRequestBetween(_ context.Context, userA, userB primitive.ObjectID) (*models.FriendRequest, error) {
	for i := range f.requests {
		r := f.requests[i]
		if r.Status == models.FriendStatusRejected {
			continue
		}
		if (r.SenderID == userA && r.ReceiverID == userB) || (r.SenderID == userB && r.ReceiverID == userA) {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeFriendStore) GetRequestsByReceiver(_ context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for _, r := range f.requests {
		if r.ReceiverID == receiverID && r.Status == models.FriendStatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFriendStore) GetRequestByID(_ context.Context, id primitive.ObjectID) (*models.FriendRequest, error) {
	for i := range f.requests {
		if f.requests[i].ID == id {
			r := f.requests[i]
			return &r, nil
		}
	}
	return nil, apperrors.NotFound("request not found")
}

func (f *fakeFriendStore) UpdateRequestStatus(_ context.Context, id primitive.ObjectID, status string) error {
	for i := range f.requests {
		if f.requests[i].ID == id {
			f.requests[i].Status = status
			return nil
		}
	}
	return apperrors.NotFound("request not found")
}

func (f *fakeFriendStore) DeleteFriendship(_ context.Context, userA, userB primitive.ObjectID) error {
	kept := f.requests[:0]
	for _, r := range f.requests {
		pair := (r.SenderID == userA && r.ReceiverID == userB) || (r.SenderID == userB && r.ReceiverID == userA)
		if pair && r.Status == models.FriendStatusAccepted {
			continue
		}
		kept = append(kept, r)
	}
	f.requests = kept
	return nil
}

func newFriendFixture() (*FriendService, *fakeFriendStore, *fakeUserStore) {
	friends := &fakeFriendStore{}
	users := newFakeUserStore()
	return NewFriendService(friends, users), friends, users
}

func TestSendFriendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending request", func(t *testing.T) {
		svc, _, users := newFriendFixture()
		alice := users.addUser("alice", false)
		bob := users.addUser("bob", false)

		request, err := svc.SendFriendRequest(ctx, alice, bob)
		require.NoError(t, err)
		assert.Equal(t, models.FriendStatusPending, request.Status)
	})

	t.Run("self request is forbidden", func(t *testing.T) {
		svc, _, users := newFriendFixture()
		alice := users.addUser("alice", false)

		_, err := svc.SendFriendRequest(ctx, alice, alice)
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("duplicate in either direction conflicts", func(t *testing.T) {
		svc, _, users := newFriendFixture()
		alice := users.addUser("alice", false)
		bob := users.addUser("bob", false)

		_, err := svc.SendFriendRequest(ctx, alice, bob)
		require.NoError(t, err)

		_, err = svc.SendFriendRequest(ctx, bob, alice)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestRespondToRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("accepting links both friend lists", func(t *testing.T) {
		svc, _, users := newFriendFixture()
		alice := users.addUser("alice", false)
		bob := users.addUser("bob", false)

		request, err := svc.SendFriendRequest(ctx, alice, bob)
		require.NoError(t, err)

		require.NoError(t, svc.RespondToRequest(ctx, request.ID, bob, true))

		assert.Contains(t, users.friends[alice], bob)
		assert.Contains(t, users.friends[bob], alice)
	})

	t.Run("only the receiver may respond", func(t *testing.T) {
		svc, _, users := newFriendFixture()
		alice := users.addUser("alice", false)
		bob := users.addUser("bob", false)

		request, err := svc.SendFriendRequest(ctx, alice, bob)
		require.NoError(t, err)

		err = svc.RespondToRequest(ctx, request.ID, alice, true)
		assert.True(t, apperrors.IsForbidden(err))
	})

	t.Run("responding twice conflicts", func(t *testing.T) {
		svc, _, users := newFriendFixture()
		alice := users.addUser("alice", false)
		bob := users.addUser("bob", false)

		request, err := svc.SendFriendRequest(ctx, alice, bob)
		require.NoError(t, err)
		require.NoError(t, svc.RespondToRequest(ctx, request.ID, bob, false))

		err = svc.RespondToRequest(ctx, request.ID, bob, true)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestRemoveFriendship(t *testing.T) {
	ctx := context.Background()
	svc, store, users := newFriendFixture()
	alice := users.addUser("alice", false)
	bob := users.addUser("bob", false)

	request, err := svc.SendFriendRequest(ctx, alice, bob)
	require.NoError(t, err)
	require.NoError(t, svc.RespondToRequest(ctx, request.ID, bob, true))

	require.NoError(t, svc.RemoveFriend(ctx, alice, bob))
	assert.NotContains(t, users.friends[alice], bob)
	assert.NotContains(t, users.friends[bob], alice)

	// The cleared friendship allows a fresh request.
	_, err = svc.SendFriendRequest(ctx, bob, alice)
	require.NoError(t, err)
	assert.NotEmpty(t, store.requests)
}
