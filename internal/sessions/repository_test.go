package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRevocations(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("ttl index failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))
		_, err := NewMongoRevocations(ctx, mt.Coll)
		require.Error(mt, err)
	})

	mt.Run("revoke then lookup", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo, err := NewMongoRevocations(ctx, mt.Coll)
		require.NoError(mt, err)

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		require.NoError(mt, repo.Revoke(ctx, "sess-1", time.Now().Add(time.Hour)))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "htmlhost.revoked_sessions", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: 1}}))
		ok, err := repo.IsRevoked(ctx, "sess-1")
		require.NoError(mt, err)
		require.True(mt, ok)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "htmlhost.revoked_sessions", mtest.FirstBatch))
		ok, err = repo.IsRevoked(ctx, "sess-2")
		require.NoError(mt, err)
		require.False(mt, ok)
	})
}
