package repository

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// ensureIndexes creates indexes at startup. A failure is logged and startup continues;
// unique indexes that fail to build leave duplicate detection to the pre-insert lookup.
func ensureIndexes(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) {
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		log.Error().Err(err).Str("collection", coll.Name()).Msg("failed to create indexes")
	}
}
