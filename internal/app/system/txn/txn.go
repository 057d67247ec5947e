// Package txn runs multi-step writes inside a MongoDB transaction when the
// deployment supports it, and falls back to plain sequential execution on
// standalone servers (local dev, some DocumentDB setups).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction on db's client. If the server rejects
// transactions, fn is run again without one. fn must use the ctx it is given
// so that its operations join the session.
func Run(ctx context.Context, db *mongo.Database, logger *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		logger.Debug("transactions not supported; running without one", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone mongod, unsupported operation inside a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, IllegalOperation (legacy), OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	has := func(sub string) bool { return strings.Contains(s, sub) }

	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation") && has("transaction"):
		return true
	}
	return false
}
