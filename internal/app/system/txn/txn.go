// Package txn runs multi-collection writes inside a MongoDB transaction when
// the deployment supports one, and runs them directly when it does not.
//
// Callers must write the function passed to Run so that it is safe to run
// again after a partial failure: standalone servers have no rollback.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes functions in transactions against one client.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// New returns a Runner for client. A nil client yields a Runner that runs
// functions directly.
func New(client *mongo.Client, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{client: client, log: log}
}

// Run calls fn inside a transaction. If the server rejects transactions, the
// Runner remembers that and calls fn without one from then on. A ctx that
// already carries a session joins the caller's transaction.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.client == nil || r.unsupported.Load() {
		return fn(ctx)
	}
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.markUnsupported(err)
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		r.markUnsupported(err)
		return fn(ctx)
	}
	return err
}

func (r *Runner) markUnsupported(err error) {
	if r.unsupported.CompareAndSwap(false, true) {
		r.log.Warn("transactions not supported by this deployment; running writes without them",
			zap.Error(err))
	}
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (standalone mongod, old versions).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: transactions need a replica set member or mongos
			51,  // not supported on this storage engine
			263: // operation not supported in a transaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	notSupported := strings.Contains(s, "not supported")
	if strings.Contains(s, "session") && notSupported {
		return true
	}
	if !strings.Contains(s, "transaction") {
		return false
	}
	return notSupported ||
		strings.Contains(s, "replica set") ||
		strings.Contains(s, "session") ||
		strings.Contains(s, "illegal operation")
}
