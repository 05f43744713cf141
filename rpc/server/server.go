package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/hKV/lib/db"
	"github.com/ValentinKolb/hKV/lib/db/engines/bolt"
	"github.com/ValentinKolb/hKV/lib/db/engines/maple"
	"github.com/ValentinKolb/hKV/lib/db/engines/pebble"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/lib/store/lstore"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/ValentinKolb/hKV/rpc/serializer"
	"github.com/ValentinKolb/hKV/rpc/transport"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the store it encapsulates and the adapter that handles
// requests for the store
type serverShard struct {
	Store   store.IStore
	Adapter IRPCServerAdapter
}

// RPCServer hosts a set of shards and serves them over one transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	metricsServer *http.Server
	closeOnce     sync.Once
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		http.NewHttpServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// Serve creates the shards, starts the metrics endpoint if configured and
// blocks in the transport until Close is called.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}

	if s.config.MetricsEndpoint != "" {
		s.metricsServer = &http.Server{Addr: s.config.MetricsEndpoint, Handler: metricsHandler()}
		go func() {
			Logger.Infof("Serving metrics on %s/metrics", s.config.MetricsEndpoint)
			if err := s.metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				Logger.Errorf("Metrics endpoint failed: %v", err)
			}
		}()
	}

	return s.transport.Listen(s.config)
}

// Close stops the transport and closes all shard engines. Persistent engines
// flush their data on close.
func (s *RPCServer) Close() error {
	var errs []error
	s.closeOnce.Do(func() {
		errs = append(errs, s.transport.Close())
		if s.metricsServer != nil {
			errs = append(errs, s.metricsServer.Close())
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout())
		defer cancel()
		s.shards.Range(func(id uint64, shard serverShard) bool {
			if err := shard.Store.CloseDB(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to close shard %d: %w", id, err))
			}
			return true
		})
	})
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	for _, shardConfig := range s.config.Shards {
		location := s.config.ShardLocation(shardConfig)
		factory, err := s.dbFactory(shardConfig.Engine, location)
		if err != nil {
			return fmt.Errorf("shard %d: %w", shardConfig.ShardID, err)
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Store:   lstore.NewLocalStore(factory),
			Adapter: NewIStoreServerAdapter(location),
		})
		Logger.Infof("Created %s store for shard %d", shardConfig.Engine, shardConfig.ShardID)
	}

	s.transport.RegisterHandler(s.handle)
	Logger.Infof("hKV setup completed successfully")
	return nil
}

// dbFactory returns the factory for the engine of a shard
func (s *RPCServer) dbFactory(engine db.Implementation, location string) (store.DBFactory, error) {
	switch engine {
	case db.ImplBolt:
		return func() db.KVDB {
			return bolt.NewBoltDB(bolt.DBOptions{Path: location, Timeout: s.timeout()})
		}, nil
	case db.ImplPebble:
		return func() db.KVDB {
			return pebble.NewPebbleDB(pebble.DBOptions{Dir: location, Logger: common.PebbleLogger{Logger: logger.GetLogger("db")}})
		}, nil
	case db.ImplMaple:
		return func() db.KVDB {
			return maple.NewMapleDB(&maple.DBOptions{Path: location})
		}, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}

// timeout bounds how long a request waits for its store
func (s *RPCServer) timeout() time.Duration {
	if s.config.TimeoutSecond > 0 {
		return time.Duration(s.config.TimeoutSecond) * time.Second
	}
	return 30 * time.Second
}

// handle is the transport handler: decode, dispatch to the shard, encode
func (s *RPCServer) handle(ctx context.Context, shardId uint64, req []byte) []byte {
	start := time.Now()
	requestID := uuid.New()

	resp := s.dispatch(ctx, shardId, req)
	Logger.Debugf("request %s shard=%d type=%s ok=%t code=%s took %s",
		requestID, shardId, resp.MsgType, resp.Ok, resp.Code, time.Since(start))
	if resp.MsgType != common.MsgTError {
		observeRequest(shardId, resp, start)
	}

	data, err := s.serializer.Serialize(*resp)
	if err != nil {
		Logger.Errorf("request %s: failed to serialize response: %v", requestID, err)
		data, _ = s.serializer.Serialize(*common.NewErrorResponse(store.RetCInternalError,
			fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return data
}

// dispatch routes a serialized request to the adapter of its shard
func (s *RPCServer) dispatch(ctx context.Context, shardId uint64, req []byte) *common.Message {
	shard, ok := s.shards.Load(shardId)
	if !ok {
		observeInvalid("unknown_shard")
		return common.NewErrorResponse(store.RetCInvalidArgument, fmt.Sprintf("shard %d not found", shardId))
	}

	var msg common.Message
	if err := s.serializer.Deserialize(req, &msg); err != nil {
		observeInvalid("decode")
		return common.NewErrorResponse(store.RetCInvalidArgument, fmt.Sprintf("failed to deserialize request: %s", err))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	return shard.Adapter.Handle(ctx, &msg, shard.Store)
}
