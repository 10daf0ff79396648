package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ValentinKolb/dTodo/lib/registry"
	"github.com/ValentinKolb/dTodo/lib/store"
	"github.com/ValentinKolb/dTodo/lib/store/lstore"
	"github.com/ValentinKolb/dTodo/lib/worker"
	"github.com/ValentinKolb/dTodo/rpc/common"
	"github.com/ValentinKolb/dTodo/rpc/serializer"
	"github.com/ValentinKolb/dTodo/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
	}
}

// RPCServer owns the store, the registry and the transport of a dTodo server.
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer

	store    store.IStore
	registry registry.IRegistry
	adapter  *TodoServerAdapter
}

func (s *RPCServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(ctx context.Context, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		// Decode the request and let the adapter handle it
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(common.ErrCInvalidArgument, fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			respMsg = s.adapter.Handle(ctx, &msg)
		}

		// Return result
		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(common.ErrCInternal, fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

// Init creates the storage backend, the store and the registry and wires them to the
// transport. Serve calls it, tests may call it directly.
func (s *RPCServer) Init() error {
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := common.InitLoggers(s.config); err != nil {
		return err
	}

	factory, err := NewDBFactory(s.config)
	if err != nil {
		return err
	}

	timeout := s.config.CallTimeout()
	s.store, err = lstore.NewLocalStoreFromFactory(factory, lstore.Options{
		CallTimeout:       timeout,
		QuarantineCorrupt: s.config.QuarantineCorrupt,
	})
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	s.registry = registry.NewRegistry(s.store, registry.Options{
		MaxWorkers:  s.config.MaxWorkers,
		CallTimeout: timeout,
		Worker:      worker.Options{CallTimeout: timeout},
	})
	s.adapter = NewTodoServerAdapter(s.registry, s.store, timeout)

	// Configure the transport layer
	s.registerTransportHandler()
	(&restAPI{adapter: s.adapter}).mount(s.transport)

	Logger.Infof("dTodo setup completed successfully (backend %s, serializer %s)", s.config.Backend, s.serializer.Name())
	return nil
}

// Serve starts the RPC server and blocks until SIGINT or SIGTERM, then shuts down gracefully.
// This function will also initialize the server and start the transport layer
func (s *RPCServer) Serve() error {
	if err := s.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() { listenErr <- s.transport.Listen(s.config) }()

	var err error
	select {
	case err = <-listenErr:
		if err != nil {
			Logger.Errorf("transport failed: %v", err)
		}
	case <-ctx.Done():
		Logger.Infof("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout())
	defer cancel()
	return errors.Join(err, s.Shutdown(shutdownCtx))
}

// Shutdown stops the transport, then all workers, then the store (which closes the backend).
func (s *RPCServer) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.transport.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("transport shutdown: %w", err))
	}
	if s.registry != nil {
		if err := s.registry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("registry shutdown: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}
	if len(errs) == 0 {
		Logger.Infof("shutdown complete")
	}
	return errors.Join(errs...)
}

// Reload applies the settings of config that can change at runtime: log level and call timeout.
func (s *RPCServer) Reload(config common.ServerConfig) error {
	if err := common.SetLogLevel(config.LogLevel); err != nil {
		return err
	}
	if s.adapter != nil {
		s.adapter.SetCallTimeout(config.CallTimeout())
	}
	Logger.Infof("reloaded configuration: log level %s, call timeout %v", config.LogLevel, config.CallTimeout())
	return nil
}
