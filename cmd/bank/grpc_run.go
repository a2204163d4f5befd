package bank

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"github.com/KeyurIITGN/Strife/bank"
	"github.com/KeyurIITGN/Strife/cmd"
	"github.com/KeyurIITGN/Strife/libs/closers"
	appctx "github.com/KeyurIITGN/Strife/libs/context"
	"github.com/KeyurIITGN/Strife/libs/logging"
	"github.com/KeyurIITGN/Strife/middleware"
	"github.com/KeyurIITGN/Strife/payment"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
)

// maxConcurrentRequests bounds the server worker pool.
const maxConcurrentRequests = 10

// GRPCRun starts the bank grpc service and blocks until shutdown.
func GRPCRun(ctx context.Context) error {
	logger := logging.Logger(ctx, "bank.GRPCRun")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bankName, err := appctx.GetStringFromContext(ctx, appctx.BankNameCTXKey)
	if err != nil {
		return err
	}
	addr, err := appctx.GetStringFromContext(ctx, appctx.SrvAddrCTXKey)
	if err != nil {
		return err
	}
	dataDir, err := appctx.GetStringFromContext(ctx, appctx.DataDirCTXKey)
	if err != nil {
		return err
	}

	datastore, err := bank.NewSQLite(DatabasePath(dataDir, bankName), true)
	if err != nil {
		return err
	}
	defer closers.Log(ctx, datastore)

	service, err := bank.InitService(ctx, bankName, datastore)
	if err != nil {
		return err
	}

	serverCreds, err := cmd.ServerCredentials()
	if err != nil {
		return err
	}

	gSrv := grpc.NewServer(
		grpc.Creds(serverCreds),
		grpc.MaxConcurrentStreams(maxConcurrentRequests),
		grpc.NumStreamWorkers(maxConcurrentRequests),
		grpc.ChainUnaryInterceptor(
			middleware.RequestLogger(ctx),
			grpcprometheus.UnaryServerInterceptor,
		),
	)
	payment.RegisterBankServiceServer(gSrv, service)
	grpcprometheus.Register(gSrv)

	if opsAddr, err := appctx.GetStringFromContext(ctx, appctx.OpsAddrCTXKey); err == nil && opsAddr != "" {
		opsSrv := cmd.StartOpsServer(ctx, opsAddr)
		defer closers.Log(ctx, opsSrv)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return logging.LogAndError(logger, "failed to setup listener", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("bank", bankName).Msg("serving bank grpc service")
		errCh <- gSrv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutting down, draining in-flight requests")
		gSrv.GracefulStop()
		return nil
	}
}
