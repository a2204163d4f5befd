package gateway

import (
	"context"
	"net"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KeyurIITGN/Strife/cmd"
	"github.com/KeyurIITGN/Strife/gateway"
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

// GRPCRun starts the gateway grpc service and blocks until shutdown.
func GRPCRun(ctx context.Context) error {
	logger := logging.Logger(ctx, "gateway.GRPCRun")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr, err := appctx.GetStringFromContext(ctx, appctx.SrvAddrCTXKey)
	if err != nil {
		return err
	}
	dataDir, err := appctx.GetStringFromContext(ctx, appctx.DataDirCTXKey)
	if err != nil {
		return err
	}
	bankFlag, err := appctx.GetStringFromContext(ctx, appctx.BankAddressesCTXKey)
	if err != nil {
		return err
	}
	tokenTTL, err := appctx.GetDurationFromContext(ctx, appctx.TokenTTLCTXKey)
	if err != nil {
		tokenTTL = time.Hour
	}

	tokens, err := gateway.NewTokenStore(ctx, filepath.Join(dataDir, "active_tokens.json"), tokenTTL)
	if err != nil {
		return err
	}
	tokens.StartSweeper(ctx, time.Hour)
	defer tokens.Stop()

	clientCreds, err := cmd.ClientCredentials()
	if err != nil {
		return err
	}
	registry := gateway.NewConnRegistry(
		gateway.ParseBankAddresses(bankFlag),
		grpc.WithTransportCredentials(clientCreds),
	)
	defer registry.Close(ctx)

	service, err := gateway.InitService(ctx, registry, tokens)
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
			middleware.AuthInterceptor(tokens, payment.GatewayAuthenticateMethod),
		),
	)
	payment.RegisterPaymentGatewayServer(gSrv, service)
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
		logger.Info().Str("addr", addr).Msg("serving gateway grpc service")
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
