package payment

import (
	"context"

	"google.golang.org/grpc"
)

// PaymentGatewayClient is the client-facing surface of the gateway service.
type PaymentGatewayClient interface {
	// Authenticate verifies credentials with the owning bank and mints a session token
	Authenticate(ctx context.Context, in *AuthRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	// CheckBalance returns the balance of the session's account
	CheckBalance(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error)
	// ProcessPayment runs an idempotent two-phase-commit payment
	ProcessPayment(ctx context.Context, in *PaymentRequest, opts ...grpc.CallOption) (*PaymentResponse, error)
	// GetTransactionHistory lists ledger entries for the session's account
	GetTransactionHistory(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error)
}

type paymentGatewayClient struct {
	cc grpc.ClientConnInterface
}

// NewPaymentGatewayClient - client stub over an established connection
func NewPaymentGatewayClient(cc grpc.ClientConnInterface) PaymentGatewayClient {
	return &paymentGatewayClient{cc}
}

func (c *paymentGatewayClient) Authenticate(ctx context.Context, in *AuthRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	out := new(AuthResponse)
	if err := c.cc.Invoke(ctx, GatewayAuthenticateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentGatewayClient) CheckBalance(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.cc.Invoke(ctx, GatewayCheckBalanceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentGatewayClient) ProcessPayment(ctx context.Context, in *PaymentRequest, opts ...grpc.CallOption) (*PaymentResponse, error) {
	out := new(PaymentResponse)
	if err := c.cc.Invoke(ctx, GatewayProcessPaymentMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentGatewayClient) GetTransactionHistory(ctx context.Context, in *HistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.cc.Invoke(ctx, GatewayHistoryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentGatewayServer is implemented by the gateway service.
type PaymentGatewayServer interface {
	Authenticate(context.Context, *AuthRequest) (*AuthResponse, error)
	CheckBalance(context.Context, *BalanceRequest) (*BalanceResponse, error)
	ProcessPayment(context.Context, *PaymentRequest) (*PaymentResponse, error)
	GetTransactionHistory(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

// RegisterPaymentGatewayServer wires srv into the grpc server
func RegisterPaymentGatewayServer(s grpc.ServiceRegistrar, srv PaymentGatewayServer) {
	s.RegisterService(&paymentGatewayServiceDesc, srv)
}

func gatewayAuthenticateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AuthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentGatewayServer).Authenticate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GatewayAuthenticateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentGatewayServer).Authenticate(ctx, req.(*AuthRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func gatewayCheckBalanceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(BalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentGatewayServer).CheckBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GatewayCheckBalanceMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentGatewayServer).CheckBalance(ctx, req.(*BalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func gatewayProcessPaymentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentGatewayServer).ProcessPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GatewayProcessPaymentMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentGatewayServer).ProcessPayment(ctx, req.(*PaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func gatewayHistoryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(HistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentGatewayServer).GetTransactionHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GatewayHistoryMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentGatewayServer).GetTransactionHistory(ctx, req.(*HistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var paymentGatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: GatewayServiceName,
	HandlerType: (*PaymentGatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: gatewayAuthenticateHandler},
		{MethodName: "CheckBalance", Handler: gatewayCheckBalanceHandler},
		{MethodName: "ProcessPayment", Handler: gatewayProcessPaymentHandler},
		{MethodName: "GetTransactionHistory", Handler: gatewayHistoryHandler},
	},
	Streams: []grpc.StreamDesc{},
}
