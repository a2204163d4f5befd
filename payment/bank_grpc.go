package payment

import (
	"context"

	"google.golang.org/grpc"
)

// BankServiceClient is the gateway-facing surface of a bank participant.
type BankServiceClient interface {
	// VerifyCredentials checks a username/password pair against the bank's accounts
	VerifyCredentials(ctx context.Context, in *VerifyCredentialsRequest, opts ...grpc.CallOption) (*VerifyCredentialsResponse, error)
	// GetBalance returns the posted balance of an account
	GetBalance(ctx context.Context, in *BankBalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error)
	// GetTransactionHistory lists ledger entries for an account
	GetTransactionHistory(ctx context.Context, in *BankHistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error)
	// ProcessTransaction applies a direct non-2PC mutation, idempotent on payment id
	ProcessTransaction(ctx context.Context, in *ProcessTransactionRequest, opts ...grpc.CallOption) (*ProcessTransactionResponse, error)
	// PrepareTransaction records a 2PC vote
	PrepareTransaction(ctx context.Context, in *PrepareRequest, opts ...grpc.CallOption) (*PrepareResponse, error)
	// CommitTransaction applies a prepared transaction
	CommitTransaction(ctx context.Context, in *CommitRequest, opts ...grpc.CallOption) (*CommitResponse, error)
	// AbortTransaction releases a prepared transaction; unknown ids succeed
	AbortTransaction(ctx context.Context, in *AbortRequest, opts ...grpc.CallOption) (*AbortResponse, error)
}

type bankServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewBankServiceClient - client stub over an established connection
func NewBankServiceClient(cc grpc.ClientConnInterface) BankServiceClient {
	return &bankServiceClient{cc}
}

func (c *bankServiceClient) VerifyCredentials(ctx context.Context, in *VerifyCredentialsRequest, opts ...grpc.CallOption) (*VerifyCredentialsResponse, error) {
	out := new(VerifyCredentialsResponse)
	if err := c.cc.Invoke(ctx, BankVerifyCredentialsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bankServiceClient) GetBalance(ctx context.Context, in *BankBalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	out := new(BalanceResponse)
	if err := c.cc.Invoke(ctx, BankGetBalanceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bankServiceClient) GetTransactionHistory(ctx context.Context, in *BankHistoryRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.cc.Invoke(ctx, BankHistoryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bankServiceClient) ProcessTransaction(ctx context.Context, in *ProcessTransactionRequest, opts ...grpc.CallOption) (*ProcessTransactionResponse, error) {
	out := new(ProcessTransactionResponse)
	if err := c.cc.Invoke(ctx, BankProcessTransactionMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bankServiceClient) PrepareTransaction(ctx context.Context, in *PrepareRequest, opts ...grpc.CallOption) (*PrepareResponse, error) {
	out := new(PrepareResponse)
	if err := c.cc.Invoke(ctx, BankPrepareMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bankServiceClient) CommitTransaction(ctx context.Context, in *CommitRequest, opts ...grpc.CallOption) (*CommitResponse, error) {
	out := new(CommitResponse)
	if err := c.cc.Invoke(ctx, BankCommitMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bankServiceClient) AbortTransaction(ctx context.Context, in *AbortRequest, opts ...grpc.CallOption) (*AbortResponse, error) {
	out := new(AbortResponse)
	if err := c.cc.Invoke(ctx, BankAbortMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// BankServiceServer is implemented by each bank participant.
type BankServiceServer interface {
	VerifyCredentials(context.Context, *VerifyCredentialsRequest) (*VerifyCredentialsResponse, error)
	GetBalance(context.Context, *BankBalanceRequest) (*BalanceResponse, error)
	GetTransactionHistory(context.Context, *BankHistoryRequest) (*HistoryResponse, error)
	ProcessTransaction(context.Context, *ProcessTransactionRequest) (*ProcessTransactionResponse, error)
	PrepareTransaction(context.Context, *PrepareRequest) (*PrepareResponse, error)
	CommitTransaction(context.Context, *CommitRequest) (*CommitResponse, error)
	AbortTransaction(context.Context, *AbortRequest) (*AbortResponse, error)
}

// RegisterBankServiceServer wires srv into the grpc server
func RegisterBankServiceServer(s grpc.ServiceRegistrar, srv BankServiceServer) {
	s.RegisterService(&bankServiceDesc, srv)
}

func bankVerifyCredentialsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(VerifyCredentialsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BankServiceServer).VerifyCredentials(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BankVerifyCredentialsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BankServiceServer).VerifyCredentials(ctx, req.(*VerifyCredentialsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bankGetBalanceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(BankBalanceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BankServiceServer).GetBalance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BankGetBalanceMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BankServiceServer).GetBalance(ctx, req.(*BankBalanceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bankHistoryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(BankHistoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BankServiceServer).GetTransactionHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BankHistoryMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BankServiceServer).GetTransactionHistory(ctx, req.(*BankHistoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bankProcessTransactionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ProcessTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BankServiceServer).ProcessTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BankProcessTransactionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BankServiceServer).ProcessTransaction(ctx, req.(*ProcessTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bankPrepareHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PrepareRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BankServiceServer).PrepareTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BankPrepareMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BankServiceServer).PrepareTransaction(ctx, req.(*PrepareRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bankCommitHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CommitRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BankServiceServer).CommitTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BankCommitMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BankServiceServer).CommitTransaction(ctx, req.(*CommitRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bankAbortHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AbortRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BankServiceServer).AbortTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: BankAbortMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BankServiceServer).AbortTransaction(ctx, req.(*AbortRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var bankServiceDesc = grpc.ServiceDesc{
	ServiceName: BankServiceName,
	HandlerType: (*BankServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "VerifyCredentials", Handler: bankVerifyCredentialsHandler},
		{MethodName: "GetBalance", Handler: bankGetBalanceHandler},
		{MethodName: "GetTransactionHistory", Handler: bankHistoryHandler},
		{MethodName: "ProcessTransaction", Handler: bankProcessTransactionHandler},
		{MethodName: "PrepareTransaction", Handler: bankPrepareHandler},
		{MethodName: "CommitTransaction", Handler: bankCommitHandler},
		{MethodName: "AbortTransaction", Handler: bankAbortHandler},
	},
	Streams: []grpc.StreamDesc{},
}
