package gateway

import (
	"context"
	"sort"
	"strings"
	"sync"

	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
	"github.com/KeyurIITGN/Strife/libs/logging"
	"github.com/KeyurIITGN/Strife/payment"

	"google.golang.org/grpc"
)

// Registry resolves bank names to live participant stubs.
type Registry interface {
	// Known reports whether the bank name is in the routing table
	Known(name string) bool
	// Names lists the configured bank names
	Names() []string
	// Client returns a stub for the named bank, dialing on first use
	Client(ctx context.Context, name string) (payment.BankServiceClient, error)
	// Invalidate drops a cached connection after a transport failure
	Invalidate(name string)
	// Close tears down every cached connection
	Close(ctx context.Context)
}

// ConnRegistry is a Registry over a static name to address map. Connections
// are established lazily on first use so a bank that comes up after the
// gateway is still reachable, and cached until a transport error invalidates
// them.
type ConnRegistry struct {
	mu       sync.Mutex
	addrs    map[string]string
	conns    map[string]*grpc.ClientConn
	dialOpts []grpc.DialOption
}

// NewConnRegistry - a registry over the static bank address map
func NewConnRegistry(addrs map[string]string, dialOpts ...grpc.DialOption) *ConnRegistry {
	return &ConnRegistry{
		addrs:    addrs,
		conns:    map[string]*grpc.ClientConn{},
		dialOpts: append(dialOpts, grpc.WithDefaultCallOptions(payment.CallOption())),
	}
}

// Known reports whether the bank name is in the routing table
func (r *ConnRegistry) Known(name string) bool {
	_, ok := r.addrs[name]
	return ok
}

// Names lists the configured bank names
func (r *ConnRegistry) Names() []string {
	names := make([]string, 0, len(r.addrs))
	for name := range r.addrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Client returns a stub for the named bank, dialing on first use
func (r *ConnRegistry) Client(ctx context.Context, name string) (payment.BankServiceClient, error) {
	addr, ok := r.addrs[name]
	if !ok {
		return nil, errorutils.ErrUnknownBank
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[name]; ok {
		return payment.NewBankServiceClient(conn), nil
	}

	conn, err := grpc.DialContext(ctx, addr, r.dialOpts...)
	if err != nil {
		return nil, errorutils.Wrap(err, "could not dial bank "+name)
	}
	r.conns[name] = conn

	return payment.NewBankServiceClient(conn), nil
}

// Invalidate drops a cached connection after a transport failure
func (r *ConnRegistry) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[name]; ok {
		_ = conn.Close()
		delete(r.conns, name)
	}
}

// Close tears down every cached connection
func (r *ConnRegistry) Close(ctx context.Context) {
	logger := logging.Logger(ctx, "gateway.ConnRegistry")

	r.mu.Lock()
	defer r.mu.Unlock()

	for name, conn := range r.conns {
		if err := conn.Close(); err != nil {
			logger.Error().Err(err).Str("bank", name).Msg("failed to close bank connection")
		}
		delete(r.conns, name)
	}
}

// ParseBankAddresses parses the "Bank1=localhost:50052,Bank2=localhost:50053"
// routing table flag into a name to address map.
func ParseBankAddresses(s string) map[string]string {
	addrs := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		addrs[parts[0]] = parts[1]
	}
	return addrs
}
