// Package client implements the terminal payment client: a gateway stub with
// a durable pending-payment queue and a background connectivity supervisor
// that replays queued payments whenever a session is held and the gateway is
// reachable.
package client

import (
	"context"
	"sync"
	"time"

	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
	"github.com/KeyurIITGN/Strife/libs/logging"
	"github.com/KeyurIITGN/Strife/payment"

	uuid "github.com/satori/go.uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	defaultCallTimeout = 10 * time.Second
	probeTimeout       = 2 * time.Second
)

// Client wraps one gateway connection, the held session token and the
// durable pending queue. The client id partitions on-disk queues only; it
// has no authentication meaning.
type Client struct {
	mu          sync.Mutex
	addr        string
	creds       credentials.TransportCredentials
	conn        *grpc.ClientConn
	stub        payment.PaymentGatewayClient
	token       string
	clientID    string
	queue       *Queue
	callTimeout time.Duration
}

// New - a disconnected client with a fresh id and its own queue directory
func New(addr string, creds credentials.TransportCredentials, queueDir string) (*Client, error) {
	clientID := uuid.NewV4().String()
	queue, err := NewQueue(queueDir, clientID)
	if err != nil {
		return nil, err
	}

	if creds == nil {
		creds = insecure.NewCredentials()
	}

	return &Client{
		addr:        addr,
		creds:       creds,
		clientID:    clientID,
		queue:       queue,
		callTimeout: defaultCallTimeout,
	}, nil
}

// ID - the opaque client instance id
func (c *Client) ID() string {
	return c.clientID
}

// Queue - the durable pending-payment queue
func (c *Client) Queue() *Queue {
	return c.queue
}

// Connected reports whether a channel to the gateway is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Authenticated reports whether a session token is held.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// Connect opens the channel to the gateway; connecting twice is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := grpc.DialContext(ctx, c.addr,
		grpc.WithTransportCredentials(c.creds),
		grpc.WithDefaultCallOptions(payment.CallOption()),
	)
	if err != nil {
		return errorutils.Wrap(err, "could not dial gateway")
	}

	c.conn = conn
	c.stub = payment.NewPaymentGatewayClient(conn)
	return nil
}

// Disconnect closes the channel; the session token is kept for reconnects.
func (c *Client) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		logger := logging.Logger(ctx, "client.Disconnect")
		logger.Warn().Err(err).Msg("failed to close gateway connection")
	}
	c.conn = nil
	c.stub = nil
}

// Reconnect tears the channel down and dials again.
func (c *Client) Reconnect(ctx context.Context) error {
	c.Disconnect(ctx)
	return c.Connect(ctx)
}

// Authenticate verifies credentials and stores the minted session token.
func (c *Client) Authenticate(ctx context.Context, username, password, bankName string) (*payment.AuthResponse, error) {
	stub, err := c.currentStub()
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := stub.Authenticate(cctx, &payment.AuthRequest{
		Username: username,
		Password: password,
		BankName: bankName,
	})
	if err != nil {
		return nil, err
	}

	if resp.Success {
		c.mu.Lock()
		c.token = resp.Token
		c.mu.Unlock()
	}
	return resp, nil
}

// CheckBalance returns the balance of the session's account.
func (c *Client) CheckBalance(ctx context.Context) (*payment.BalanceResponse, error) {
	stub, err := c.currentStub()
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(c.withToken(ctx), c.callTimeout)
	defer cancel()

	return stub.CheckBalance(cctx, &payment.BalanceRequest{})
}

// GetTransactionHistory lists ledger entries for the session's account.
func (c *Client) GetTransactionHistory(ctx context.Context, limit int) (*payment.HistoryResponse, error) {
	stub, err := c.currentStub()
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(c.withToken(ctx), c.callTimeout)
	defer cancel()

	return stub.GetTransactionHistory(cctx, &payment.HistoryRequest{Limit: limit})
}

// Pay enqueues a durable record, then attempts the payment. An empty payment
// id mints a fresh one; a fixed id demonstrates gateway idempotency.
func (c *Client) Pay(ctx context.Context, receiverAccount, receiverBank, amount, paymentID string) (*payment.PaymentResponse, error) {
	if paymentID == "" {
		paymentID = uuid.NewV4().String()
	}

	// written before the first send so a transient loss cannot drop the
	// payment
	if err := c.queue.Put(&PendingPayment{
		PaymentID:       paymentID,
		SenderAccount:   "self",
		ReceiverBank:    receiverBank,
		ReceiverAccount: receiverAccount,
		Amount:          amount,
		CreatedAt:       time.Now().UTC(),
	}); err != nil {
		return nil, errorutils.Wrap(err, "could not enqueue pending payment")
	}

	return c.send(ctx, receiverAccount, receiverBank, amount, paymentID, false)
}

// Replay re-sends one queued payment using its stored payment id.
func (c *Client) Replay(ctx context.Context, p *PendingPayment) (*payment.PaymentResponse, error) {
	return c.send(ctx, p.ReceiverAccount, p.ReceiverBank, p.Amount, p.PaymentID, true)
}

func (c *Client) send(ctx context.Context, receiverAccount, receiverBank, amount, paymentID string, replay bool) (*payment.PaymentResponse, error) {
	logger := logging.Logger(ctx, "client.send")

	stub, err := c.currentStub()
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(c.withToken(ctx), c.callTimeout)
	defer cancel()

	resp, err := stub.ProcessPayment(cctx, &payment.PaymentRequest{
		SenderAccount:   "self",
		ReceiverAccount: receiverAccount,
		ReceiverBank:    receiverBank,
		Amount:          amount,
		PaymentID:       paymentID,
	})

	switch {
	case err == nil && resp.Success:
		// definitive success, the queue record has served its purpose
		if derr := c.queue.Delete(paymentID); derr != nil {
			logger.Warn().Err(derr).Str("paymentID", paymentID).Msg("failed to dequeue payment")
		}
		return resp, nil
	case err == nil:
		// a terminal failure is reconciled on replay, when the gateway
		// answers from its idempotency cache
		if replay {
			if derr := c.queue.Delete(paymentID); derr != nil {
				logger.Warn().Err(derr).Str("paymentID", paymentID).Msg("failed to dequeue payment")
			}
		}
		return resp, nil
	case retriable(err):
		// the record stays queued, the supervisor re-attempts
		logger.Warn().Err(err).Str("paymentID", paymentID).Msg("payment transiently failed, kept in queue")
		return nil, err
	default:
		if replay {
			if derr := c.queue.Delete(paymentID); derr != nil {
				logger.Warn().Err(derr).Str("paymentID", paymentID).Msg("failed to dequeue payment")
			}
		}
		return nil, err
	}
}

// Probe checks the channel with a cheap call under a short deadline. An
// application-level error still proves the gateway reachable.
func (c *Client) Probe(ctx context.Context) bool {
	stub, err := c.currentStub()
	if err != nil {
		return false
	}

	cctx, cancel := context.WithTimeout(c.withToken(ctx), probeTimeout)
	defer cancel()

	_, err = stub.CheckBalance(cctx, &payment.BalanceRequest{})
	return !retriable(err)
}

func (c *Client) currentStub() (payment.PaymentGatewayClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stub == nil {
		return nil, errorutils.ErrNotConnected
	}
	return c.stub, nil
}

func (c *Client) withToken(ctx context.Context) context.Context {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, payment.TokenMetadataKey, token)
}

// retriable - transport-level failures worth re-attempting later
func retriable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return true
	}
	return false
}
