package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Menu drives the interactive terminal session over a client and its
// supervisor. Reader and writer are injectable so the loop is testable.
type Menu struct {
	client  *Client
	monitor *Monitor
	in      *bufio.Scanner
	out     io.Writer
}

// NewMenu - an interactive menu over the client
func NewMenu(client *Client, monitor *Monitor, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		client:  client,
		monitor: monitor,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run loops over the menu until the user exits or input ends.
func (m *Menu) Run(ctx context.Context) {
	fmt.Fprintln(m.out, "=== Strife Payment System ===")
	fmt.Fprintf(m.out, "client id: %s\n", m.client.ID())

	for {
		fmt.Fprint(m.out, `
 1. connect to gateway
 2. authenticate
 3. check balance
 4. make payment
 5. idempotency demo (re-send a fixed payment id)
 6. view pending payments
 7. retry pending payments
 8. transaction history
 9. disconnect
 0. exit
choice: `)

		choice, ok := m.read()
		if !ok {
			return
		}

		switch choice {
		case "1":
			m.connect(ctx)
		case "2":
			m.authenticate(ctx)
		case "3":
			m.balance(ctx)
		case "4":
			m.pay(ctx)
		case "5":
			m.idempotencyDemo(ctx)
		case "6":
			m.viewPending()
		case "7":
			m.retryPending(ctx)
		case "8":
			m.history(ctx)
		case "9":
			m.client.Disconnect(ctx)
			fmt.Fprintln(m.out, "disconnected")
		case "0":
			m.monitor.Stop()
			m.client.Disconnect(ctx)
			fmt.Fprintln(m.out, "goodbye")
			return
		default:
			fmt.Fprintln(m.out, "unknown choice")
		}
	}
}

func (m *Menu) connect(ctx context.Context) {
	if err := m.client.Connect(ctx); err != nil {
		fmt.Fprintf(m.out, "connect failed: %v\n", err)
		return
	}
	fmt.Fprintln(m.out, "connected")
	if m.monitor.Start(ctx) {
		fmt.Fprintln(m.out, "connectivity supervisor started")
	}
}

func (m *Menu) authenticate(ctx context.Context) {
	username, ok := m.prompt("username: ")
	if !ok {
		return
	}
	password, ok := m.prompt("password: ")
	if !ok {
		return
	}
	bank, ok := m.prompt("bank name: ")
	if !ok {
		return
	}

	resp, err := m.client.Authenticate(ctx, username, password, bank)
	if err != nil {
		fmt.Fprintf(m.out, "authentication failed: %v\n", err)
		return
	}
	fmt.Fprintln(m.out, resp.Message)
}

func (m *Menu) balance(ctx context.Context) {
	resp, err := m.client.CheckBalance(ctx)
	if err != nil {
		fmt.Fprintf(m.out, "balance check failed: %v\n", err)
		return
	}
	fmt.Fprintf(m.out, "balance: %s\n", resp.Balance)
}

func (m *Menu) pay(ctx context.Context) {
	account, ok := m.prompt("receiver account: ")
	if !ok {
		return
	}
	bank, ok := m.prompt("receiver bank: ")
	if !ok {
		return
	}
	amount, ok := m.prompt("amount: ")
	if !ok {
		return
	}

	resp, err := m.client.Pay(ctx, account, bank, amount, "")
	if err != nil {
		fmt.Fprintf(m.out, "payment not confirmed: %v (kept in pending queue if retriable)\n", err)
		return
	}
	fmt.Fprintf(m.out, "status=%s transaction=%s %s\n", resp.Status, resp.TransactionID, resp.Message)
}

// idempotencyDemo sends the same payment id twice; the second response comes
// from the gateway's cache with no further balance change.
func (m *Menu) idempotencyDemo(ctx context.Context) {
	account, ok := m.prompt("receiver account: ")
	if !ok {
		return
	}
	bank, ok := m.prompt("receiver bank: ")
	if !ok {
		return
	}
	amount, ok := m.prompt("amount: ")
	if !ok {
		return
	}
	paymentID, ok := m.prompt("payment id: ")
	if !ok {
		return
	}

	for i := 1; i <= 2; i++ {
		resp, err := m.client.Pay(ctx, account, bank, amount, paymentID)
		if err != nil {
			fmt.Fprintf(m.out, "attempt %d: %v\n", i, err)
			continue
		}
		fmt.Fprintf(m.out, "attempt %d: status=%s transaction=%s %s\n", i, resp.Status, resp.TransactionID, resp.Message)
	}
}

func (m *Menu) viewPending() {
	pending, err := m.client.Queue().List()
	if err != nil {
		fmt.Fprintf(m.out, "failed to list pending payments: %v\n", err)
		return
	}
	if len(pending) == 0 {
		fmt.Fprintln(m.out, "no pending payments")
		return
	}
	for _, p := range pending {
		fmt.Fprintf(m.out, "%s  %s -> %s@%s  amount=%s\n",
			p.PaymentID, p.SenderAccount, p.ReceiverAccount, p.ReceiverBank, p.Amount)
	}
}

func (m *Menu) retryPending(ctx context.Context) {
	pending, err := m.client.Queue().List()
	if err != nil {
		fmt.Fprintf(m.out, "failed to list pending payments: %v\n", err)
		return
	}
	for _, p := range pending {
		resp, err := m.client.Replay(ctx, p)
		if err != nil {
			fmt.Fprintf(m.out, "%s: %v\n", p.PaymentID, err)
			continue
		}
		fmt.Fprintf(m.out, "%s: status=%s %s\n", p.PaymentID, resp.Status, resp.Message)
	}
}

func (m *Menu) history(ctx context.Context) {
	resp, err := m.client.GetTransactionHistory(ctx, 10)
	if err != nil {
		fmt.Fprintf(m.out, "history failed: %v\n", err)
		return
	}
	if len(resp.Transactions) == 0 {
		fmt.Fprintln(m.out, "no transactions")
		return
	}
	for _, tx := range resp.Transactions {
		fmt.Fprintf(m.out, "%s  %-6s %10s  %s  %s\n",
			tx.Timestamp, tx.Kind, tx.Amount, tx.Counterparty, tx.TransactionID)
	}
}

func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	return m.read()
}

func (m *Menu) read() (string, bool) {
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}
