package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	errorutils "github.com/KeyurIITGN/Strife/libs/errors"
)

// PendingPayment is one durable queue record, written before the first send
// attempt and deleted only once the gateway returns a definitive outcome.
type PendingPayment struct {
	PaymentID       string    `json:"payment_id"`
	SenderAccount   string    `json:"sender_account"`
	ReceiverBank    string    `json:"receiver_bank"`
	ReceiverAccount string    `json:"receiver_account"`
	Amount          string    `json:"amount"`
	CreatedAt       time.Time `json:"created_at"`
}

// Queue is the durable pending-payment queue, one JSON file per payment id
// under a per-client directory so per-file operations never conflict.
type Queue struct {
	dir string
}

// NewQueue creates the per-client queue directory.
func NewQueue(baseDir, clientID string) (*Queue, error) {
	dir := filepath.Join(baseDir, clientID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errorutils.Wrap(err, "could not create pending queue directory")
	}
	return &Queue{dir: dir}, nil
}

// Dir - the queue's backing directory
func (q *Queue) Dir() string {
	return q.dir
}

// Put writes the record durably under its payment id.
func (q *Queue) Put(p *PendingPayment) error {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(q.path(p.PaymentID), b, 0600)
}

// Get reads one record, nil when absent.
func (q *Queue) Get(paymentID string) (*PendingPayment, error) {
	b, err := os.ReadFile(q.path(paymentID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := &PendingPayment{}
	if err := json.Unmarshal(b, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every pending record, oldest first.
func (q *Queue) List() ([]*PendingPayment, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, err
	}

	pending := []*PendingPayment{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := q.Get(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil || p == nil {
			// a record another actor just removed is a tolerable no-op
			continue
		}
		pending = append(pending, p)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// Delete removes the record for a payment id; absent records succeed.
func (q *Queue) Delete(paymentID string) error {
	err := os.Remove(q.path(paymentID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Len returns the number of pending records.
func (q *Queue) Len() int {
	pending, err := q.List()
	if err != nil {
		return 0
	}
	return len(pending)
}

func (q *Queue) path(paymentID string) string {
	return filepath.Join(q.dir, paymentID+".json")
}
