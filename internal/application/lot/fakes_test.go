package lot

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/audit"
	domainBid "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/bid"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/dispute"
	domainLot "github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/lot"
	"github.com/thiagovt-dev/compras-brasil-v3-sub001/internal/domain/tender"
)

// In-memory repositories. Reads return copies so callers mutate their own
// snapshot, like a row scanned from the store.

type fakeLotRepo struct {
	mu    sync.Mutex
	lots  map[uuid.UUID]*domainLot.Lot
	parts *fakePartRepo
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[uuid.UUID]*domainLot.Lot)}
}

func (f *fakeLotRepo) Create(_ context.Context, l *domainLot.Lot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.lots[l.LotID] = &cp
	return nil
}

func (f *fakeLotRepo) GetByID(_ context.Context, lotID uuid.UUID) (*domainLot.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lots[lotID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLotRepo) ListByTender(_ context.Context, tenderID uuid.UUID) ([]*domainLot.Lot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domainLot.Lot
	for _, l := range f.lots {
		if l.TenderID == tenderID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// UpdateStatus flips the stored status directly; tests use it to seed a
// lot into a given phase.
func (f *fakeLotRepo) UpdateStatus(_ context.Context, lotID uuid.UUID, from, to domainLot.Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lots[lotID]
	if !ok || l.Status != from {
		return false, nil
	}
	l.Status = to
	return true, nil
}

// Transition mirrors the store's compare-and-swap transition: the lot row
// and the winner participation land together.
func (f *fakeLotRepo) Transition(_ context.Context, l *domainLot.Lot, from domainLot.Status, winner *domainLot.Participation) (bool, error) {
	f.mu.Lock()
	stored, ok := f.lots[l.LotID]
	if !ok || stored.Status != from {
		f.mu.Unlock()
		return false, nil
	}
	cp := *l
	f.lots[l.LotID] = &cp
	f.mu.Unlock()
	if winner != nil && f.parts != nil {
		_ = f.parts.Update(context.Background(), winner)
	}
	return true, nil
}

func (f *fakeLotRepo) Update(_ context.Context, l *domainLot.Lot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.lots[l.LotID] = &cp
	return nil
}

type fakePartRepo struct {
	mu    sync.Mutex
	parts map[uuid.UUID]*domainLot.Participation
}

func newFakePartRepo() *fakePartRepo {
	return &fakePartRepo{parts: make(map[uuid.UUID]*domainLot.Participation)}
}

func (f *fakePartRepo) Create(_ context.Context, p *domainLot.Participation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.parts[p.ParticipationID] = &cp
	return nil
}

func (f *fakePartRepo) GetByID(_ context.Context, participationID uuid.UUID) (*domainLot.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parts[participationID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePartRepo) GetBySupplier(_ context.Context, lotID, supplierID uuid.UUID) (*domainLot.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.parts {
		if p.LotID == lotID && p.SupplierID == supplierID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePartRepo) ListByLot(_ context.Context, lotID uuid.UUID) ([]*domainLot.Participation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domainLot.Participation
	for _, p := range f.parts {
		if p.LotID == lotID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePartRepo) CountByLot(_ context.Context, lotID uuid.UUID, status *domainLot.ParticipationStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.parts {
		if p.LotID != lotID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakePartRepo) Update(_ context.Context, p *domainLot.Participation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.parts[p.ParticipationID] = &cp
	return nil
}

type fakeBidRepo struct {
	mu   sync.Mutex
	bids map[uuid.UUID]*domainBid.Bid
}

func newFakeBidRepo() *fakeBidRepo {
	return &fakeBidRepo{bids: make(map[uuid.UUID]*domainBid.Bid)}
}

func (f *fakeBidRepo) Create(_ context.Context, b *domainBid.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.bids[b.BidID] = &cp
	return nil
}

func (f *fakeBidRepo) GetByID(_ context.Context, bidID uuid.UUID) (*domainBid.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bids[bidID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBidRepo) UpdateStatus(_ context.Context, b *domainBid.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.bids[b.BidID]
	if !ok || stored.Status != domainBid.StatusPending {
		return domainBid.ErrNotPending
	}
	cp := *b
	f.bids[b.BidID] = &cp
	return nil
}

func (f *fakeBidRepo) ListByLot(_ context.Context, lotID uuid.UUID) ([]*domainBid.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domainBid.Bid
	for _, b := range f.bids {
		if b.LotID == lotID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBidRepo) LatestActiveByParticipation(_ context.Context, lotID, participationID uuid.UUID) (*domainBid.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domainBid.Bid
	for _, b := range f.bids {
		if b.LotID != lotID || b.ParticipationID != participationID || b.Status != domainBid.StatusActive {
			continue
		}
		if latest == nil || b.SubmittedAt.After(latest.SubmittedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeBidRepo) BestActive(_ context.Context, lotID uuid.UUID, highestWins bool) (*domainBid.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domainBid.Bid
	for _, b := range f.bids {
		if b.LotID != lotID || b.Status != domainBid.StatusActive {
			continue
		}
		if best == nil {
			best = b
			continue
		}
		better := b.Value < best.Value
		if highestWins {
			better = b.Value > best.Value
		}
		if better || (b.Value == best.Value && b.SubmittedAt.Before(best.SubmittedAt)) {
			best = b
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeBidRepo) PendingByParticipation(_ context.Context, lotID, participationID uuid.UUID) (*domainBid.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bids {
		if b.LotID == lotID && b.ParticipationID == participationID && b.Status == domainBid.StatusPending {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBidRepo) SupersedeActive(_ context.Context, lotID, participationID, keep uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.bids {
		if b.LotID == lotID && b.ParticipationID == participationID && b.Status == domainBid.StatusActive && b.BidID != keep {
			b.Status = domainBid.StatusSuperseded
			n++
		}
	}
	return n, nil
}

type fakeTenderRepo struct {
	mu      sync.Mutex
	tenders map[uuid.UUID]*tender.Tender
}

func newFakeTenderRepo() *fakeTenderRepo {
	return &fakeTenderRepo{tenders: make(map[uuid.UUID]*tender.Tender)}
}

func (f *fakeTenderRepo) Create(_ context.Context, t *tender.Tender) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tenders[t.TenderID] = &cp
	return nil
}

func (f *fakeTenderRepo) Update(_ context.Context, t *tender.Tender) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tenders[t.TenderID] = &cp
	return nil
}

func (f *fakeTenderRepo) GetByID(_ context.Context, tenderID uuid.UUID) (*tender.Tender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenders[tenderID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenderRepo) List(_ context.Context, limit, offset int) ([]*tender.Tender, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*tender.Tender
	for _, t := range f.tenders {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

type fakeMsgRepo struct {
	mu       sync.Mutex
	seq      map[uuid.UUID]int64
	messages []*dispute.Message
}

func newFakeMsgRepo() *fakeMsgRepo {
	return &fakeMsgRepo{seq: make(map[uuid.UUID]int64)}
}

func (f *fakeMsgRepo) Create(_ context.Context, m *dispute.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq[m.TenderID]++
	m.Seq = f.seq[m.TenderID]
	m.ID = int64(len(f.messages) + 1)
	cp := *m
	f.messages = append(f.messages, &cp)
	return nil
}

func (f *fakeMsgRepo) ListByTender(_ context.Context, tenderID uuid.UUID, includePrivate bool, limit, offset int) ([]*dispute.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*dispute.Message
	for _, m := range f.messages {
		if m.TenderID != tenderID {
			continue
		}
		if m.Private && !includePrivate {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

// contents returns the stored message texts, private included.
func (f *fakeMsgRepo) contents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.messages))
	for _, m := range f.messages {
		out = append(out, m.Content)
	}
	return out
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*dispute.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (f *fakeEventRepo) Create(_ context.Context, e *dispute.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = int64(len(f.events) + 1)
	cp := *e
	f.events = append(f.events, &cp)
	return nil
}

func (f *fakeEventRepo) ListByTender(_ context.Context, tenderID uuid.UUID, limit, offset int) ([]*dispute.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*dispute.Event
	for _, e := range f.events {
		if e.TenderID == tenderID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) types() []dispute.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dispute.EventType, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []*audit.Log
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (f *fakeAuditRepo) Create(_ context.Context, log *audit.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *log
	f.logs = append(f.logs, &cp)
	return nil
}

func (f *fakeAuditRepo) GetByID(_ context.Context, auditID uuid.UUID) (*audit.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.logs {
		if l.AuditID == auditID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAuditRepo) List(_ context.Context, filter audit.Filter, limit, offset int) ([]*audit.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*audit.Log
	for _, l := range f.logs {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}
